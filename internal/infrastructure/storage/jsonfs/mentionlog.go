package jsonfs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

// MentionLog is the append-only unresolved-mention side channel, one flat
// JSON array of mention records feeding registry curation.
type MentionLog struct {
	path string
}

func NewMentionLog(path string) (*MentionLog, error) {
	if path == "" {
		path = "./data/registry_suggestions.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create mention log dir: %w", err)
	}
	return &MentionLog{path: path}, nil
}

func (l *MentionLog) LogUnresolved(_ context.Context, mention domain.Mention) error {
	mentions, err := l.Mentions()
	if err != nil {
		// A corrupt suggestions file must not block the pipeline; start a
		// fresh log.
		mentions = nil
	}
	mentions = append(mentions, mention)

	raw, err := json.MarshalIndent(mentions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mention log: %w", err)
	}
	if err := os.WriteFile(l.path, raw, 0o644); err != nil {
		return fmt.Errorf("write mention log: %w", err)
	}
	return nil
}

// Mentions reads the current log; a missing file is an empty log.
func (l *MentionLog) Mentions() ([]domain.Mention, error) {
	raw, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mention log: %w", err)
	}

	var mentions []domain.Mention
	if err := json.Unmarshal(raw, &mentions); err != nil {
		return nil, fmt.Errorf("decode mention log: %w", err)
	}
	return mentions, nil
}
