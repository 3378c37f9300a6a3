package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/trustlayer/trustgraph/internal/core/domain"
	"github.com/trustlayer/trustgraph/internal/core/usecase"
)

// Loader reads the read-only data files a pipeline is constructed with. Load
// failures degrade: an empty registry (every mention falls through to
// fallback), no schema (no validation), no embeddings (semantic stage
// skipped), default lexicon.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// LoadRegistry reads the product registry keyed by product ID.
func (l *Loader) LoadRegistry(path string) domain.Registry {
	if path == "" {
		return domain.Registry{}
	}

	var reg domain.Registry
	if err := readJSON(path, &reg); err != nil {
		l.logger.Error("load product registry, degrading to empty", "path", path, "error", err)
		return domain.Registry{}
	}
	l.logger.Info("loaded product registry", "path", path, "products", len(reg))
	return reg
}

// LoadSchema reads the optional Trust Atom schema and returns its required
// field names.
func (l *Loader) LoadSchema(path string) []string {
	if path == "" {
		return nil
	}

	var schema struct {
		Required []string `json:"required"`
	}
	if err := readJSON(path, &schema); err != nil {
		l.logger.Error("load trust atom schema, skipping validation", "path", path, "error", err)
		return nil
	}
	return schema.Required
}

// LoadEmbeddings reads precomputed product embeddings for the semantic
// matching stage.
func (l *Loader) LoadEmbeddings(path string) map[string][]float64 {
	if path == "" {
		return nil
	}

	var embeddings map[string][]float64
	if err := readJSON(path, &embeddings); err != nil {
		l.logger.Error("load product embeddings, semantic stage disabled", "path", path, "error", err)
		return nil
	}
	l.logger.Info("loaded product embeddings", "path", path, "products", len(embeddings))
	return embeddings
}

// LoadLexicon reads the YAML sentiment/tag lexicon. Missing fields and load
// failures fall back to the compiled-in defaults.
func (l *Loader) LoadLexicon(path string) usecase.Lexicon {
	if path == "" {
		return usecase.DefaultLexicon()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		l.logger.Error("load lexicon, using defaults", "path", path, "error", err)
		return usecase.DefaultLexicon()
	}

	var lex usecase.Lexicon
	if err := yaml.Unmarshal(raw, &lex); err != nil {
		l.logger.Error("parse lexicon, using defaults", "path", path, "error", err)
		return usecase.DefaultLexicon()
	}
	return lex
}

func readJSON(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}
