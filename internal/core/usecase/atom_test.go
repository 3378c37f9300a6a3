package usecase

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

func fixedCreator(requiredFields []string, logger *slog.Logger) *TrustAtomCreator {
	creator := NewTrustAtomCreator(requiredFields, logger)
	creator.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	creator.newSuffix = func() string { return "abcd1234" }
	return creator
}

func TestCreateFusesConfidence(t *testing.T) {
	creator := fixedCreator(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	atom := creator.Create(
		domain.Feedback{Text: "great cleanser", Source: domain.SourceReddit, Timestamp: "2026-01-01T00:00:00Z"},
		domain.MatchResult{ProductID: "cerave_foaming_cleanser", Method: domain.MethodExactAlias, Score: 0.9},
		domain.SentimentResult{Label: domain.SentimentPositive, Confidence: 0.8},
		[]string{"skincare"},
		"great cleanser",
		0.6,
	)

	want := 0.7*0.9 + 0.3*0.8
	if math.Abs(atom.ConfidenceScore-want) > 1e-9 {
		t.Fatalf("confidence = %f, want %f", atom.ConfidenceScore, want)
	}
	if atom.AtomID != "reddit_cerave_foaming_cleanser_abcd1234" {
		t.Fatalf("unexpected atom id %q", atom.AtomID)
	}
	if atom.ProductID != "cerave_foaming_cleanser" {
		t.Fatalf("unexpected product id %q", atom.ProductID)
	}
}

func TestCreateAppliesSentinels(t *testing.T) {
	creator := fixedCreator(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	atom := creator.Create(
		domain.Feedback{Text: "some feedback"},
		domain.MatchResult{Method: domain.MethodFallback, Score: 0.1},
		domain.SentimentResult{Label: domain.SentimentNeutral, Confidence: 0.5},
		nil,
		"",
		0,
	)

	if atom.ProductID != domain.UnknownProduct {
		t.Fatalf("expected unknown product sentinel, got %q", atom.ProductID)
	}
	if atom.Source != domain.SourceUnknown {
		t.Fatalf("expected unknown source, got %s", atom.Source)
	}
	if atom.SummaryText != "some feedback" {
		t.Fatalf("expected summary fallback to feedback text, got %q", atom.SummaryText)
	}
	if atom.AuthenticityScore != 0.5 {
		t.Fatalf("expected default authenticity 0.5, got %f", atom.AuthenticityScore)
	}
	if atom.Tags == nil || len(atom.Tags) != 0 {
		t.Fatalf("expected empty non-nil tags, got %v", atom.Tags)
	}
	if atom.Timestamp != "2026-08-30T12:00:00Z" {
		t.Fatalf("expected creation-time timestamp, got %q", atom.Timestamp)
	}
	if atom.Metadata.UsernameHash != "sha256:anonymous" {
		t.Fatalf("expected anonymous hash, got %q", atom.Metadata.UsernameHash)
	}
	if !strings.HasPrefix(atom.AtomID, "unknown_unknown_product_") {
		t.Fatalf("unexpected atom id %q", atom.AtomID)
	}
}

func TestCreateSourceBlocks(t *testing.T) {
	creator := fixedCreator(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	match := domain.MatchResult{ProductID: "p", Score: 0.9}
	sentiment := domain.SentimentResult{Label: domain.SentimentPositive, Confidence: 0.7}

	reddit := creator.Create(
		domain.Feedback{Text: "t", Source: domain.SourceReddit, Provenance: domain.RedditData{Subreddit: "skincare"}},
		match, sentiment, nil, "t", 0.5,
	)
	if reddit.SourceSpecific.Reddit == nil || reddit.SourceSpecific.Reddit.Subreddit != "skincare" {
		t.Fatalf("expected reddit block, got %+v", reddit.SourceSpecific)
	}
	if reddit.SourceSpecific.YouTube != nil || reddit.SourceSpecific.Amazon != nil {
		t.Fatal("expected only the reddit block")
	}

	youtube := creator.Create(
		domain.Feedback{Text: "t", Source: domain.SourceYouTube, Provenance: domain.YouTubeData{VideoTitle: "review"}},
		match, sentiment, nil, "t", 0.5,
	)
	if youtube.SourceSpecific.YouTube == nil || youtube.SourceSpecific.YouTube.VideoTitle != "review" {
		t.Fatalf("expected youtube block, got %+v", youtube.SourceSpecific)
	}

	amazon := creator.Create(
		domain.Feedback{Text: "t", Source: domain.SourceAmazon, Provenance: domain.AmazonData{StarRating: 4.5}},
		match, sentiment, nil, "t", 0.5,
	)
	if amazon.SourceSpecific.Amazon == nil || amazon.SourceSpecific.Amazon.StarRating != 4.5 {
		t.Fatalf("expected amazon block, got %+v", amazon.SourceSpecific)
	}

	bare := creator.Create(
		domain.Feedback{Text: "t", Source: domain.SourceUnknown},
		match, sentiment, nil, "t", 0.5,
	)
	if bare.SourceSpecific.Reddit != nil || bare.SourceSpecific.YouTube != nil || bare.SourceSpecific.Amazon != nil {
		t.Fatalf("expected no source block, got %+v", bare.SourceSpecific)
	}
}

func TestCreateValidationLogsOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	creator := fixedCreator([]string{"atom_id", "no_such_field"}, logger)

	atom := creator.Create(
		domain.Feedback{Text: "t", Source: domain.SourceReddit},
		domain.MatchResult{ProductID: "p", Score: 0.9},
		domain.SentimentResult{Label: domain.SentimentPositive, Confidence: 0.7},
		nil, "t", 0.5,
	)

	if atom.AtomID == "" {
		t.Fatal("expected atom despite validation failure")
	}
	logged := buf.String()
	if !strings.Contains(logged, "no_such_field") {
		t.Fatalf("expected missing-field warning, got %q", logged)
	}
	if strings.Contains(logged, `"field":"atom_id"`) {
		t.Fatalf("did not expect warning for present field, got %q", logged)
	}
}
