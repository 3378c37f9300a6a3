package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

func TestCleanText(t *testing.T) {
	p := NewPreprocessor()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"strips urls", "Love this! https://example.com/p?x=1 5/5 stars.", "Love this 5 5 stars"},
		{"keeps apostrophes", "it's great", "it's great"},
		{"collapses whitespace", "too   many\t\tspaces\n\nhere", "too many spaces here"},
		{"strips punctuation", "Great product!!! (really)", "Great product really"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CleanText(tt.in)
			if got != tt.want {
				t.Fatalf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanTextIdempotent(t *testing.T) {
	p := NewPreprocessor()

	inputs := []string{
		"Love this! https://example.com 5/5 stars.",
		"it's   fine",
		"already clean text",
	}
	for _, in := range inputs {
		once := p.CleanText(in)
		twice := p.CleanText(once)
		if once != twice {
			t.Fatalf("CleanText not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestAnonymizeHandle(t *testing.T) {
	p := NewPreprocessor()

	hash := p.AnonymizeHandle("some_user")
	if !strings.HasPrefix(hash, "sha256:") {
		t.Fatalf("expected sha256 prefix, got %q", hash)
	}
	if len(strings.TrimPrefix(hash, "sha256:")) != 16 {
		t.Fatalf("expected 16 hex chars after prefix, got %q", hash)
	}
	if p.AnonymizeHandle("some_user") != hash {
		t.Fatal("expected stable hash for same handle")
	}
	if p.AnonymizeHandle("other_user") == hash {
		t.Fatal("expected different hash for different handle")
	}
	if p.AnonymizeHandle("") != "sha256:anonymous" {
		t.Fatalf("expected anonymous sentinel, got %q", p.AnonymizeHandle(""))
	}
}

func TestNormalizeRedditComment(t *testing.T) {
	p := NewPreprocessor()
	post := domain.RedditPost{
		Permalink: "/r/skincare/comments/abc",
		Subreddit: "skincare",
		Title:     "best cleanser?",
		Score:     120,
	}
	comment := domain.RedditComment{
		Body:       "Love it! https://spam.example",
		Author:     "redditor1",
		CreatedUTC: 1700000000,
		Score:      42,
		ID:         "c1",
	}

	fb := p.NormalizeRedditComment(comment, post)
	if fb.Source != domain.SourceReddit {
		t.Fatalf("expected reddit source, got %s", fb.Source)
	}
	if fb.Text != "Love it" {
		t.Fatalf("expected cleaned text, got %q", fb.Text)
	}
	want := time.Unix(1700000000, 0).UTC().Format(time.RFC3339)
	if fb.Timestamp != want {
		t.Fatalf("expected timestamp %s, got %s", want, fb.Timestamp)
	}
	if fb.Score != 42 || fb.Permalink != post.Permalink || fb.CommentID != "c1" {
		t.Fatalf("unexpected envelope fields: %+v", fb)
	}
	prov, ok := fb.Provenance.(domain.RedditData)
	if !ok {
		t.Fatalf("expected reddit provenance, got %T", fb.Provenance)
	}
	if prov.Subreddit != "skincare" || prov.PostTitle != "best cleanser?" || prov.PostScore != 120 {
		t.Fatalf("unexpected provenance: %+v", prov)
	}
}

func TestNormalizeRedditCommentMissingTimestamp(t *testing.T) {
	p := NewPreprocessor()

	fb := p.NormalizeRedditComment(domain.RedditComment{Body: "hi there"}, domain.RedditPost{})
	if fb.Timestamp != "" {
		t.Fatalf("expected unset timestamp, got %q", fb.Timestamp)
	}
}

func TestNormalizeYouTubeCommentDefaultsTimestamp(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	p := &Preprocessor{now: func() time.Time { return fixed }}

	fb := p.NormalizeYouTubeComment(
		domain.YouTubeComment{Text: "nice video", Author: "viewer", LikeCount: 7},
		domain.YouTubeVideo{Title: "review", ChannelName: "ch", ViewCount: 1000, URL: "https://youtu.be/x"},
	)
	if fb.Timestamp != fixed.Format(time.RFC3339) {
		t.Fatalf("expected processing-time timestamp, got %q", fb.Timestamp)
	}
	if fb.Source != domain.SourceYouTube || fb.Score != 7 {
		t.Fatalf("unexpected envelope: %+v", fb)
	}
	prov, ok := fb.Provenance.(domain.YouTubeData)
	if !ok {
		t.Fatalf("expected youtube provenance, got %T", fb.Provenance)
	}
	if prov.VideoTitle != "review" || prov.VideoViews != 1000 {
		t.Fatalf("unexpected provenance: %+v", prov)
	}
}
