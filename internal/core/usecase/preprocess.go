package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	nonWordPattern    = regexp.MustCompile(`[^\w\s']`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Preprocessor cleans raw comment text and normalizes source-specific comment
// shapes into the canonical feedback envelope.
type Preprocessor struct {
	now func() time.Time
}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{now: time.Now}
}

// CleanText strips URLs, removes everything except word characters,
// whitespace and apostrophes, and collapses whitespace runs to single spaces.
// It never fails and is idempotent.
func (p *Preprocessor) CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = urlPattern.ReplaceAllString(text, "")
	text = nonWordPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// NormalizeRedditComment maps one Reddit comment plus its parent post into
// the canonical envelope. A missing created_utc stays unset.
func (p *Preprocessor) NormalizeRedditComment(comment domain.RedditComment, post domain.RedditPost) domain.Feedback {
	return domain.Feedback{
		Text:       p.CleanText(comment.Body),
		Source:     domain.SourceReddit,
		Timestamp:  unixToRFC3339(comment.CreatedUTC),
		AuthorHash: p.AnonymizeHandle(comment.Author),
		Score:      comment.Score,
		Permalink:  post.Permalink,
		CommentID:  comment.ID,
		Provenance: domain.RedditData{
			Subreddit: post.Subreddit,
			PostTitle: post.Title,
			PostScore: post.Score,
		},
	}
}

// NormalizeYouTubeComment maps one YouTube comment plus its parent video into
// the canonical envelope. A missing published_at defaults to processing time.
func (p *Preprocessor) NormalizeYouTubeComment(comment domain.YouTubeComment, video domain.YouTubeVideo) domain.Feedback {
	timestamp := comment.PublishedAt
	if timestamp == "" {
		timestamp = p.now().UTC().Format(time.RFC3339)
	}
	return domain.Feedback{
		Text:       p.CleanText(comment.Text),
		Source:     domain.SourceYouTube,
		Timestamp:  timestamp,
		AuthorHash: p.AnonymizeHandle(comment.Author),
		Score:      comment.LikeCount,
		Permalink:  video.URL,
		CommentID:  comment.ID,
		Provenance: domain.YouTubeData{
			VideoTitle:       video.Title,
			ChannelName:      video.ChannelName,
			VideoViews:       video.ViewCount,
			TimestampInVideo: comment.TimestampInVideo,
		},
	}
}

// AnonymizeHandle replaces an author handle with a stable truncated SHA-256
// digest so the same author always maps to the same hash across runs.
func (p *Preprocessor) AnonymizeHandle(handle string) string {
	if handle == "" {
		return "sha256:anonymous"
	}
	sum := sha256.Sum256([]byte(handle))
	return fmt.Sprintf("sha256:%s", hex.EncodeToString(sum[:])[:16])
}

func unixToRFC3339(seconds float64) string {
	if seconds == 0 {
		return ""
	}
	return time.Unix(int64(seconds), 0).UTC().Format(time.RFC3339)
}
