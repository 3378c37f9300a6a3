package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/trustlayer/trustgraph/internal/core/domain"
	"github.com/trustlayer/trustgraph/internal/core/ports"
)

const (
	defaultMaxSummaryWords = 30
	minSummarySentenceLen  = 3

	shortFeedbackWords = 5
	longFeedbackWords  = 30

	redditUpvoteLow   = 10
	redditUpvoteHigh  = 50
	youtubeLikeLow    = 5
	youtubeLikeHigh   = 20
	matureAccountDays = 365
)

var sentenceSplitPattern = regexp.MustCompile(`[.!?]+\s+`)

// Lexicon holds the keyword sets driving sentiment classification and the
// per-category tag dictionaries. Zero-value fields fall back to the compiled
// defaults.
type Lexicon struct {
	Positive []string                       `yaml:"positive"`
	Negative []string                       `yaml:"negative"`
	Neutral  []string                       `yaml:"neutral"`
	Tags     map[string]map[string][]string `yaml:"tags"`
}

func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: []string{
			"love", "great", "excellent", "amazing", "perfect", "recommend",
			"awesome", "fantastic", "wonderful", "best", "favorite", "worth",
		},
		Negative: []string{
			"hate", "terrible", "awful", "disappointing", "waste", "avoid",
			"bad", "worst", "horrible", "useless", "regret", "return",
		},
		Neutral: []string{
			"okay", "ok", "fine", "average", "decent", "alright", "so-so",
		},
		Tags: map[string]map[string][]string{
			"skincare": {
				"skin_types": {"oily", "dry", "combination", "sensitive", "acne-prone"},
				"concerns":   {"acne", "wrinkles", "redness", "dark spots", "blackheads", "pores"},
				"ingredients": {
					"retinol", "vitamin c", "hyaluronic acid", "niacinamide", "salicylic acid",
					"benzoyl peroxide", "ceramides", "peptides", "aha", "bha",
				},
			},
			"food": {
				"flavors": {"sweet", "savory", "spicy", "bitter", "sour", "umami"},
				"dietary": {"vegan", "gluten-free", "keto", "organic", "non-gmo", "paleo", "vegetarian"},
				"texture": {"crunchy", "smooth", "creamy", "crispy", "chewy", "soft"},
			},
			"household": {
				"features": {"eco-friendly", "biodegradable", "reusable", "disposable", "concentrated"},
				"concerns": {"stains", "odor", "germs", "bacteria", "allergens", "dust"},
				"surfaces": {"carpet", "wood", "glass", "tile", "fabric", "metal", "plastic"},
			},
		},
	}
}

func (l Lexicon) withDefaults() Lexicon {
	def := DefaultLexicon()
	if len(l.Positive) == 0 {
		l.Positive = def.Positive
	}
	if len(l.Negative) == 0 {
		l.Negative = def.Negative
	}
	if len(l.Neutral) == 0 {
		l.Neutral = def.Neutral
	}
	if len(l.Tags) == 0 {
		l.Tags = def.Tags
	}
	return l
}

// ContentAnalyzer derives sentiment, tags, summaries and authenticity scores
// from normalized feedback text. All rule-based paths are deterministic and
// total; only summarization may call out, and any failure there falls back.
type ContentAnalyzer struct {
	lexicon         Lexicon
	tagPatterns     map[string][]tagPattern
	summarizer      ports.Summarizer
	maxSummaryWords int
	logger          *slog.Logger
}

type tagPattern struct {
	tag     string
	pattern *regexp.Regexp
}

func NewContentAnalyzer(lexicon Lexicon, summarizer ports.Summarizer, maxSummaryWords int, logger *slog.Logger) *ContentAnalyzer {
	if maxSummaryWords <= 0 {
		maxSummaryWords = defaultMaxSummaryWords
	}
	lexicon = lexicon.withDefaults()

	patterns := make(map[string][]tagPattern, len(lexicon.Tags))
	for category, groups := range lexicon.Tags {
		groupNames := make([]string, 0, len(groups))
		for name := range groups {
			groupNames = append(groupNames, name)
		}
		sort.Strings(groupNames)
		for _, name := range groupNames {
			for _, tag := range groups[name] {
				patterns[category] = append(patterns[category], tagPattern{
					tag:     tag,
					pattern: regexp.MustCompile(`\b` + regexp.QuoteMeta(tag) + `\b`),
				})
			}
		}
	}

	return &ContentAnalyzer{
		lexicon:         lexicon,
		tagPatterns:     patterns,
		summarizer:      summarizer,
		maxSummaryWords: maxSummaryWords,
		logger:          logger,
	}
}

// AnalyzeSentiment classifies text into positive, negative, mixed or neutral
// with a confidence in [0,1].
func (a *ContentAnalyzer) AnalyzeSentiment(text string) domain.SentimentResult {
	textLower := strings.ToLower(text)

	positive := countPresent(textLower, a.lexicon.Positive)
	negative := countPresent(textLower, a.lexicon.Negative)

	switch {
	case positive > 0 && negative == 0:
		confidence := 0.5 + float64(positive)*0.1
		if confidence > 0.9 {
			confidence = 0.9
		}
		return domain.SentimentResult{Label: domain.SentimentPositive, Confidence: confidence}
	case negative > 0 && positive == 0:
		confidence := 0.5 + float64(negative)*0.1
		if confidence > 0.9 {
			confidence = 0.9
		}
		return domain.SentimentResult{Label: domain.SentimentNegative, Confidence: confidence}
	case positive > 0 && negative > 0:
		confidence := 0.6
		if positive != negative {
			confidence = 0.7
		}
		return domain.SentimentResult{Label: domain.SentimentMixed, Confidence: confidence}
	}

	if countPresent(textLower, a.lexicon.Neutral) > 0 {
		return domain.SentimentResult{Label: domain.SentimentNeutral, Confidence: 0.7}
	}
	return domain.SentimentResult{Label: domain.SentimentNeutral, Confidence: 0.5}
}

// ExtractTags returns the de-duplicated, sorted tag set for the category's
// dictionary. Tags match on whole words; the category itself is always
// included.
func (a *ContentAnalyzer) ExtractTags(text, category string) []string {
	textLower := strings.ToLower(text)

	seen := map[string]bool{category: true}
	for _, tp := range a.tagPatterns[category] {
		if tp.pattern.MatchString(textLower) {
			seen[tp.tag] = true
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// GenerateSummary returns text unchanged when it fits the word budget,
// otherwise tries the external summarizer and falls back to sentence
// accumulation.
func (a *ContentAnalyzer) GenerateSummary(ctx context.Context, text string) string {
	if len(strings.Fields(text)) <= a.maxSummaryWords {
		return text
	}

	if a.summarizer != nil {
		summary, err := a.summarizer.Summarize(ctx, text, a.maxSummaryWords)
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary)
		}
		if err != nil {
			a.logger.Warn("external summarizer failed, using rule-based fallback", "error", err)
		}
	}
	return a.ruleBasedSummary(text)
}

func (a *ContentAnalyzer) ruleBasedSummary(text string) string {
	split := sentenceSplitPattern.Split(text, -1)
	sentences := make([]string, 0, len(split))
	for _, s := range split {
		if len(strings.Fields(s)) > minSummarySentenceLen {
			sentences = append(sentences, strings.TrimSpace(s))
		}
	}
	if len(sentences) == 0 {
		return text
	}

	summary := sentences[0]
	wordCount := len(strings.Fields(summary))
	for _, sentence := range sentences[1:] {
		if wordCount >= a.maxSummaryWords {
			break
		}
		words := len(strings.Fields(sentence))
		if wordCount+words > a.maxSummaryWords {
			continue
		}
		summary += ". " + sentence
		wordCount += words
	}
	return summary
}

// Authenticity scores how trustworthy one piece of feedback looks, clamped
// to [0.1, 1.0].
func (a *ContentAnalyzer) Authenticity(feedback domain.Feedback) float64 {
	score := 0.5

	switch feedback.Source {
	case domain.SourceReddit:
		switch {
		case feedback.Score > redditUpvoteHigh:
			score += 0.2
		case feedback.Score > redditUpvoteLow:
			score += 0.1
		}
	case domain.SourceYouTube:
		switch {
		case feedback.Score > youtubeLikeHigh:
			score += 0.2
		case feedback.Score > youtubeLikeLow:
			score += 0.1
		}
	}

	if feedback.AccountAgeDays > matureAccountDays {
		score += 0.1
	}
	if feedback.VerifiedPurchase {
		score += 0.2
	}

	words := len(strings.Fields(feedback.Text))
	if words < shortFeedbackWords {
		score -= 0.1
	} else if words > longFeedbackWords {
		score += 0.1
	}

	if score < 0.1 {
		return 0.1
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

func countPresent(textLower string, keywords []string) int {
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(textLower, keyword) {
			count++
		}
	}
	return count
}
