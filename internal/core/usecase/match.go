package usecase

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/trustlayer/trustgraph/internal/core/domain"
	"github.com/trustlayer/trustgraph/internal/core/ports"
)

const (
	exactCanonicalScore = 0.95
	exactAliasScore     = 0.90
	exactAliasThreshold = 0.8
	fuzzyThreshold      = 0.6
	semanticThreshold   = 0.5
	brandBoost          = 1.2
	fallbackScore       = 0.1
	maxAlternativeCount = 3
)

// EmbedFunc produces a vector for mention text. Semantic matching is wired
// only when both product embeddings and an embedder are supplied.
type EmbedFunc func(text string) ([]float64, bool)

// Matcher resolves free text to a product identifier with a calibrated
// confidence. Strategies are tried in order; the first accepting stage wins.
// Unresolved mentions go to the mention log as a side channel for curation.
type Matcher struct {
	registry   domain.Registry
	ids        []string
	strategies []ports.MatchStrategy
	mentions   ports.MentionLog
	logger     *slog.Logger
	now        func() time.Time
}

func NewMatcher(
	registry domain.Registry,
	embeddings map[string][]float64,
	embed EmbedFunc,
	mentions ports.MentionLog,
	logger *slog.Logger,
) *Matcher {
	if registry == nil {
		registry = domain.Registry{}
	}
	ids := registry.IDs()

	strategies := []ports.MatchStrategy{
		&exactAliasStrategy{registry: registry, ids: ids},
		&fuzzyBrandStrategy{registry: registry, ids: ids},
	}
	if len(embeddings) > 0 && embed != nil {
		strategies = append(strategies, &semanticStrategy{ids: ids, embeddings: embeddings, embed: embed})
	}

	return &Matcher{
		registry:   registry,
		ids:        ids,
		strategies: strategies,
		mentions:   mentions,
		logger:     logger,
		now:        time.Now,
	}
}

// MatchProduct runs the staged algorithm. It never fails: an empty registry
// or unmatched text degrades to a fallback result.
func (m *Matcher) MatchProduct(ctx context.Context, text string) domain.MatchResult {
	for _, strategy := range m.strategies {
		productID, score, ok := strategy.Attempt(text)
		if !ok {
			continue
		}
		return domain.MatchResult{
			ProductID:    productID,
			Method:       strategy.Method(),
			Score:        score,
			Alternatives: m.alternatives(text, productID),
			Context:      m.contextFactors(text),
		}
	}

	m.logUnresolved(ctx, text)
	return domain.MatchResult{
		Method:       domain.MethodFallback,
		Score:        fallbackScore,
		Alternatives: []domain.AlternativeMatch{},
		Context:      m.contextFactors(text),
	}
}

// alternatives returns the next-best fuzzy candidates excluding the winner,
// sorted descending by score.
func (m *Matcher) alternatives(text, winnerID string) []domain.AlternativeMatch {
	textLower := strings.ToLower(text)

	scored := make([]domain.AlternativeMatch, 0, len(m.ids))
	for _, id := range m.ids {
		if id == winnerID {
			continue
		}
		scored = append(scored, domain.AlternativeMatch{
			ProductID: id,
			Score:     similarityRatio(strings.ToLower(m.registry[id].CanonicalName), textLower),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if len(scored) > maxAlternativeCount {
		scored = scored[:maxAlternativeCount]
	}
	return scored
}

func (m *Matcher) contextFactors(text string) domain.ContextFactors {
	textLower := strings.ToLower(text)
	factors := domain.ContextFactors{}

	for _, id := range m.ids {
		product := m.registry[id]
		if !factors.BrandMentioned && product.Brand != "" &&
			strings.Contains(textLower, strings.ToLower(product.Brand)) {
			factors.BrandMentioned = true
		}
		if !factors.ProductTypeMentioned && product.Type != "" &&
			strings.Contains(textLower, strings.ToLower(product.Type)) {
			factors.ProductTypeMentioned = true
		}
		if !factors.IdentifierMentioned {
			for _, value := range product.Identifiers {
				if value != "" && strings.Contains(text, value) {
					factors.IdentifierMentioned = true
					break
				}
			}
		}
	}
	return factors
}

func (m *Matcher) logUnresolved(ctx context.Context, text string) {
	if m.mentions == nil {
		return
	}
	mention := domain.Mention{
		MentionText: text,
		Timestamp:   m.now().UTC().Format(time.RFC3339),
		Status:      domain.MentionStatusUnprocessed,
	}
	if err := m.mentions.LogUnresolved(ctx, mention); err != nil {
		m.logger.Warn("log unresolved mention", "error", err)
	}
}

// exactAliasStrategy accepts case-insensitive containment of a canonical name
// or registered alias.
type exactAliasStrategy struct {
	registry domain.Registry
	ids      []string
}

func (s *exactAliasStrategy) Method() domain.MatchMethod { return domain.MethodExactAlias }

func (s *exactAliasStrategy) Attempt(text string) (string, float64, bool) {
	textLower := strings.ToLower(text)

	for _, id := range s.ids {
		product := s.registry[id]
		if product.CanonicalName != "" &&
			strings.Contains(textLower, strings.ToLower(product.CanonicalName)) {
			return id, exactCanonicalScore, exactCanonicalScore > exactAliasThreshold
		}
		for _, alias := range product.Aliases {
			if alias != "" && strings.Contains(textLower, strings.ToLower(alias)) {
				return id, exactAliasScore, exactAliasScore > exactAliasThreshold
			}
		}
	}
	return "", 0, false
}

// fuzzyBrandStrategy scores candidates by string similarity between canonical
// name and text. A brand co-mention restricts candidates to that brand and
// boosts the score; the result is clamped to [0,1], never renormalized.
type fuzzyBrandStrategy struct {
	registry domain.Registry
	ids      []string
}

func (s *fuzzyBrandStrategy) Method() domain.MatchMethod { return domain.MethodFuzzyBrandProduct }

func (s *fuzzyBrandStrategy) Attempt(text string) (string, float64, bool) {
	textLower := strings.ToLower(text)

	brands := map[string]bool{}
	for _, id := range s.ids {
		brand := strings.ToLower(s.registry[id].Brand)
		if brand != "" && strings.Contains(textLower, brand) {
			brands[brand] = true
		}
	}

	bestID := ""
	bestScore := 0.0
	for _, id := range s.ids {
		product := s.registry[id]
		if len(brands) > 0 && !brands[strings.ToLower(product.Brand)] {
			continue
		}
		score := similarityRatio(strings.ToLower(product.CanonicalName), textLower)
		if len(brands) > 0 {
			score *= brandBoost
		}
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}

	bestScore = math.Min(bestScore, 1.0)
	return bestID, bestScore, bestID != "" && bestScore > fuzzyThreshold
}

// semanticStrategy compares the mention vector with precomputed product
// embeddings by cosine similarity.
type semanticStrategy struct {
	ids        []string
	embeddings map[string][]float64
	embed      EmbedFunc
}

func (s *semanticStrategy) Method() domain.MatchMethod { return domain.MethodSemantic }

func (s *semanticStrategy) Attempt(text string) (string, float64, bool) {
	vector, ok := s.embed(text)
	if !ok || len(vector) == 0 {
		return "", 0, false
	}

	bestID := ""
	bestScore := 0.0
	for _, id := range s.ids {
		candidate, exists := s.embeddings[id]
		if !exists {
			continue
		}
		score := cosineSimilarity(vector, candidate)
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}
	return bestID, bestScore, bestID != "" && bestScore > semanticThreshold
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// similarityRatio is a normalized edit-distance-derived ratio in [0,1]:
// twice the number of characters in common matching blocks over the total
// length of both strings.
func similarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(ra, rb)) / float64(total)
}

func matchingChars(a, b []rune) int {
	posA, posB, size := longestCommonBlock(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:posA], b[:posB]) +
		matchingChars(a[posA+size:], b[posB+size:])
}

func longestCommonBlock(a, b []rune) (bestA, bestB, size int) {
	prev := make([]int, len(b)+1)
	for i := range a {
		cur := make([]int, len(b)+1)
		for j := range b {
			if a[i] != b[j] {
				continue
			}
			k := prev[j] + 1
			cur[j+1] = k
			if k > size {
				size = k
				bestA = i - k + 1
				bestB = j - k + 1
			}
		}
		prev = cur
	}
	return bestA, bestB, size
}
