package usecase

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

const (
	matchConfidenceWeight     = 0.7
	sentimentConfidenceWeight = 0.3

	defaultAuthenticity = 0.5
)

// TrustAtomCreator fuses a feedback envelope, a match result and the content
// analysis into one immutable Trust Atom.
type TrustAtomCreator struct {
	requiredFields []string
	logger         *slog.Logger
	now            func() time.Time
	newSuffix      func() string
}

// NewTrustAtomCreator builds a creator. requiredFields is the optional
// schema: when non-empty, every created atom is checked for the presence of
// those fields; violations are logged, never raised.
func NewTrustAtomCreator(requiredFields []string, logger *slog.Logger) *TrustAtomCreator {
	return &TrustAtomCreator{
		requiredFields: requiredFields,
		logger:         logger,
		now:            time.Now,
		newSuffix:      atomSuffix,
	}
}

// Create synthesizes one Trust Atom. An empty summary falls back to the raw
// feedback text; an unmatched product gets the unknown-product sentinel.
func (c *TrustAtomCreator) Create(
	feedback domain.Feedback,
	match domain.MatchResult,
	sentiment domain.SentimentResult,
	tags []string,
	summary string,
	authenticity float64,
) domain.TrustAtom {
	productID := match.ProductID
	if productID == "" {
		productID = domain.UnknownProduct
	}

	source := feedback.Source
	if source == "" {
		source = domain.SourceUnknown
	}

	if summary == "" {
		summary = feedback.Text
	}
	if authenticity == 0 {
		authenticity = defaultAuthenticity
	}
	if tags == nil {
		tags = []string{}
	}

	timestamp := feedback.Timestamp
	if timestamp == "" {
		timestamp = c.now().UTC().Format(time.RFC3339)
	}

	authorHash := feedback.AuthorHash
	if authorHash == "" {
		authorHash = "sha256:anonymous"
	}

	atom := domain.TrustAtom{
		AtomID:            fmt.Sprintf("%s_%s_%s", source, productID, c.newSuffix()),
		ProductID:         productID,
		Source:            source,
		Timestamp:         timestamp,
		FeedbackText:      feedback.Text,
		SummaryText:       summary,
		SentimentLabel:    sentiment.Label,
		AuthenticityScore: authenticity,
		ConfidenceScore:   matchConfidenceWeight*match.Score + sentimentConfidenceWeight*sentiment.Confidence,
		Tags:              tags,
		Metadata: domain.AuthorMeta{
			UsernameHash: authorHash,
			Upvotes:      feedback.Score,
			Permalink:    feedback.Permalink,
		},
		ProductMatchInfo: match,
		SourceSpecific:   sourceDataFor(feedback.Provenance),
	}

	c.validate(atom)
	return atom
}

func sourceDataFor(provenance domain.Provenance) domain.SourceData {
	var data domain.SourceData
	switch p := provenance.(type) {
	case domain.RedditData:
		data.Reddit = &p
	case domain.YouTubeData:
		data.YouTube = &p
	case domain.AmazonData:
		data.Amazon = &p
	}
	return data
}

// validate checks only that schema-declared required fields are present in
// the serialized atom. Failures are observable in logs; the atom is still
// returned and stored.
func (c *TrustAtomCreator) validate(atom domain.TrustAtom) {
	if len(c.requiredFields) == 0 {
		return
	}

	raw, err := json.Marshal(atom)
	if err != nil {
		c.logger.Warn("serialize atom for validation", "atom_id", atom.AtomID, "error", err)
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		c.logger.Warn("decode atom for validation", "atom_id", atom.AtomID, "error", err)
		return
	}

	for _, field := range c.requiredFields {
		if _, ok := fields[field]; !ok {
			c.logger.Warn("trust atom missing required field", "atom_id", atom.AtomID, "field", field)
		}
	}
}

func atomSuffix() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}
