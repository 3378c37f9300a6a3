package domain

// UnknownProduct is the sentinel product ID assigned when matching resolves
// to no registry entry.
const UnknownProduct = "unknown_product"

type MatchMethod string

const (
	MethodExactAlias        MatchMethod = "exact_alias"
	MethodFuzzyBrandProduct MatchMethod = "fuzzy_brand_product"
	MethodSemantic          MatchMethod = "semantic_similarity"
	MethodFallback          MatchMethod = "fallback"
)

// MatchResult is the outcome of one matching call. It is built once and never
// mutated afterward. The resolved product ID is surfaced at the atom level,
// not in the persisted match block.
type MatchResult struct {
	ProductID    string             `json:"-"`
	Method       MatchMethod        `json:"match_method"`
	Score        float64            `json:"match_score"`
	Alternatives []AlternativeMatch `json:"alternative_matches"`
	Context      ContextFactors     `json:"context_factors"`
}

// Matched reports whether the call resolved to a registry product.
func (m MatchResult) Matched() bool {
	return m.ProductID != ""
}

type AlternativeMatch struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
}

// ContextFactors records which registry signals literally appear in the input
// text. They are computed for every result, fallback included, to aid
// registry curation.
type ContextFactors struct {
	BrandMentioned       bool `json:"brand_mentioned"`
	ProductTypeMentioned bool `json:"product_type_mentioned"`
	IdentifierMentioned  bool `json:"identifier_mentioned"`
}

// AuthorMeta is the anonymized-author block of a Trust Atom. The raw handle
// never leaves the preprocessor.
type AuthorMeta struct {
	UsernameHash string `json:"username_hash"`
	Upvotes      int    `json:"upvotes"`
	Permalink    string `json:"permalink"`
}

// SourceData holds at most one per-source provenance block, keyed by source
// in the persisted form. Unknown sources carry none.
type SourceData struct {
	Reddit  *RedditData  `json:"reddit_data,omitempty"`
	YouTube *YouTubeData `json:"youtube_data,omitempty"`
	Amazon  *AmazonData  `json:"amazon_data,omitempty"`
}

// TrustAtom is the persisted unit linking one piece of feedback to a product,
// a sentiment classification and a fused confidence score. Atoms are
// immutable once created: storage appends, never edits or deletes.
type TrustAtom struct {
	AtomID            string      `json:"atom_id"`
	ProductID         string      `json:"product_id"`
	Source            Source      `json:"source"`
	Timestamp         string      `json:"timestamp"`
	FeedbackText      string      `json:"feedback_text"`
	SummaryText       string      `json:"summary_text"`
	SentimentLabel    Sentiment   `json:"sentiment_label"`
	AuthenticityScore float64     `json:"authenticity_score"`
	ConfidenceScore   float64     `json:"confidence_score"`
	Tags              []string    `json:"tags"`
	Metadata          AuthorMeta  `json:"metadata"`
	ProductMatchInfo  MatchResult `json:"product_match_info"`
	SourceSpecific    SourceData  `json:"source_specific_data"`
}

// StoreReceipt reports per-destination success of a fan-out write. Partial
// fan-out is observable, not fatal.
type StoreReceipt struct {
	Category bool
	Source   bool
	Product  bool
}

func (r StoreReceipt) AllStored() bool {
	return r.Category && r.Source && r.Product
}

// MentionStatusUnprocessed marks a freshly logged unresolved mention awaiting
// registry curation.
const MentionStatusUnprocessed = "unprocessed"

// Mention is one unresolved-mention log entry.
type Mention struct {
	MentionText string `json:"mention_text"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status"`
}
