package ports

import (
	"context"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

// BatchOptions tunes one batch run.
type BatchOptions struct {
	// OutputPath redirects all atoms of the batch into one flat JSON file
	// instead of fan-out storage. Kept for backward compatibility with the
	// single-file plugin data format.
	OutputPath string
	// MaxItems caps the number of comments processed; 0 means unlimited.
	MaxItems int
}

// CommentMeta carries caller-supplied metadata for ad-hoc comments.
type CommentMeta struct {
	Timestamp        string
	Author           string
	Score            int
	Permalink        string
	AccountAgeDays   int
	VerifiedPurchase bool
}

// FeedbackProcessor is the inbound contract for turning raw feedback into
// stored Trust Atoms.
type FeedbackProcessor interface {
	ProcessRedditData(ctx context.Context, inputPath string, opts BatchOptions) ([]domain.TrustAtom, error)
	ProcessYouTubeData(ctx context.Context, inputPath string, opts BatchOptions) ([]domain.TrustAtom, error)
	ProcessComment(ctx context.Context, text string, source domain.Source, meta CommentMeta) (*domain.TrustAtom, error)
}

// AtomReader is the inbound read model over stored atoms.
type AtomReader interface {
	AtomsByProduct(ctx context.Context, productID string) ([]domain.TrustAtom, error)
	AtomsBySource(ctx context.Context, source domain.Source) ([]domain.TrustAtom, error)
	AtomsByCategory(ctx context.Context, category string) ([]domain.TrustAtom, error)
}
