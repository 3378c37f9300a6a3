package ports

import (
	"context"
	"time"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

// AtomStore fans one atom out into independent keyed collections and reads
// them back. Implementations append only; a stored atom is never edited or
// deleted through this interface.
type AtomStore interface {
	StoreAll(ctx context.Context, atom domain.TrustAtom) domain.StoreReceipt
	AtomsByProduct(ctx context.Context, productID string) ([]domain.TrustAtom, error)
	AtomsBySource(ctx context.Context, source domain.Source) ([]domain.TrustAtom, error)
	AtomsByCategory(ctx context.Context, category string) ([]domain.TrustAtom, error)
}

// AtomAppender appends atoms to one flat collection file, the
// backward-compatible alternative to fan-out storage.
type AtomAppender interface {
	Append(ctx context.Context, atom domain.TrustAtom, path string) error
}

// MentionLog records product mentions that matched nothing, as input for
// registry curation.
type MentionLog interface {
	LogUnresolved(ctx context.Context, mention domain.Mention) error
}

// Summarizer is an external summarization capability. Any error makes the
// analyzer fall back to its rule-based method.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxWords int) (string, error)
}

// AtomPublisher notifies downstream consumers about newly created atoms.
type AtomPublisher interface {
	PublishAtomCreated(ctx context.Context, atomID string) error
}

// GraphProjector mirrors stored atoms into a product graph.
type GraphProjector interface {
	MirrorAtom(ctx context.Context, atom domain.TrustAtom) error
}

// PipelineObserver receives processing events for instrumentation. Methods
// must be cheap; they run inline with the pipeline.
type PipelineObserver interface {
	CommentStarted()
	CommentFinished(source domain.Source, duration time.Duration, err error)
	AtomCreated(source domain.Source, method domain.MatchMethod)
	StoreFailed(destination string)
	BatchFinished(source domain.Source, duration time.Duration)
}

// MatchStrategy is one stage of the staged matching policy, tried in order
// until a stage accepts. Attempt reports ok only when the stage's own
// acceptance threshold is met.
type MatchStrategy interface {
	Method() domain.MatchMethod
	Attempt(text string) (productID string, score float64, ok bool)
}
