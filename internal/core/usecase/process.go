package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/trustlayer/trustgraph/internal/core/domain"
	"github.com/trustlayer/trustgraph/internal/core/ports"
)

// PipelineOptions carries the optional side-effect collaborators. Each may be
// nil; the pipeline degrades to fan-out storage only, unobserved.
type PipelineOptions struct {
	Appender  ports.AtomAppender
	Publisher ports.AtomPublisher
	Graph     ports.GraphProjector
	Observer  ports.PipelineObserver
}

type nopObserver struct{}

func (nopObserver) CommentStarted()                                     {}
func (nopObserver) CommentFinished(domain.Source, time.Duration, error) {}
func (nopObserver) AtomCreated(domain.Source, domain.MatchMethod)       {}
func (nopObserver) StoreFailed(string)                                  {}
func (nopObserver) BatchFinished(domain.Source, time.Duration)          {}

// Pipeline runs the five stages per input item, in arrival order:
// preprocess, match, analyze, synthesize, store. It is synchronous and
// single-threaded; no stage overlaps another.
type Pipeline struct {
	preprocessor *Preprocessor
	matcher      *Matcher
	analyzer     *ContentAnalyzer
	creator      *TrustAtomCreator
	store        ports.AtomStore
	opts         PipelineOptions
	logger       *slog.Logger
}

func NewPipeline(
	preprocessor *Preprocessor,
	matcher *Matcher,
	analyzer *ContentAnalyzer,
	creator *TrustAtomCreator,
	store ports.AtomStore,
	opts PipelineOptions,
	logger *slog.Logger,
) *Pipeline {
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Pipeline{
		preprocessor: preprocessor,
		matcher:      matcher,
		analyzer:     analyzer,
		creator:      creator,
		store:        store,
		opts:         opts,
		logger:       logger,
	}
}

// ProcessRedditData turns one Reddit scrape file into stored Trust Atoms.
// Unreadable or unparseable input logs the cause and yields zero atoms; the
// batch never aborts the process.
func (p *Pipeline) ProcessRedditData(ctx context.Context, inputPath string, opts ports.BatchOptions) ([]domain.TrustAtom, error) {
	started := time.Now()

	var posts []domain.RedditPost
	if !p.loadInput(inputPath, &posts) {
		return []domain.TrustAtom{}, nil
	}

	atoms := make([]domain.TrustAtom, 0)
	for _, post := range posts {
		for _, comment := range post.Comments {
			if opts.MaxItems > 0 && len(atoms) >= opts.MaxItems {
				return p.finishBatch(inputPath, domain.SourceReddit, started, atoms), nil
			}
			if strings.TrimSpace(comment.Body) == "" {
				continue
			}
			feedback := p.preprocessor.NormalizeRedditComment(comment, post)
			atoms = append(atoms, p.run(ctx, feedback, opts))
		}
	}
	return p.finishBatch(inputPath, domain.SourceReddit, started, atoms), nil
}

// ProcessYouTubeData turns one YouTube scrape file into stored Trust Atoms,
// with the same degrade-only error behavior as the Reddit entry point.
func (p *Pipeline) ProcessYouTubeData(ctx context.Context, inputPath string, opts ports.BatchOptions) ([]domain.TrustAtom, error) {
	started := time.Now()

	var videos []domain.YouTubeVideo
	if !p.loadInput(inputPath, &videos) {
		return []domain.TrustAtom{}, nil
	}

	atoms := make([]domain.TrustAtom, 0)
	for _, video := range videos {
		for _, comment := range video.Comments {
			if opts.MaxItems > 0 && len(atoms) >= opts.MaxItems {
				return p.finishBatch(inputPath, domain.SourceYouTube, started, atoms), nil
			}
			if strings.TrimSpace(comment.Text) == "" {
				continue
			}
			feedback := p.preprocessor.NormalizeYouTubeComment(comment, video)
			atoms = append(atoms, p.run(ctx, feedback, opts))
		}
	}
	return p.finishBatch(inputPath, domain.SourceYouTube, started, atoms), nil
}

// ProcessComment runs a single ad-hoc comment through the pipeline.
func (p *Pipeline) ProcessComment(ctx context.Context, text string, source domain.Source, meta ports.CommentMeta) (*domain.TrustAtom, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process comment", errors.New("empty comment text"))
	}
	if source == "" {
		source = domain.SourceUnknown
	}

	feedback := domain.Feedback{
		Text:             p.preprocessor.CleanText(text),
		Source:           source,
		Timestamp:        meta.Timestamp,
		AuthorHash:       p.preprocessor.AnonymizeHandle(meta.Author),
		Score:            meta.Score,
		Permalink:        meta.Permalink,
		AccountAgeDays:   meta.AccountAgeDays,
		VerifiedPurchase: meta.VerifiedPurchase,
	}

	atom := p.run(ctx, feedback, ports.BatchOptions{})
	return &atom, nil
}

// run executes stages two through five for one envelope. The stages are
// total; only persistence can misbehave, and that degrades to logged partial
// writes.
func (p *Pipeline) run(ctx context.Context, feedback domain.Feedback, opts ports.BatchOptions) domain.TrustAtom {
	p.opts.Observer.CommentStarted()
	started := time.Now()

	match := p.matcher.MatchProduct(ctx, feedback.Text)
	sentiment := p.analyzer.AnalyzeSentiment(feedback.Text)
	summary := p.analyzer.GenerateSummary(ctx, feedback.Text)

	category := "unknown"
	if match.Matched() {
		category = domain.CategoryFor(match.ProductID)
	}
	tags := p.analyzer.ExtractTags(feedback.Text, category)
	authenticity := p.analyzer.Authenticity(feedback)

	atom := p.creator.Create(feedback, match, sentiment, tags, summary, authenticity)
	persistErr := p.persist(ctx, atom, opts)

	p.opts.Observer.AtomCreated(atom.Source, match.Method)
	p.opts.Observer.CommentFinished(feedback.Source, time.Since(started), persistErr)
	return atom
}

func (p *Pipeline) persist(ctx context.Context, atom domain.TrustAtom, opts ports.BatchOptions) error {
	var firstErr error

	if opts.OutputPath != "" && p.opts.Appender != nil {
		if err := p.opts.Appender.Append(ctx, atom, opts.OutputPath); err != nil {
			p.logger.Error("append atom to output file", "atom_id", atom.AtomID, "path", opts.OutputPath, "error", err)
			p.opts.Observer.StoreFailed("output_file")
			firstErr = err
		}
	} else {
		receipt := p.store.StoreAll(ctx, atom)
		if !receipt.AllStored() {
			p.logger.Warn("partial fan-out store",
				"atom_id", atom.AtomID,
				"category", receipt.Category,
				"source", receipt.Source,
				"product", receipt.Product,
			)
			for destination, stored := range map[string]bool{
				"category": receipt.Category,
				"source":   receipt.Source,
				"product":  receipt.Product,
			} {
				if !stored {
					p.opts.Observer.StoreFailed(destination)
				}
			}
			firstErr = errors.New("partial fan-out store")
		}
	}

	if p.opts.Publisher != nil {
		if err := p.opts.Publisher.PublishAtomCreated(ctx, atom.AtomID); err != nil {
			p.logger.Warn("publish atom created", "atom_id", atom.AtomID, "error", err)
		}
	}
	if p.opts.Graph != nil {
		if err := p.opts.Graph.MirrorAtom(ctx, atom); err != nil {
			p.logger.Warn("mirror atom into graph", "atom_id", atom.AtomID, "error", err)
		}
	}
	return firstErr
}

func (p *Pipeline) loadInput(inputPath string, out any) bool {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		p.logger.Error("read batch input", "path", inputPath, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		p.logger.Error("parse batch input", "path", inputPath, "error", err)
		return false
	}
	return true
}

func (p *Pipeline) finishBatch(inputPath string, source domain.Source, started time.Time, atoms []domain.TrustAtom) []domain.TrustAtom {
	p.opts.Observer.BatchFinished(source, time.Since(started))
	p.logger.Info("batch complete", "path", inputPath, "source", string(source), "atoms", len(atoms))
	return atoms
}
