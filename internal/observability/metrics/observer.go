package metrics

import (
	"time"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

// Observer adapts PipelineMetrics to the pipeline's observer port, binding
// the service label once.
type Observer struct {
	service string
	metrics *PipelineMetrics
}

func NewObserver(service string, metrics *PipelineMetrics) *Observer {
	return &Observer{service: service, metrics: metrics}
}

func (o *Observer) CommentStarted() {
	o.metrics.StartComment()
}

func (o *Observer) CommentFinished(source domain.Source, duration time.Duration, err error) {
	o.metrics.FinishComment(o.service, string(source), duration, err)
}

func (o *Observer) AtomCreated(source domain.Source, method domain.MatchMethod) {
	o.metrics.RecordAtomCreated(o.service, string(source))
	o.metrics.RecordMatchMethod(o.service, string(method))
	if method == domain.MethodFallback {
		o.metrics.RecordUnresolvedMention(o.service)
	}
}

func (o *Observer) StoreFailed(destination string) {
	o.metrics.RecordStoreFailure(o.service, destination)
}

func (o *Observer) BatchFinished(source domain.Source, duration time.Duration) {
	o.metrics.ObserveBatch(o.service, string(source), duration)
}
