package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/corner-25/test-umc-sub000/core/audit"
	"github.com/corner-25/test-umc-sub000/core/events"
	"github.com/corner-25/test-umc-sub000/core/logger"
	"github.com/corner-25/test-umc-sub000/core/metrics"
	"github.com/corner-25/test-umc-sub000/core/model"
	"github.com/corner-25/test-umc-sub000/core/monitoring"
	"github.com/corner-25/test-umc-sub000/core/tripstore"
	inflog "github.com/corner-25/test-umc-sub000/infra/logger"
	"github.com/corner-25/test-umc-sub000/internal/eventbus"
)

// Pipeline reads a source, normalises it, stores the trips and tells the
// rest of the service about it.
type Pipeline struct {
	parser *Parser
	store  tripstore.Store
	audit  audit.Store
	bus    *eventbus.TypedBus[events.IngestEvent]
	sink   metrics.Sink
	log    logger.Logger
	now    func() time.Time
}

// Option customises a Pipeline.
type Option func(*Pipeline)

func WithAudit(s audit.Store) Option { return func(p *Pipeline) { p.audit = s } }

func WithBus(b *eventbus.TypedBus[events.IngestEvent]) Option {
	return func(p *Pipeline) { p.bus = b }
}

func WithSink(s metrics.Sink) Option { return func(p *Pipeline) { p.sink = s } }

func WithLogger(l logger.Logger) Option { return func(p *Pipeline) { p.log = l } }

// NewPipeline wires parser and store. Audit, bus, sink and logger default
// to no-op implementations.
func NewPipeline(parser *Parser, store tripstore.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		parser: parser,
		store:  store,
		audit:  audit.NewMemoryStore(),
		sink:   metrics.NopSink{},
		log:    inflog.NopLogger{},
		now:    time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run imports src on behalf of the service itself.
func (p *Pipeline) Run(ctx context.Context, src Source) (model.Batch, error) {
	return p.RunAs(ctx, src, "")
}

// RunAs imports src and records user in the audit trail.
func (p *Pipeline) RunAs(ctx context.Context, src Source, user string) (model.Batch, error) {
	start := p.now()
	batch, trips, err := p.run(ctx, src)
	took := p.now().Sub(start)

	rec := audit.Record{
		Time:       start.UTC(),
		Source:     src.Name(),
		BatchID:    batch.ID,
		User:       user,
		Rows:       batch.Rows,
		Accepted:   batch.Accepted,
		Rejected:   batch.Rejected,
		IssueCount: len(batch.Issues),
		Took:       took,
	}
	res := metrics.IngestResult{
		Source:   src.Name(),
		Rows:     batch.Rows,
		Accepted: batch.Accepted,
		Rejected: batch.Rejected,
		Issues:   batch.IssueCounts(),
		Took:     took,
		Failed:   err != nil,
		Time:     start,
	}
	if err != nil {
		rec.Error = err.Error()
		p.log.Errorf("ingest %s failed: %v", src.Name(), err)
		monitoring.CaptureException(err, map[string]string{"component": "ingest", "source": src.Name()})
	} else {
		p.log.Infow("ingest completed", map[string]any{
			"source":   src.Name(),
			"batch_id": batch.ID,
			"rows":     batch.Rows,
			"accepted": batch.Accepted,
			"rejected": batch.Rejected,
			"issues":   len(batch.Issues),
			"took_ms":  took.Milliseconds(),
		})
	}
	if aerr := p.audit.Append(ctx, rec); aerr != nil {
		p.log.Warnf("audit append: %v", aerr)
	}
	if merr := p.sink.RecordIngest(res); merr != nil {
		p.log.Warnf("ingest metrics: %v", merr)
	}
	if p.bus != nil {
		ev := events.IngestEvent{Source: src.Name(), Took: took, Err: err}
		if err == nil {
			ev.Batch, ev.Trips = batch, trips
		}
		p.bus.Publish(ev)
	}
	if err != nil {
		return model.Batch{}, err
	}
	return batch, nil
}

func (p *Pipeline) run(ctx context.Context, src Source) (model.Batch, []model.Trip, error) {
	tbl, err := src.Read(ctx)
	if err != nil {
		return model.Batch{}, nil, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	batch, trips, err := p.parser.Parse(tbl)
	if err != nil {
		return model.Batch{}, nil, err
	}
	if err := p.store.SaveBatch(ctx, batch, trips); err != nil {
		return model.Batch{}, nil, fmt.Errorf("store batch %s: %w", batch.ID, err)
	}
	return batch, trips, nil
}
