// Simulator orchestrating batch processing and correlated record emission
package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"packetops-sim/internal/config"
	"packetops-sim/internal/logging"
	"packetops-sim/internal/stats"
	"packetops-sim/internal/telemetry"
)

// RecordWriter is an interface to support different record sinks.
type RecordWriter interface {
	Write(telemetry.FlowRecord) error
}

// Optional: writers can also support batch mode.
type batchRecordWriter interface {
	WriteBatch([]telemetry.FlowRecord) error
}

// packetSize is the byte count one packet accounts for when item sizes
// are converted into packet totals.
const packetSize = 512

// Span names exported per batch.
const (
	spanBatch     = "process_batch"
	spanIngest    = "ingest"
	spanTransform = "transform"
	spanStore     = "store"
)

// Simulator drives the batch loop: one root span per iteration, a random
// burst of items inside it, one record per item written through the sink.
type Simulator struct {
	hostname      string
	cfg           *config.SimulationConfig
	tracer        trace.Tracer
	store         *stats.Store
	writer        RecordWriter
	tickInterval  time.Duration
	stageDelayMax time.Duration

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulator wires the loop against a store and a record sink.
func NewSimulator(cfg *config.SimulationConfig, store *stats.Store, writer RecordWriter, tracer trace.Tracer, tickInterval time.Duration) *Simulator {
	return &Simulator{
		hostname:      cfg.Hostname,
		cfg:           cfg,
		tracer:        tracer,
		store:         store,
		writer:        writer,
		tickInterval:  tickInterval,
		stageDelayMax: time.Duration(cfg.Batch.StageDelayMaxMS) * time.Millisecond,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		now:           time.Now,
	}
}

// Run starts the simulation loop and stops when the context is done. The
// iteration in flight finishes before Run returns, so records are never
// truncated mid-write.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "tick_interval", s.tickInterval)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}

// tick runs one batch with a random item count. Failures inside a batch
// are logged and never abort subsequent iterations.
func (s *Simulator) tick(ctx context.Context) {
	s.mu.Lock()
	count := s.cfg.Batch.MinItems + s.rng.Intn(s.cfg.Batch.MaxItems-s.cfg.Batch.MinItems+1)
	s.mu.Unlock()
	s.RunBatch(ctx, count)
}

// RunBatch processes count items under one process_batch root span. Every
// record emitted inside it carries the root's trace ID.
func (s *Simulator) RunBatch(ctx context.Context, count int) {
	log := logging.FromContext(ctx)

	ctx, root := s.tracer.Start(ctx, spanBatch,
		trace.WithAttributes(attribute.String("hostname", s.hostname)))
	defer root.End()

	var batchLatencyMS int64
	for i := 0; i < count; i++ {
		latencyMS, err := s.processItem(ctx)
		batchLatencyMS += latencyMS
		if err != nil {
			log.Error("record write failed", "err", err)
		}
	}

	root.SetAttributes(
		attribute.Int("batch.size", count),
		attribute.Int64("batch.latency_ms", batchLatencyMS),
	)
}

// processItem runs the ingest/transform/store stages for one simulated
// item, updates the global totals, and emits one correlated record. The
// returned error is a sink write failure; the item itself cannot fail.
func (s *Simulator) processItem(ctx context.Context) (int64, error) {
	s.mu.Lock()
	src := s.cfg.Sources[s.rng.Intn(len(s.cfg.Sources))]
	dst := s.cfg.Destinations[s.rng.Intn(len(s.cfg.Destinations))]
	size := s.cfg.Batch.SizeMinBytes + s.rng.Intn(s.cfg.Batch.SizeMaxBytes-s.cfg.Batch.SizeMinBytes+1)
	status := telemetry.StatusOK
	if s.rng.Float64() < s.cfg.Batch.ErrorRatio {
		status = telemetry.StatusError
	}
	s.mu.Unlock()

	start := s.now()
	s.runStage(ctx, spanIngest)
	s.runStage(ctx, spanTransform)
	s.runStage(ctx, spanStore)
	latencyMS := s.now().Sub(start).Milliseconds()

	packets := uint64(size / packetSize)
	s.store.AddTotals(packets, packets)

	rec := telemetry.FlowRecord{
		Timestamp: s.now().UTC(),
		Level:     telemetry.LevelFor(status),
		Hostname:  s.hostname,
		Src:       src,
		Dst:       dst,
		Bytes:     size,
		LatencyMS: latencyMS,
		Status:    status,
		Msg:       "processed message",
	}
	if id, ok := telemetry.TraceIDFromContext(ctx); ok {
		rec.TraceID = &id
	}
	return latencyMS, s.writer.Write(rec)
}

// runStage opens a child span for one processing stage and closes it on
// every exit path. Children always close before the enclosing batch span.
func (s *Simulator) runStage(ctx context.Context, name string) {
	_, span := s.tracer.Start(ctx, name)
	defer span.End()

	if s.stageDelayMax > 0 {
		s.mu.Lock()
		d := time.Duration(s.rng.Int63n(int64(s.stageDelayMax)))
		s.mu.Unlock()
		time.Sleep(d)
	}
}
