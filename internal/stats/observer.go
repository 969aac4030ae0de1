package stats

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric and label names surfaced to the metrics exporter.
const (
	MetricPacketsIn  = "packets_in_total"
	MetricPacketsOut = "packets_out_total"
	MetricPacketRate = "packet_rate"
	MetricSrcStats   = "src_stats"
	MetricDstStats   = "dst_stats"

	labelHostname = "hostname"
	labelSrc      = "src"
	labelDst      = "dst"
	labelMetric   = "metric"
)

// Ranges bounds the randomized increments drawn on each observation pull.
type Ranges struct {
	SrcPacketsMin  int
	SrcPacketsMax  int
	DstPacketsMin  int
	DstPacketsMax  int
	PacketBytesMin int
	PacketBytesMax int
}

// DefaultRanges matches the simulated workload's traffic profile.
func DefaultRanges() Ranges {
	return Ranges{
		SrcPacketsMin:  50,
		SrcPacketsMax:  200,
		DstPacketsMin:  40,
		DstPacketsMax:  160,
		PacketBytesMin: 64,
		PacketBytesMax: 1200,
	}
}

// EntityObservation is one (value, label-set) measurement produced by a
// pull.
type EntityObservation struct {
	Value int64
	Attrs []attribute.KeyValue
}

// Observer is the pull side of the metrics pipeline. On each export tick
// it advances per-entity counters by bounded random increments and reports
// the new cumulative values; the exported metric name tells consumers
// whether to read it as a counter or a gauge.
type Observer struct {
	store    *Store
	rate     *RateEstimator
	hostname string
	ranges   Ranges

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewObserver creates an observer backed by the given store.
func NewObserver(store *Store, hostname string, ranges Ranges) *Observer {
	return &Observer{
		store:    store,
		rate:     NewRateEstimator(),
		hostname: hostname,
		ranges:   ranges,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// PullTotals returns the current global totals.
func (o *Observer) PullTotals() (in, out uint64) {
	return o.store.Totals()
}

// PullRate samples the combined packet total and returns packets/second
// since the previous pull.
func (o *Observer) PullRate() float64 {
	in, out := o.store.Totals()
	return o.rate.Sample(in + out)
}

// PullSources applies randomized increments to every source and returns
// one observation per (source, metric) pair carrying the new cumulative
// value.
func (o *Observer) PullSources() []EntityObservation {
	now := o.now()
	for _, name := range o.store.SourceNames() {
		packets, bytes := o.drawIncrement(o.ranges.SrcPacketsMin, o.ranges.SrcPacketsMax)
		o.store.IncrementSource(name, packets, bytes, now)
	}

	var obs []EntityObservation
	for _, e := range o.store.SnapshotSources() {
		obs = append(obs,
			EntityObservation{Value: int64(e.Packets), Attrs: o.entityAttrs(labelSrc, e.Name, "packets")},
			EntityObservation{Value: int64(e.Bytes), Attrs: o.entityAttrs(labelSrc, e.Name, "bytes")},
			EntityObservation{Value: e.LastSeen, Attrs: o.entityAttrs(labelSrc, e.Name, "last")},
		)
	}
	return obs
}

// PullDestinations applies randomized increments to every destination and
// returns the new cumulative values. Destinations carry no last-seen
// metric.
func (o *Observer) PullDestinations() []EntityObservation {
	for _, name := range o.store.DestinationNames() {
		packets, bytes := o.drawIncrement(o.ranges.DstPacketsMin, o.ranges.DstPacketsMax)
		o.store.IncrementDestination(name, packets, bytes)
	}

	var obs []EntityObservation
	for _, e := range o.store.SnapshotDestinations() {
		obs = append(obs,
			EntityObservation{Value: int64(e.Packets), Attrs: o.entityAttrs(labelDst, e.Name, "packets")},
			EntityObservation{Value: int64(e.Bytes), Attrs: o.entityAttrs(labelDst, e.Name, "bytes")},
		)
	}
	return obs
}

// RegisterWith binds the pull methods to observable instruments on the
// given meter. The exporter's periodic reader drives the callbacks on its
// own timer, concurrently with the simulation loop.
func (o *Observer) RegisterWith(meter metric.Meter) error {
	packetsIn, err := meter.Int64ObservableCounter(MetricPacketsIn,
		metric.WithDescription("Total inbound packets"))
	if err != nil {
		return err
	}
	packetsOut, err := meter.Int64ObservableCounter(MetricPacketsOut,
		metric.WithDescription("Total outbound packets"))
	if err != nil {
		return err
	}
	packetRate, err := meter.Float64ObservableGauge(MetricPacketRate,
		metric.WithDescription("Packets per second (approx)"))
	if err != nil {
		return err
	}
	srcStats, err := meter.Int64ObservableGauge(MetricSrcStats,
		metric.WithDescription("Per-source packets/bytes/last"))
	if err != nil {
		return err
	}
	dstStats, err := meter.Int64ObservableGauge(MetricDstStats,
		metric.WithDescription("Per-destination packets/bytes"))
	if err != nil {
		return err
	}

	host := metric.WithAttributes(attribute.String(labelHostname, o.hostname))
	_, err = meter.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		in, out := o.PullTotals()
		obs.ObserveInt64(packetsIn, int64(in), host)
		obs.ObserveInt64(packetsOut, int64(out), host)
		obs.ObserveFloat64(packetRate, o.PullRate(), host)
		for _, eo := range o.PullSources() {
			obs.ObserveInt64(srcStats, eo.Value, metric.WithAttributes(eo.Attrs...))
		}
		for _, eo := range o.PullDestinations() {
			obs.ObserveInt64(dstStats, eo.Value, metric.WithAttributes(eo.Attrs...))
		}
		return nil
	}, packetsIn, packetsOut, packetRate, srcStats, dstStats)
	return err
}

// drawIncrement picks a packet count in [min,max] and a byte total of
// packets times a random per-packet size.
func (o *Observer) drawIncrement(min, max int) (packets, bytes uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	pk := min + o.rng.Intn(max-min+1)
	perPacket := o.ranges.PacketBytesMin + o.rng.Intn(o.ranges.PacketBytesMax-o.ranges.PacketBytesMin+1)
	return uint64(pk), uint64(pk * perPacket)
}

func (o *Observer) entityAttrs(label, name, metricName string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(labelHostname, o.hostname),
		attribute.String(label, name),
		attribute.String(labelMetric, metricName),
	}
}
