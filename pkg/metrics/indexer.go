// Package metrics instruments chain adapters with Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/celestiaorg/hyperlane-chains/pkg/core"
)

// Failure classes used as the "class" label.
const (
	ClassCommunication = "communication"
	ClassDecode        = "decode"
	ClassOther         = "other"
)

// IndexerMetrics holds the collectors shared by every instrumented indexer. The chain
// label separates indexers of different chains.
type IndexerMetrics struct {
	requestDuration *prometheus.HistogramVec
	events          *prometheus.CounterVec
	failures        *prometheus.CounterVec
	tipHeight       *prometheus.GaugeVec
}

// NewIndexerMetrics creates the indexer collectors and registers them with reg.
func NewIndexerMetrics(reg prometheus.Registerer) (*IndexerMetrics, error) {
	m := &IndexerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hyperlane_indexer_request_duration_seconds",
				Help:    "Latency of indexer requests by chain and method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"chain", "method"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hyperlane_indexer_events_total",
				Help: "Events returned by the indexer by chain and kind",
			},
			[]string{"chain", "kind"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hyperlane_indexer_failures_total",
				Help: "Failed indexer requests by chain, method and failure class",
			},
			[]string{"chain", "method", "class"},
		),
		tipHeight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hyperlane_indexer_tip_height",
				Help: "Last chain head observed by the indexer",
			},
			[]string{"chain"},
		),
	}

	for _, c := range []prometheus.Collector{m.requestDuration, m.events, m.failures, m.tipHeight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Instrument wraps indexer so its requests are observed under chain.
func (m *IndexerMetrics) Instrument(chain string, indexer core.OutboxIndexer) *InstrumentedIndexer {
	return &InstrumentedIndexer{inner: indexer, chain: chain, metrics: m}
}

// InstrumentedIndexer is a core.OutboxIndexer that records latency, event counts and
// failures of the indexer it wraps. Results pass through unchanged.
type InstrumentedIndexer struct {
	inner   core.OutboxIndexer
	chain   string
	metrics *IndexerMetrics
}

var _ core.OutboxIndexer = (*InstrumentedIndexer)(nil)

func (i *InstrumentedIndexer) GetBlockNumber(ctx context.Context) (uint32, error) {
	done := i.observe("get_block_number")
	height, err := i.inner.GetBlockNumber(ctx)
	done(err)
	if err == nil {
		i.metrics.tipHeight.WithLabelValues(i.chain).Set(float64(height))
	}
	return height, err
}

func (i *InstrumentedIndexer) FetchSortedCheckpoints(ctx context.Context, from, to uint32) ([]core.CheckpointWithMeta, error) {
	done := i.observe("fetch_sorted_checkpoints")
	checkpoints, err := i.inner.FetchSortedCheckpoints(ctx, from, to)
	done(err)
	if err == nil {
		i.metrics.events.WithLabelValues(i.chain, "checkpoint").Add(float64(len(checkpoints)))
	}
	return checkpoints, err
}

func (i *InstrumentedIndexer) FetchSortedMessages(ctx context.Context, from, to uint32) ([]core.RawCommittedMessage, error) {
	done := i.observe("fetch_sorted_messages")
	messages, err := i.inner.FetchSortedMessages(ctx, from, to)
	done(err)
	if err == nil {
		i.metrics.events.WithLabelValues(i.chain, "message").Add(float64(len(messages)))
	}
	return messages, err
}

func (i *InstrumentedIndexer) observe(method string) func(error) {
	start := time.Now()
	return func(err error) {
		i.metrics.requestDuration.WithLabelValues(i.chain, method).Observe(time.Since(start).Seconds())
		if err != nil {
			i.metrics.failures.WithLabelValues(i.chain, method, Classify(err)).Inc()
		}
	}
}

// Classify maps an adapter error to its failure class. A decode failure wins over a
// communication failure it was wrapped in.
func Classify(err error) string {
	switch {
	case errors.Is(err, core.ErrDecode):
		return ClassDecode
	case errors.Is(err, core.ErrChainCommunication):
		return ClassCommunication
	default:
		return ClassOther
	}
}
