package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/happybigmtn/nullspace/internal/codec"
	"github.com/happybigmtn/nullspace/internal/mempool"
	"github.com/happybigmtn/nullspace/internal/metrics"
)

// BackpressurePolicy selects what Ingestor.Submit does when the inbox is
// full, per spec.md §5's "bounded channels... configurable policy: block or
// drop" rule.
type BackpressurePolicy int

const (
	// PolicyBlock awaits capacity, preserving delivery ordering.
	PolicyBlock BackpressurePolicy = iota
	// PolicyDrop sheds the incoming transaction and increments a counter.
	PolicyDrop
)

// Ingestor is the mempool actor: an inbox of transactions fed by network or
// indexer ingestion, drained into internal/mempool.Mempool by a single
// goroutine. The mempool owns its own mutex and gauges already, so this
// actor's job is purely to apply backpressure (counting drops under
// PolicyDrop), matching spec.md
// §5's "no state shared via locks except for observability counters."
type Ingestor struct {
	pool    *mempool.Mempool
	metrics *metrics.Mempool
	policy  BackpressurePolicy
	log     *logrus.Entry

	inbox chan codec.Transaction
}

// NewIngestor builds an Ingestor with a mailbox of the given size.
func NewIngestor(pool *mempool.Mempool, m *metrics.Mempool, mailboxSize int, policy BackpressurePolicy, log *logrus.Entry) *Ingestor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Ingestor{
		pool:    pool,
		metrics: m,
		policy:  policy,
		log:     log.WithField("component", "engine.ingestor"),
		inbox:   make(chan codec.Transaction, mailboxSize),
	}
}

// Submit enqueues tx for eventual mempool admission. Under PolicyBlock it
// waits for room or for stop to close (returning false in the latter case);
// under PolicyDrop it enqueues immediately or reports the drop.
func (ig *Ingestor) Submit(tx codec.Transaction, stop <-chan struct{}) (accepted bool) {
	switch ig.policy {
	case PolicyDrop:
		select {
		case ig.inbox <- tx:
			return true
		default:
			if ig.metrics != nil {
				ig.metrics.IncRejected()
			}
			return false
		}
	default:
		select {
		case ig.inbox <- tx:
			return true
		case <-stop:
			return false
		}
	}
}

// Run drains the inbox into the mempool until stop closes. The mempool
// itself owns gauge/counter updates for everything past admission (it was
// built with the same *metrics.Mempool); this loop only applies the tx.
func (ig *Ingestor) Run(stop <-chan struct{}) error {
	for {
		select {
		case tx := <-ig.inbox:
			ig.pool.Add(tx, time.Now().UnixMilli())
		case <-stop:
			ig.log.Info("ingestor stopping")
			return nil
		}
	}
}
