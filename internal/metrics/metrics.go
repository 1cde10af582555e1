// Package metrics wires the process-wide Prometheus registry referenced by
// spec.md's ambient stack, grounded on original_source's prometheus_client
// instrumentation of the mempool and on the teacher's apps/cosmos module's
// transitive use of github.com/prometheus/client_golang (promoted here to a
// direct dependency since it now has concrete, exercised components).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Mempool holds the gauges/counters original_source's mempool.rs registers:
// unique transaction count, distinct-account count, rejected/trimmed
// counters.
type Mempool struct {
	unique   prometheus.Gauge
	accounts prometheus.Gauge
	rejected prometheus.Counter
	trimmed  prometheus.Counter
}

func NewMempool(reg prometheus.Registerer) *Mempool {
	m := &Mempool{
		unique: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "casino_mempool_transactions",
			Help: "Number of transactions in the mempool.",
		}),
		accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "casino_mempool_accounts",
			Help: "Number of distinct accounts with pending transactions.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casino_mempool_rejected_total",
			Help: "Number of transactions rejected due to mempool limits.",
		}),
		trimmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casino_mempool_trimmed_total",
			Help: "Number of transactions trimmed due to per-account backlog limits.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.unique, m.accounts, m.rejected, m.trimmed)
	}
	return m
}

func (m *Mempool) SetUnique(v int)   { m.unique.Set(float64(v)) }
func (m *Mempool) SetAccounts(v int) { m.accounts.Set(float64(v)) }
func (m *Mempool) IncRejected()      { m.rejected.Inc() }
func (m *Mempool) IncTrimmed()       { m.trimmed.Inc() }

// Layer holds per-block execution timing/counters.
type Layer struct {
	blocksExecuted  prometheus.Counter
	txExecuted      prometheus.Counter
	txFailed        prometheus.Counter
	execDuration    prometheus.Histogram
}

func NewLayer(reg prometheus.Registerer) *Layer {
	l := &Layer{
		blocksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casino_layer_blocks_executed_total",
			Help: "Number of blocks executed by the Layer.",
		}),
		txExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casino_layer_tx_executed_total",
			Help: "Number of transactions successfully executed.",
		}),
		txFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casino_layer_tx_failed_total",
			Help: "Number of transactions that returned a CasinoError.",
		}),
		execDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "casino_layer_block_exec_seconds",
			Help: "Wall-clock time spent executing one block.",
		}),
	}
	if reg != nil {
		reg.MustRegister(l.blocksExecuted, l.txExecuted, l.txFailed, l.execDuration)
	}
	return l
}

func (l *Layer) ObserveBlock(seconds float64, txOK, txFailed int) {
	l.blocksExecuted.Inc()
	l.execDuration.Observe(seconds)
	for i := 0; i < txOK; i++ {
		l.txExecuted.Inc()
	}
	for i := 0; i < txFailed; i++ {
		l.txFailed.Inc()
	}
}

// Storage holds block-storage I/O counters.
type Storage struct {
	writes prometheus.Counter
	reads  prometheus.Counter
	errors prometheus.Counter
}

func NewStorage(reg prometheus.Registerer) *Storage {
	s := &Storage{
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casino_storage_writes_total",
			Help: "Number of block/receipt writes to the storage backend.",
		}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casino_storage_reads_total",
			Help: "Number of block/receipt reads from the storage backend.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casino_storage_errors_total",
			Help: "Number of storage I/O errors.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.writes, s.reads, s.errors)
	}
	return s
}

func (s *Storage) IncWrites() { s.writes.Inc() }
func (s *Storage) IncReads()  { s.reads.Inc() }
func (s *Storage) IncErrors() { s.errors.Inc() }
