package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(storeMutationsTotal, persistWritesTotal) }

var storeMutationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatui_store_mutations_total",
		Help: "Completed store mutations by operation.",
	},
	[]string{"op"}, // e.g., op="add_message"
)

var persistWritesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "chatui_persist_writes_total",
		Help: "Snapshot writes by storage backend and result.",
	},
	[]string{"backend", "result"},
)

// IncMutation counts one store mutation
func IncMutation(op string) {
	storeMutationsTotal.WithLabelValues(norm(op)).Inc()
}

// IncPersistWrite counts one snapshot write attempt
func IncPersistWrite(backend string, ok bool) {
	persistWritesTotal.WithLabelValues(norm(backend), result(ok)).Inc()
}

// MutationCount returns the counter for op. Intended for tests and the
// status line of the TUI.
func MutationCount(op string) prometheus.Counter {
	return storeMutationsTotal.WithLabelValues(norm(op))
}

// PersistWriteCount returns the counter for backend and result.
func PersistWriteCount(backend string, ok bool) prometheus.Counter {
	return persistWritesTotal.WithLabelValues(norm(backend), result(ok))
}
