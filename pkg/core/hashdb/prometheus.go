package hashdb

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	// nodeReads prometheus metric.
	nodeReads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes read from the node database",
			Name:      "node_reads_total",
			Namespace: "mptdb",
			Subsystem: "hashdb",
		},
	)
	// nodeWrites prometheus metric.
	nodeWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie node references added to the node database",
			Name:      "node_writes_total",
			Namespace: "mptdb",
			Subsystem: "hashdb",
		},
	)
	// nodeRemovals prometheus metric.
	nodeRemovals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes physically deleted from the node database",
			Name:      "node_removals_total",
			Namespace: "mptdb",
			Subsystem: "hashdb",
		},
	)
)

func init() {
	prometheus.MustRegister(
		nodeReads,
		nodeWrites,
		nodeRemovals,
	)
}
