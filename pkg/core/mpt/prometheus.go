package mpt

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	// commits prometheus metric.
	commits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie commits",
			Name:      "commits_total",
			Namespace: "mptdb",
			Subsystem: "trie",
		},
	)
	// committedNodes prometheus metric.
	committedNodes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of nodes written by trie commits",
			Name:      "committed_nodes_total",
			Namespace: "mptdb",
			Subsystem: "trie",
		},
	)
	// releasedRefs prometheus metric.
	releasedRefs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of node references released by trie commits",
			Name:      "released_references_total",
			Namespace: "mptdb",
			Subsystem: "trie",
		},
	)
	// cacheHits prometheus metric.
	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of node cache hits",
			Name:      "node_cache_hits_total",
			Namespace: "mptdb",
			Subsystem: "trie",
		},
	)
)

func init() {
	prometheus.MustRegister(
		commits,
		committedNodes,
		releasedRefs,
		cacheHits,
	)
}
