package wipclient

import "github.com/prometheus/client_golang/prometheus"

// metricsSet mirrors the small, namespaced counter set the example this
// module's metrics style is grounded on keeps next to its connection
// lifecycle: one counter per event, registered once per process against
// the default registerer. The request and error counters are labeled by
// operation; the transaction, checksum and auth counters are unlabeled.
type metricsSet struct {
	requestsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec

	transactionsOpened  prometheus.Counter
	transactionsTimedOut prometheus.Counter
	checksumFailures    prometheus.Counter
	authFailures        prometheus.Counter
}

var (
	requestsTotalVec = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wip",
		Name:      "client_requests_total",
		Help:      "Total WIP client requests, labeled by operation.",
	}, []string{"operation"})

	errorsTotalVec = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wip",
		Name:      "client_errors_total",
		Help:      "Total WIP client request failures, labeled by operation.",
	}, []string{"operation"})

	transactionsOpenedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wip",
		Subsystem: "transaction",
		Name:      "opened_total",
		Help:      "Total UDP request/response transactions opened.",
	})

	transactionsTimedOutTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wip",
		Subsystem: "transaction",
		Name:      "timed_out_total",
		Help:      "Total transactions that never saw a matching packet_id before their deadline.",
	})

	checksumFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wip",
		Subsystem: "transaction",
		Name:      "checksum_failures_total",
		Help:      "Total responses discarded for failing the 12-bit checksum.",
	})

	authFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "wip",
		Subsystem: "transaction",
		Name:      "auth_failures_total",
		Help:      "Total responses rejected for a missing or invalid AuthHash.",
	})
)

func init() {
	prometheus.MustRegister(
		requestsTotalVec,
		errorsTotalVec,
		transactionsOpenedTotal,
		transactionsTimedOutTotal,
		checksumFailuresTotal,
		authFailuresTotal,
	)
}

func newMetricsSet() *metricsSet {
	return &metricsSet{
		requestsTotal:        requestsTotalVec,
		errorsTotal:          errorsTotalVec,
		transactionsOpened:   transactionsOpenedTotal,
		transactionsTimedOut: transactionsTimedOutTotal,
		checksumFailures:     checksumFailuresTotal,
		authFailures:         authFailuresTotal,
	}
}
