// Package metrics defines and registers all custom Prometheus metrics for the
// logbook service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// init (promauto); HTTP-level metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "logbook"

// ── RPC metrics ───────────────────────────────────────────────────────────────

// RPCRequestsTotal counts dispatched actions.
// Labels:
//   - action: the envelope action (e.g. "create"), or "unknown"
//   - outcome: "ok" or the error class (e.g. "access_denied", "internal")
var RPCRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "Total number of dispatched RPC actions, by action and outcome.",
	},
	[]string{"action", "outcome"},
)

// RPCDuration measures how long a single action takes inside the dispatcher.
var RPCDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "Duration of RPC action handling.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"action"},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// AccountsRegisteredTotal counts created accounts.
// Label:
//   - role: "Admin" or "User"
var AccountsRegisteredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accounts_registered_total",
		Help:      "Total number of accounts created, by granted role.",
	},
	[]string{"role"},
)

// ── Entry metrics ─────────────────────────────────────────────────────────────

// EntriesCreatedTotal counts newly created entries.
var EntriesCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_created_total",
		Help:      "Total number of entries created.",
	},
)

// ── Attachment metrics ────────────────────────────────────────────────────────

// AttachmentsStoredTotal counts blob writes.
// Label:
//   - result: "stored" or "failed"
var AttachmentsStoredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attachments_stored_total",
		Help:      "Total number of attachment blob writes, by result.",
	},
	[]string{"result"},
)

// AttachmentsTrashTotal counts blob trash attempts.
// Label:
//   - result: "trashed" or "suppressed" (the failure was logged and ignored)
var AttachmentsTrashTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attachments_trash_total",
		Help:      "Total number of attachment trash attempts, by result.",
	},
	[]string{"result"},
)

// TrashQueueDepth tracks the number of refs waiting in each trash worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var TrashQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "trash_queue_depth",
		Help:      "Current number of blob refs pending in each trash worker channel.",
	},
	[]string{"worker_id"},
)
