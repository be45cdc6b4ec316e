// Package metrics defines and registers all custom Prometheus metrics for the
// marketplace service. It is the single source of truth for metric names,
// labels, and help strings; registration happens at import via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Listing metrics ───────────────────────────────────────────────────────────

// FeedFetchesTotal counts pagination fetches.
// Labels:
//   - kind: "reset" or "more"
//   - result: "ok", "error" (store failure, retryable) or "busy" (a fetch was
//     already in flight)
var FeedFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_fetches_total",
		Help:      "Total number of listing pagination fetches by kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Policy metrics ────────────────────────────────────────────────────────────

// PolicyDenialsTotal counts mutations refused by the permission/ownership
// checks before any write was attempted.
// Label:
//   - operation: the denied operation (e.g. "update_item", "admin_update_user")
var PolicyDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_denials_total",
		Help:      "Total number of mutations refused by the policy layer.",
	},
	[]string{"operation"},
)

// ── Content metrics ───────────────────────────────────────────────────────────

// ItemsCreatedTotal counts successfully created items.
var ItemsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_created_total",
		Help:      "Total number of items created.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsRevokedTotal counts sessions force-terminated by a ban or account
// deletion detected mid-session.
var SessionsRevokedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of sessions revoked by moderation actions.",
	},
)

// WatchDeliveriesTotal counts store subscription deliveries.
// Label:
//   - stream: "profile", "users" or "categories"
var WatchDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watch_deliveries_total",
		Help:      "Total number of store subscription deliveries by stream.",
	},
	[]string{"stream"},
)
