package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReconcilePasses counts completed reconciliation passes
	ReconcilePasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gotrackarr_reconcile_passes_total",
		Help: "Number of completed reconciliation passes.",
	})

	// TitlesChecked counts per-title checks performed during passes
	TitlesChecked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gotrackarr_titles_checked_total",
		Help: "Number of per-title reconciliation checks.",
	}, []string{"kind"})

	// TitleCheckFailures counts per-title checks that failed
	TitleCheckFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gotrackarr_title_check_failures_total",
		Help: "Number of per-title reconciliation checks that failed.",
	}, []string{"kind"})

	// NotificationsDispatched counts emitted notifications by type
	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gotrackarr_notifications_dispatched_total",
		Help: "Number of notifications handed to the sink.",
	}, []string{"type"})

	// DispatchFailures counts sink failures after the watermark was
	// already advanced
	DispatchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gotrackarr_notification_dispatch_failures_total",
		Help: "Number of notifications lost to sink failures.",
	})
)
