package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesai_events_consumed_total",
		Help: "Messages consumed, labelled by topic and decode status.",
	}, []string{"topic", "status"})

	Rebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesai_view_rebuilds_total",
		Help: "View rebuild outcomes, labelled by view and outcome.",
	}, []string{"view", "outcome"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesai_notifications_total",
		Help: "Notification rule outcomes, labelled by rule and outcome.",
	}, []string{"rule", "outcome"})
)
