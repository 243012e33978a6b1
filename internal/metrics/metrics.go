package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "reefer_"

var rowsGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "rows_generated_total",
		Help: "Number of telemetry rows generated",
	},
	[]string{"scenario"},
)

var maintenanceFlags = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "maintenance_flags_total",
		Help: "Number of generated rows labeled as requiring maintenance",
	},
	[]string{"scenario"},
)

var eventsPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "events_published_total",
		Help: "Number of delivery reports received from the event sink",
	},
	[]string{"sink", "result"},
)

var telemetryConsumed = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: prefix + "telemetry_consumed_total",
		Help: "Number of telemetry records consumed by the scoring agent",
	},
)

var alertsRaised = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "alerts_raised_total",
		Help: "Number of alerts written by the scoring agent",
	},
	[]string{"type", "reason"},
)

func RecordGenerated(scenario string, rows, flagged int) {
	rowsGenerated.WithLabelValues(scenario).Add(float64(rows))
	maintenanceFlags.WithLabelValues(scenario).Add(float64(flagged))
}

func RecordDelivery(sink string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	eventsPublished.WithLabelValues(sink, result).Inc()
}

func RecordConsumed() {
	telemetryConsumed.Inc()
}

func RecordAlert(alertType, reason string) {
	alertsRaised.WithLabelValues(alertType, reason).Inc()
}
