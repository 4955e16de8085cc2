package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

var (
	// Send flow metrics
	SendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "sendflow",
			Name:      "sends_total",
			Help:      "Send attempts by chain and outcome",
		},
		[]string{"chain", "outcome"},
	)

	ConfirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "sendflow",
			Name:      "confirmations_total",
			Help:      "Resolved confirmation watches by chain and result",
		},
		[]string{"chain", "result"},
	)

	FeeEstimateFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "sendflow",
			Name:      "fee_estimate_failures_total",
			Help:      "Failed fee estimations by chain",
		},
		[]string{"chain"},
	)
)

// RegisterMetrics registers all wallet metrics plus the runtime collectors.
func RegisterMetrics(logger *logrus.Logger) {
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", logger)
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector", logger)

	registerIfNotExists(SendsTotal, "sends_total", logger)
	registerIfNotExists(ConfirmationsTotal, "confirmations_total", logger)
	registerIfNotExists(FeeEstimateFailures, "fee_estimate_failures_total", logger)

	registerHTTPMetrics(logger)
}

// registerIfNotExists registers a collector unless it already is; a
// descriptor mismatch is a real problem and gets logged as an error.
func registerIfNotExists(collector prometheus.Collector, name string, logger *logrus.Logger) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			logger.Debugf("%s already registered", name)
		} else {
			logger.Errorf("Failed to register %s: %v", name, err)
		}
	}
}
