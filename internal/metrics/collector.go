package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	checkDuration *prometheus.HistogramVec
	checksTotal   *prometheus.CounterVec
	regressions   *prometheus.CounterVec
	resolverFails *prometheus.CounterVec
	recheckAlerts prometheus.Counter
}

func NewCollector() *Collector {
	return &Collector{
		checkDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "domainverify_check_duration_seconds",
				Help:    "Duration of DNS verification checks in seconds",
				Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"category"},
		),

		checksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domainverify_checks_total",
				Help: "Total number of verification checks performed",
			},
			[]string{"category", "outcome"},
		),

		regressions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domainverify_regressions_total",
				Help: "Checks where a previously verified category failed",
			},
			[]string{"category"},
		),

		resolverFails: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domainverify_resolver_errors_total",
				Help: "DNS lookups that failed after exhausting retries",
			},
			[]string{"record_type"},
		),

		recheckAlerts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "domainverify_recheck_alerts_total",
				Help: "Alerts raised by the periodic re-check after repeated failures",
			},
		),
	}
}

func (c *Collector) RecordCheck(category string, ok bool, duration time.Duration) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	c.checksTotal.WithLabelValues(category, outcome).Inc()
	c.checkDuration.WithLabelValues(category).Observe(duration.Seconds())
}

func (c *Collector) RecordRegression(category string) {
	c.regressions.WithLabelValues(category).Inc()
}

func (c *Collector) RecordResolverError(recordType string) {
	c.resolverFails.WithLabelValues(recordType).Inc()
}

func (c *Collector) RecordRecheckAlert() {
	c.recheckAlerts.Inc()
}
