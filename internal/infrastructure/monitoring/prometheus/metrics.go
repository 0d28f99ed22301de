package prometheus

import "time"

// Default buckets.
var (
	DefaultRecordDurationBuckets  = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultFragmentCountBuckets   = []float64{1, 2, 3, 4, 6, 8, 12, 20}
	DefaultMessageDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
)

// StandardizationMetrics holds the standardization service's metrics.
type StandardizationMetrics struct {
	OutcomesTotal          CounterVec
	RecordDuration         HistogramVec
	FragmentsPerRecord     HistogramVec
	CacheRequestsTotal     CounterVec
	MessagesTotal          CounterVec
	MessageProcessDuration HistogramVec
	InFlightRecords        GaugeVec
	HealthCheckStatus      GaugeVec
}

// NewStandardizationMetrics registers every metric on collector.
func NewStandardizationMetrics(collector MetricsCollector) *StandardizationMetrics {
	return &StandardizationMetrics{
		OutcomesTotal:          collector.RegisterCounter("outcomes_total", "Standardized records by status and rejection reason", "status", "reason"),
		RecordDuration:         collector.RegisterHistogram("record_duration_seconds", "Time to standardize one record", DefaultRecordDurationBuckets, "status"),
		FragmentsPerRecord:     collector.RegisterHistogram("fragments_per_record", "Connected fragments left after salt stripping", DefaultFragmentCountBuckets),
		CacheRequestsTotal:     collector.RegisterCounter("cache_requests_total", "Result cache lookups", "result"),
		MessagesTotal:          collector.RegisterCounter("messages_total", "Worker messages by topic and outcome", "topic", "outcome"),
		MessageProcessDuration: collector.RegisterHistogram("message_process_duration_seconds", "Worker message handling duration", DefaultMessageDurationBuckets, "topic"),
		InFlightRecords:        collector.RegisterGauge("in_flight_records", "Records currently being standardized", "source"),
		HealthCheckStatus:      collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component"),
	}
}

// RecordOutcome counts one finished record.  An empty reason is reported
// as "none".
func (m *StandardizationMetrics) RecordOutcome(status, reason string, d time.Duration) {
	if reason == "" {
		reason = "none"
	}
	m.OutcomesTotal.WithLabelValues(status, reason).Inc()
	m.RecordDuration.WithLabelValues(status).Observe(d.Seconds())
}

// RecordFragments observes the fragment count of one record.
func (m *StandardizationMetrics) RecordFragments(n int) {
	m.FragmentsPerRecord.WithLabelValues().Observe(float64(n))
}

// RecordCache counts one cache lookup.
func (m *StandardizationMetrics) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordMessage counts one handled worker message.
func (m *StandardizationMetrics) RecordMessage(topic, outcome string, d time.Duration) {
	m.MessagesTotal.WithLabelValues(topic, outcome).Inc()
	m.MessageProcessDuration.WithLabelValues(topic).Observe(d.Seconds())
}

// TrackInFlight increments the in-flight gauge for source and returns the
// matching decrement.
func (m *StandardizationMetrics) TrackInFlight(source string) func() {
	g := m.InFlightRecords.WithLabelValues(source)
	g.Inc()
	return g.Dec
}

// SetHealth reports a component's health.
func (m *StandardizationMetrics) SetHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}
