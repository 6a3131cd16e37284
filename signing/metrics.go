package signing

import "time"

// MetricSigningDuration names the duration metric recorded for each
// attempt that actually performed signing.
const MetricSigningDuration = "signing.duration"

// Collector accepts named duration metrics from the dispatcher.
type Collector interface {
	Record(name string, d time.Duration)
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc func(name string, d time.Duration)

// Record implements Collector.
func (f CollectorFunc) Record(name string, d time.Duration) {
	f(name, d)
}

// NopCollector discards every metric.
type NopCollector struct{}

// Record implements Collector.
func (NopCollector) Record(string, time.Duration) {}
