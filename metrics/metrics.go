// Package metrics exposes byte counters as Prometheus metrics.
package metrics

import (
	"github.com/influxdata/iocounter/pkg/iocounter"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "iocount"

var _ prometheus.Collector = (*Collector)(nil)

// Collector reports the current value of a single iocounter.Counter each
// time it is collected.
type Collector struct {
	desc    *prometheus.Desc
	counter iocounter.Counter
}

// NewCollector returns a Collector for c under the metric
// iocount_<name>_bytes_total. labels are attached as constant labels.
func NewCollector(name, help string, c iocounter.Counter, labels prometheus.Labels) *Collector {
	return &Collector{
		desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, name, "bytes_total"),
			help,
			nil, labels),
		counter: c,
	}
}

// Describe returns all descriptions of the collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

// Collect returns the current count.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(c.counter.Count()))
}
