package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/simsync-go/internal/core/supervisor"
)

// SlotSource reports supervisor slot status.
type SlotSource interface {
	Status() []supervisor.SlotStatus
}

// Collector exports supervisor slot status at scrape time.
type Collector struct {
	slots SlotSource

	up         *prometheus.Desc
	restarts   *prometheus.Desc
	iterations *prometheus.Desc
}

// NewCollector creates a collector over the given slot source.
func NewCollector(slots SlotSource) *Collector {
	return &Collector{
		slots: slots,
		up: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "slot", "up"),
			"Whether the slot has a live worker.",
			[]string{"slot", "state"}, nil),
		restarts: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "slot", "restarts"),
			"Restarts of the slot since the supervisor started.",
			[]string{"slot"}, nil),
		iterations: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "slot", "iterations"),
			"Iterations run by the current worker of the slot.",
			[]string{"slot"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.restarts
	ch <- c.iterations
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range c.slots.Status() {
		up := 0.0
		if st.Alive {
			up = 1
		}
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up, st.Name, st.State.String())
		ch <- prometheus.MustNewConstMetric(c.restarts, prometheus.CounterValue, float64(st.Restarts), st.Name)
		ch <- prometheus.MustNewConstMetric(c.iterations, prometheus.CounterValue, float64(st.Iterations), st.Name)
	}
}
