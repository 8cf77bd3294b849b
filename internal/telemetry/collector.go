// Package telemetry exports the latest reward computation as Prometheus
// gauges. Only the most recent step is kept.
package telemetry

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"pianoreward/internal/reward"
)

const namespace = "pianoreward"

// Collector is a task observer and a prometheus.Collector. Per-term gauges
// are only exported for aggregators that keep a term snapshot.
type Collector struct {
	totalDesc *prometheus.Desc
	termDesc  *prometheus.Desc
	stepDesc  *prometheus.Desc

	mu    sync.Mutex
	step  int
	total reward.Reward
	terms map[string]reward.Reward
	seen  bool
}

func NewCollector(constLabels prometheus.Labels) *Collector {
	return &Collector{
		totalDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "reward_total"),
			"Aggregate reward of the most recent step.",
			nil, constLabels,
		),
		termDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "reward_term"),
			"Most recent value of each reward term.",
			[]string{"term"}, constLabels,
		),
		stepDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "step"),
			"Index of the most recent observed step.",
			nil, constLabels,
		),
	}
}

func (c *Collector) Observe(step int, total reward.Reward, aggregator reward.Aggregator) {
	var terms map[string]reward.Reward
	if source, ok := aggregator.(reward.TermsSource); ok {
		terms = source.RewardTerms()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = step
	c.total = total
	c.terms = terms
	c.seen = true
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalDesc
	ch <- c.termDesc
	ch <- c.stepDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seen {
		return
	}

	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, c.total)
	ch <- prometheus.MustNewConstMetric(c.stepDesc, prometheus.GaugeValue, float64(c.step))

	names := make([]string, 0, len(c.terms))
	for name := range c.terms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ch <- prometheus.MustNewConstMetric(c.termDesc, prometheus.GaugeValue, c.terms[name], name)
	}
}
