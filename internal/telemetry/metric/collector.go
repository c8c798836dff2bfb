package metric

import "github.com/prometheus/client_golang/prometheus"

// HubStats is implemented by the notification hub.
type HubStats interface {
	Rooms() int
	Subscribers() int
	Dropped() uint64
	Published() uint64
}

// HubCollector reads hub statistics at scrape time.
type HubCollector struct {
	stats HubStats

	rooms       *prometheus.Desc
	subscribers *prometheus.Desc
	dropped     *prometheus.Desc
	published   *prometheus.Desc
}

// NewHubCollector creates a collector for the given hub.
func NewHubCollector(stats HubStats) *HubCollector {
	return &HubCollector{
		stats: stats,
		rooms: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "notify", "rooms"),
			"Rooms with at least one subscriber.", nil, nil),
		subscribers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "notify", "subscribers"),
			"Active room subscriptions.", nil, nil),
		dropped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "notify", "dropped_total"),
			"Messages dropped for slow subscribers.", nil, nil),
		published: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "notify", "published_total"),
			"Messages published to rooms.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *HubCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.rooms
	ch <- c.subscribers
	ch <- c.dropped
	ch <- c.published
}

// Collect implements prometheus.Collector.
func (c *HubCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.rooms, prometheus.GaugeValue, float64(c.stats.Rooms()))
	ch <- prometheus.MustNewConstMetric(c.subscribers, prometheus.GaugeValue, float64(c.stats.Subscribers()))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(c.stats.Dropped()))
	ch <- prometheus.MustNewConstMetric(c.published, prometheus.CounterValue, float64(c.stats.Published()))
}

// RegisterHub adds a HubCollector to the registry.
func (r *Registry) RegisterHub(stats HubStats) error {
	return r.registry.Register(NewHubCollector(stats))
}
