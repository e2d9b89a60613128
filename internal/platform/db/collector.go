package db

import "github.com/prometheus/client_golang/prometheus"

var (
	poolConnsDesc = prometheus.NewDesc(
		"telehealth_db_pool_connections",
		"Read store pool connections by state.",
		[]string{"state"}, nil,
	)
	poolMaxDesc = prometheus.NewDesc(
		"telehealth_db_pool_max_connections",
		"Configured pool size.",
		nil, nil,
	)
	poolAcquiresDesc = prometheus.NewDesc(
		"telehealth_db_pool_acquires_total",
		"Connections acquired from the pool.",
		nil, nil,
	)
)

// PoolCollector exports pool statistics at scrape time.
type PoolCollector struct {
	stats func() *PoolStats
}

func NewPoolCollector(stats func() *PoolStats) *PoolCollector {
	return &PoolCollector{stats: stats}
}

func (p *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolConnsDesc
	ch <- poolMaxDesc
	ch <- poolAcquiresDesc
}

func (p *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := p.stats()
	if s == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(poolConnsDesc, prometheus.GaugeValue, float64(s.IdleConns), "idle")
	ch <- prometheus.MustNewConstMetric(poolConnsDesc, prometheus.GaugeValue, float64(s.AcquiredConns), "acquired")
	ch <- prometheus.MustNewConstMetric(poolMaxDesc, prometheus.GaugeValue, float64(s.MaxConns))
	ch <- prometheus.MustNewConstMetric(poolAcquiresDesc, prometheus.CounterValue, float64(s.AcquireCount))
}
