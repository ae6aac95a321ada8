package network

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the calls made through a Client
type Metrics struct {
	transactions *prometheus.CounterVec
	queries      *prometheus.CounterVec
	players      prometheus.Gauge
}

// NewMetrics - creates the lottery metrics and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lottery_transactions_total",
				Help: "Total number of transactions sent, by function and final status.",
			},
			[]string{"function", "status"},
		),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lottery_queries_total",
				Help: "Total number of read-only contract queries.",
			},
			[]string{"function"},
		),
		players: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lottery_players",
			Help: "Players in the current lottery round.",
		}),
	}

	reg.MustRegister(m.transactions, m.queries, m.players)

	return m
}

func (m *Metrics) observeTransaction(function, status string) {
	if m == nil {
		return
	}

	m.transactions.WithLabelValues(function, status).Inc()
}

func (m *Metrics) observeQuery(function string) {
	if m == nil {
		return
	}

	m.queries.WithLabelValues(function).Inc()
}

func (m *Metrics) setPlayers(n int) {
	if m == nil {
		return
	}

	m.players.Set(float64(n))
}
