package devhost

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vsc-eco/vsc-fixed-swap/contracts/fixed-swap/swap"
	"github.com/vsc-eco/vsc-fixed-swap/schemas"
)

// Metrics owns its registry so several ledgers can live in one process.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CallsTotal   *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
	PayoutsTotal *prometheus.CounterVec
	Reserve      *prometheus.GaugeVec
	TotalIssued  prometheus.Gauge
	Height       prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixedswap_calls_total",
				Help: "Total number of contract calls by method and result",
			},
			[]string{"method", "result"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fixedswap_call_duration_seconds",
				Help:    "Contract call execution time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		PayoutsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixedswap_payout_amount_total",
				Help: "Token units paid out by the contract",
			},
			[]string{"token"},
		),
		Reserve: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fixedswap_reserve",
				Help: "Committed contract reserve per side",
			},
			[]string{"side"},
		),
		TotalIssued: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fixedswap_total_issued",
			Help: "Cumulative converted value in token B units",
		}),
		Height: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fixedswap_height",
			Help: "Last committed transaction height",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeCall(rec schemas.ExecutionRecord, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !rec.OK {
		result = "reverted"
	}
	m.CallsTotal.WithLabelValues(rec.Method, result).Inc()
	m.CallDuration.WithLabelValues(rec.Method).Observe(d.Seconds())
	for _, p := range rec.Payouts {
		m.PayoutsTotal.WithLabelValues(p.Token).Add(float64(p.Amount))
	}
}

func (m *Metrics) observeState(st swap.State, height uint64) {
	if m == nil {
		return
	}
	m.Reserve.WithLabelValues("a").Set(float64(st.ReserveA))
	m.Reserve.WithLabelValues("b").Set(float64(st.ReserveB))
	m.TotalIssued.Set(float64(st.TotalIssued))
	m.Height.Set(float64(height))
}
