package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ChallengeArena/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	refreshes     *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	fetchErrors   *prometheus.CounterVec
	signals       *prometheus.CounterVec
	verdicts      *prometheus.CounterVec
	pnl           *prometheus.GaugeVec
	notifications *prometheus.CounterVec
	archived      *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// NewWithRegistry creates a recorder on reg. Tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		refreshes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_price_refresh_tickers_total",
				Help: "Tickers processed by price refreshes, by result",
			},
			[]string{"result"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arena_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		fetchErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_price_fetch_errors_total",
				Help: "Market feed failures per symbol",
			},
			[]string{"symbol"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_signals_total",
				Help: "Signals proposed per bot",
			},
			[]string{"bot"},
		),
		verdicts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_verdicts_total",
				Help: "Verdicts per bot and outcome",
			},
			[]string{"bot", "verdict"},
		),
		pnl: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arena_last_trade_pnl",
				Help: "PnL of the last scored trade per bot",
			},
			[]string{"bot"},
		),
		notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_notifications_total",
				Help: "Winning-trade notifications by result",
			},
			[]string{"result"},
		),
		archived: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_verdicts_archived_total",
				Help: "Verdict events handed to an archive backend",
			},
			[]string{"backend"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arena_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arena_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordRefresh(updated, failed int) {
	r.refreshes.WithLabelValues("updated").Add(float64(updated))
	r.refreshes.WithLabelValues("failed").Add(float64(failed))
}

// RecordPrice records the last price for a symbol.
func (r *Recorder) RecordPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordFetchError(symbol string) {
	r.fetchErrors.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordSignal(botID string) {
	r.signals.WithLabelValues(botID).Inc()
}

func (r *Recorder) RecordVerdict(botID string, verdict models.Verdict) {
	r.verdicts.WithLabelValues(botID, string(verdict)).Inc()
}

func (r *Recorder) RecordScoreUpdate(botID string, pnl float64) {
	r.pnl.WithLabelValues(botID).Set(pnl)
}

func (r *Recorder) RecordNotification(result string) {
	r.notifications.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordArchived(backend string, n int) {
	r.archived.WithLabelValues(backend).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Noop discards everything. Used when metrics are disabled and in tests.
type Noop struct{}

func (Noop) RecordRefresh(int, int)               {}
func (Noop) RecordPrice(string, float64)          {}
func (Noop) RecordFetchError(string)              {}
func (Noop) RecordSignal(string)                  {}
func (Noop) RecordVerdict(string, models.Verdict) {}
func (Noop) RecordScoreUpdate(string, float64)    {}
func (Noop) RecordNotification(string)            {}
func (Noop) RecordArchived(string, int)           {}
func (Noop) RecordError(string)                   {}
func (Noop) RecordLatency(string, float64)        {}
