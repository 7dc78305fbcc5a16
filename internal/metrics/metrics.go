package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PanelMetrics groups the counters exported on /metrics
type PanelMetrics struct {
	// Payment webhooks
	WebhookTotal          *prometheus.CounterVec // by gateway, outcome
	WebhookCreditedAmount *prometheus.CounterVec // by gateway
	WebhookDuration       *prometheus.HistogramVec

	// Upstream provider calls
	UpstreamCallTotal    *prometheus.CounterVec // by provider, action, result
	UpstreamCallDuration *prometheus.HistogramVec

	// Orders
	OrderTotal        *prometheus.CounterVec // by result
	OrderRefundTotal  *prometheus.CounterVec // by reason
	OrderChargeHeld   *prometheus.CounterVec // by reason
	OrderSyncRuns     prometheus.Counter
	OrderSyncUpdated  *prometheus.CounterVec // by status
	OrderSyncDuration prometheus.Histogram

	// Deposit confirmation codes
	DepositCodeTotal *prometheus.CounterVec // by outcome
	DepositCodeSwept prometheus.Counter

	// Operator notifications
	NotificationTotal *prometheus.CounterVec // by channel, result

	// HTTP server
	HttpRequestTotal    *prometheus.CounterVec // by route, code
	HttpRequestDuration *prometheus.HistogramVec
}

func NewPanelMetrics() *PanelMetrics {
	return &PanelMetrics{
		WebhookTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_webhook_total",
				Help: "Total number of payment webhook deliveries",
			},
			[]string{"gateway", "outcome"}, // outcome: credited/duplicate/ignored/rejected/failed
		),
		WebhookCreditedAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_webhook_credited_amount_total",
				Help: "Total wallet amount credited from payment webhooks",
			},
			[]string{"gateway"},
		),
		WebhookDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "panel_webhook_duration_seconds",
				Help:    "Duration of webhook processing",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"gateway"},
		),

		UpstreamCallTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_upstream_call_total",
				Help: "Total number of upstream provider API calls",
			},
			[]string{"provider", "action", "result"}, // result: ok/error/upstream_error
		),
		UpstreamCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "panel_upstream_call_duration_seconds",
				Help:    "Duration of upstream provider API calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),

		OrderTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_order_total",
				Help: "Total number of order placements",
			},
			[]string{"result"},
		),
		OrderRefundTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_order_refund_total",
				Help: "Total number of order refunds",
			},
			[]string{"reason"}, // reason: upstream_error/cancelled/partial
		),
		OrderChargeHeld: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_order_charge_held_total",
				Help: "Total number of order charges kept without an order record, pending operator review",
			},
			[]string{"reason"}, // reason: refund_failed/outcome_unknown
		),
		OrderSyncRuns: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "panel_order_sync_runs_total",
				Help: "Total number of order status poll cycles",
			},
		),
		OrderSyncUpdated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_order_sync_updated_total",
				Help: "Total number of orders refreshed from upstream",
			},
			[]string{"status"},
		),
		OrderSyncDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "panel_order_sync_duration_seconds",
				Help:    "Duration of an order status poll cycle",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),

		DepositCodeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_deposit_code_total",
				Help: "Total number of deposit code operations",
			},
			[]string{"outcome"}, // outcome: issued/verified/expired/invalid/not_found
		),
		DepositCodeSwept: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "panel_deposit_code_swept_total",
				Help: "Total number of expired deposit codes removed by the sweeper",
			},
		),

		NotificationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_notification_total",
				Help: "Total number of operator notifications",
			},
			[]string{"channel", "result"},
		),

		HttpRequestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "panel_http_request_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"route", "code"},
		),
		HttpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "panel_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

var (
	defaultMetrics *PanelMetrics
	once           sync.Once
)

// Get returns the process-wide metrics, registering them on first use
func Get() *PanelMetrics {
	once.Do(func() {
		defaultMetrics = NewPanelMetrics()
	})
	return defaultMetrics
}
