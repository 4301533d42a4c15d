package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

var (
	trackerSubmitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunarium",
		Subsystem: "wallet_tracker",
		Name:      "submit_total",
		Help:      "Count of transactions submitted to the tracker.",
	}, []string{"coin", "network", "status"})

	trackerSubmitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunarium",
		Subsystem: "wallet_tracker",
		Name:      "submit_duration_seconds",
		Help:      "Duration of tracker submissions.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network", "status"})

	trackerConnectBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunarium",
		Subsystem: "wallet_tracker",
		Name:      "connect_block_total",
		Help:      "Count of block connect events applied to the tracker.",
	}, []string{"coin", "network", "status"})

	trackerConnectBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunarium",
		Subsystem: "wallet_tracker",
		Name:      "connect_block_duration_seconds",
		Help:      "Duration of applying a block connect event.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network", "status"})

	trackerConnectBlockTxs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunarium",
		Subsystem: "wallet_tracker",
		Name:      "connect_block_transactions",
		Help:      "Number of wallet-relevant transactions per connected block.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"coin", "network"})

	trackerDisconnectBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunarium",
		Subsystem: "wallet_tracker",
		Name:      "disconnect_block_total",
		Help:      "Count of block disconnect events applied to the tracker.",
	}, []string{"coin", "network", "status"})

	trackerDisconnectBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunarium",
		Subsystem: "wallet_tracker",
		Name:      "disconnect_block_duration_seconds",
		Help:      "Duration of applying a block disconnect event.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network", "status"})
)

// Tracker tracks metrics for wallet tracker mutations.
type Tracker struct {
	coin    model.Coin
	network model.Network
}

// NewTracker constructs a Tracker metrics collector with defaults.
func NewTracker(coin model.Coin, network model.Network) *Tracker {
	if coin == "" {
		coin = "unknown"
	}
	if network == "" {
		network = "unknown"
	}
	return &Tracker{coin: coin, network: network}
}

// ObserveSubmit records a transaction submission outcome and duration.
func (m Tracker) ObserveSubmit(err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	trackerSubmitTotal.WithLabelValues(string(m.coin), string(m.network), status).Inc()
	trackerSubmitDuration.WithLabelValues(string(m.coin), string(m.network), status).
		Observe(time.Since(started).Seconds())
}

// ObserveConnectBlock records a block connect outcome, size and duration.
func (m Tracker) ObserveConnectBlock(err error, txs int, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	trackerConnectBlockTotal.WithLabelValues(string(m.coin), string(m.network), status).Inc()
	trackerConnectBlockDuration.WithLabelValues(string(m.coin), string(m.network), status).
		Observe(time.Since(started).Seconds())
	trackerConnectBlockTxs.WithLabelValues(string(m.coin), string(m.network)).
		Observe(float64(txs))
}

// ObserveDisconnectBlock records a block disconnect outcome and duration.
func (m Tracker) ObserveDisconnectBlock(err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	trackerDisconnectBlockTotal.WithLabelValues(string(m.coin), string(m.network), status).Inc()
	trackerDisconnectBlockDuration.WithLabelValues(string(m.coin), string(m.network), status).
		Observe(time.Since(started).Seconds())
}
