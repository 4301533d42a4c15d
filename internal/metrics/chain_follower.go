package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

var (
	followerBestBlockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunarium",
		Subsystem: "chain_follower",
		Name:      "best_block_total",
		Help:      "Count of best block polls against the node.",
	}, []string{"coin", "network", "status"})

	followerBestBlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunarium",
		Subsystem: "chain_follower",
		Name:      "best_block_duration_seconds",
		Help:      "Duration of best block polls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network", "status"})

	followerApplyBatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunarium",
		Subsystem: "chain_follower",
		Name:      "apply_batch_total",
		Help:      "Count of block batches applied to the tracker.",
	}, []string{"coin", "network", "status"})

	followerApplyBatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunarium",
		Subsystem: "chain_follower",
		Name:      "apply_batch_duration_seconds",
		Help:      "Duration of applying a block batch.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network", "status"})

	followerApplyBatchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunarium",
		Subsystem: "chain_follower",
		Name:      "apply_batch_size",
		Help:      "Number of blocks applied per batch.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"coin", "network"})

	followerDisconnectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lunarium",
		Subsystem: "chain_follower",
		Name:      "disconnect_total",
		Help:      "Count of tip disconnects driven by reorgs.",
	}, []string{"coin", "network", "status"})

	followerDisconnectDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lunarium",
		Subsystem: "chain_follower",
		Name:      "disconnect_duration_seconds",
		Help:      "Duration of tip disconnects.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"coin", "network", "status"})
)

// ChainFollower tracks metrics for the chain following loop.
type ChainFollower struct {
	coin    model.Coin
	network model.Network
}

// NewChainFollower constructs a ChainFollower metrics collector with defaults.
func NewChainFollower(coin model.Coin, network model.Network) *ChainFollower {
	if coin == "" {
		coin = "unknown"
	}
	if network == "" {
		network = "unknown"
	}
	return &ChainFollower{coin: coin, network: network}
}

// ObserveBestBlock records a best block poll outcome and duration.
func (m ChainFollower) ObserveBestBlock(err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	followerBestBlockTotal.WithLabelValues(string(m.coin), string(m.network), status).Inc()
	followerBestBlockDuration.WithLabelValues(string(m.coin), string(m.network), status).
		Observe(time.Since(started).Seconds())
}

// ObserveApplyBatch records applying a batch of connected blocks.
func (m ChainFollower) ObserveApplyBatch(err error, blocks int, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	followerApplyBatchTotal.WithLabelValues(string(m.coin), string(m.network), status).Inc()
	followerApplyBatchDuration.WithLabelValues(string(m.coin), string(m.network), status).
		Observe(time.Since(started).Seconds())
	followerApplyBatchSize.WithLabelValues(string(m.coin), string(m.network)).
		Observe(float64(blocks))
}

// ObserveDisconnect records a reorg-driven tip disconnect.
func (m ChainFollower) ObserveDisconnect(err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	followerDisconnectTotal.WithLabelValues(string(m.coin), string(m.network), status).Inc()
	followerDisconnectDuration.WithLabelValues(string(m.coin), string(m.network), status).
		Observe(time.Since(started).Seconds())
}
