// Package follow keeps a tracker in sync with a node's chain: it detects tip
// movement and reorgs and replays them as connect/disconnect events.
package follow

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Source reads the chain from a node.
	Source interface {
		BestBlock(ctx context.Context) (model.BlockRef, error)
		FetchBlock(ctx context.Context, height uint64) (*Block, error)
	}

	// Tracker consumes ordered block events.
	Tracker interface {
		Tip() (model.BlockRef, bool)
		ConnectBlock(ctx context.Context, hash chainhash.Hash, height uint64, txs []*model.Transaction) error
		DisconnectBlock(ctx context.Context, hash chainhash.Hash) error
	}

	// Metrics observes follower iterations.
	Metrics interface {
		ObserveBestBlock(err error, started time.Time)
		ObserveApplyBatch(err error, blocks int, started time.Time)
		ObserveDisconnect(err error, started time.Time)
	}
)

// Block is a fetched block with its transactions in block order.
type Block struct {
	Hash   chainhash.Hash
	Height uint64
	Txs    []*model.Transaction
}
