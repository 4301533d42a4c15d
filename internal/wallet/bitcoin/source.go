package bitcoin

import (
	"context"
	"fmt"

	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/follow"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
	"github.com/younicoin/LunariumCoin-2.0/pkg/safe"
)

// Source implements follow.Source over a node RPC connection.
type Source struct {
	rpc     RPCClient
	coin    model.Coin
	network model.Network
}

// NewSource creates a Source for a specific network.
func NewSource(rpc RPCClient, coin model.Coin, network model.Network) *Source {
	return &Source{
		rpc:     rpc,
		coin:    coin,
		network: network,
	}
}

// BestBlock returns the node's current chain tip.
func (s *Source) BestBlock(ctx context.Context) (model.BlockRef, error) {
	if err := ctx.Err(); err != nil {
		return model.BlockRef{}, err
	}
	count, err := s.rpc.GetBlockCount()
	if err != nil {
		return model.BlockRef{}, fmt.Errorf("get block count: %w", err)
	}
	height, err := safe.Uint64(count)
	if err != nil {
		return model.BlockRef{}, fmt.Errorf("block count overflow: %w", err)
	}
	hash, err := s.rpc.GetBlockHash(count)
	if err != nil {
		return model.BlockRef{}, fmt.Errorf("get block hash at height %d: %w", count, err)
	}
	return model.BlockRef{Hash: *hash, Height: height}, nil
}

// FetchBlock retrieves the block at the given height with its transactions.
func (s *Source) FetchBlock(ctx context.Context, height uint64) (*follow.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rpcHeight, err := safe.Int64(height)
	if err != nil {
		return nil, fmt.Errorf("block height overflow: %w", err)
	}
	hash, err := s.rpc.GetBlockHash(rpcHeight)
	if err != nil {
		return nil, fmt.Errorf("get block hash at height %d: %w", height, err)
	}
	blk, err := s.rpc.GetBlock(hash)
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", hash, err)
	}

	txs := make([]*model.Transaction, 0, len(blk.Transactions))
	for _, mtx := range blk.Transactions {
		txs = append(txs, TransactionFromWire(mtx, s.coin, s.network))
	}
	return &follow.Block{Hash: *hash, Height: height, Txs: txs}, nil
}
