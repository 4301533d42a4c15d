package track

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
	"go.uber.org/zap"
)

// Confirmation depth defaults. Vars to allow overriding in tests.
var (
	defaultMaturity         = int64(1)
	defaultCoinbaseMaturity = int64(100)
)

// Tracker is the single owner of ledger, spend index and chain view state.
// Every mutation runs to completion under one lock, so readers only ever see
// fully resolved state.
type Tracker struct {
	mu sync.Mutex

	logger   *zap.Logger
	coin     model.Coin
	network  model.Network
	metrics  Metrics
	recorder StatusRecorder
	owns     OwnershipFunc

	maturity         int64
	coinbaseMaturity int64

	ledger *Ledger
	chain  *ChainView
}

// NewTracker builds a Tracker. The recorder may be nil to disable the status
// history.
func NewTracker(
	coin model.Coin,
	network model.Network,
	owns OwnershipFunc,
	metrics Metrics,
	recorder StatusRecorder,
	logger *zap.Logger,
) (*Tracker, error) {
	if owns == nil {
		return nil, errors.New("ownership func is required")
	}
	if metrics == nil {
		return nil, errors.New("tracker metrics is required")
	}
	logger = logger.With(
		zap.String("coin", string(coin)),
		zap.String("network", string(network)),
	)

	return &Tracker{
		logger:           logger,
		coin:             coin,
		network:          network,
		metrics:          metrics,
		recorder:         recorder,
		owns:             owns,
		maturity:         defaultMaturity,
		coinbaseMaturity: defaultCoinbaseMaturity,
		ledger:           NewLedger(),
		chain:            NewChainView(),
	}, nil
}

// Submit records a validated transaction as unconfirmed and resolves any
// conflicts it introduces. A duplicate submit returns the stored record with
// ErrDuplicateTransaction and changes nothing.
func (t *Tracker) Submit(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	started := time.Now()
	rec, err := t.submitLocked(ctx, tx)
	t.metrics.ObserveSubmit(err, started)
	if rec != nil {
		rec = rec.Clone()
	}
	return rec, err
}

func (t *Tracker) submitLocked(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	if tx.TxID == (chainhash.Hash{}) {
		tx.TxID = model.ComputeTxID(tx)
	}

	rec, err := t.ledger.Submit(tx)
	if err != nil {
		if errors.Is(err, ErrDuplicateTransaction) {
			t.logger.Debug("ignoring duplicate submit", zap.Stringer("txid", tx.TxID))
			return rec, err
		}
		return nil, err
	}

	changes, err := resolveGroup(t.ledger.conflictGroup(rec.TxID))
	if err != nil {
		return rec, fmt.Errorf("resolve conflicts for %s: %w", rec.TxID, err)
	}

	t.logger.Info("transaction submitted",
		zap.Stringer("txid", rec.TxID),
		zap.Stringer("status", rec.Status),
	)
	t.emit(ctx, rec)
	t.emitChanged(ctx, changes, rec)
	return rec, nil
}

// ConnectBlock applies a block-connect event. Transactions already in the
// ledger are confirmed at the block; wallet-relevant transactions seen for
// the first time are implicitly submitted first. A height collision with a
// different block is ErrChainViewViolation and nothing is applied;
// re-connecting the identical tip block is a no-op.
func (t *Tracker) ConnectBlock(ctx context.Context, hash chainhash.Hash, height uint64, txs []*model.Transaction) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	started := time.Now()
	err := t.connectBlockLocked(ctx, hash, height, txs)
	t.metrics.ObserveConnectBlock(err, len(txs), started)
	return err
}

func (t *Tracker) connectBlockLocked(ctx context.Context, hash chainhash.Hash, height uint64, txs []*model.Transaction) error {
	already, err := t.chain.CheckConnect(hash, height)
	if err != nil {
		return fmt.Errorf("connect block %s at %d: %w", hash, height, err)
	}
	if already {
		t.logger.Debug("block already connected", zap.Stringer("hash", hash), zap.Uint64("height", height))
		return nil
	}

	block := &model.Block{Hash: hash, Height: height}
	contained := make([]*model.Transaction, 0, len(txs))
	for _, tx := range txs {
		rec, err := t.ledger.Get(tx.TxID)
		if errors.Is(err, ErrUnknownTransaction) {
			if !t.relevantLocked(tx) {
				continue
			}
			if rec, err = t.ledger.Submit(tx); err != nil {
				return fmt.Errorf("implicit submit %s: %w", tx.TxID, err)
			}
		} else if err != nil {
			return err
		}
		contained = append(contained, rec)
		block.TxIDs = append(block.TxIDs, rec.TxID)
	}

	if err := t.chain.Connect(block); err != nil {
		return fmt.Errorf("connect block %s at %d: %w", hash, height, err)
	}

	ref := block.Ref()
	for _, rec := range contained {
		mined := ref
		rec.Mined = &mined
		changes, err := resolveGroup(t.ledger.conflictGroup(rec.TxID))
		if err != nil {
			rec.Mined = nil
			return fmt.Errorf("resolve conflicts for %s: %w", rec.TxID, err)
		}
		t.emit(ctx, rec)
		t.emitChanged(ctx, changes, rec)
	}

	t.logger.Info("connected block",
		zap.Stringer("hash", hash),
		zap.Uint64("height", height),
		zap.Int("walletTxs", len(contained)),
	)
	return nil
}

// DisconnectBlock applies a block-disconnect event for the current tip.
// Transactions confirmed by the block become unconfirmed; their conflict
// groups re-resolve, so a conflicted sibling may also return to unconfirmed,
// but never straight back to mined.
func (t *Tracker) DisconnectBlock(ctx context.Context, hash chainhash.Hash) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	started := time.Now()
	err := t.disconnectBlockLocked(ctx, hash)
	t.metrics.ObserveDisconnectBlock(err, started)
	return err
}

func (t *Tracker) disconnectBlockLocked(ctx context.Context, hash chainhash.Hash) error {
	block, err := t.chain.DisconnectTip(hash)
	if err != nil {
		return fmt.Errorf("disconnect block %s: %w", hash, err)
	}

	for _, txid := range block.TxIDs {
		rec, err := t.ledger.Get(txid)
		if err != nil {
			return fmt.Errorf("disconnect block %s: %w", hash, err)
		}
		if rec.Mined == nil || rec.Mined.Hash != hash {
			continue
		}
		rec.Mined = nil
		rec.Status = model.StatusUnconfirmed
		rec.ConflictPoint = nil

		changes, err := resolveGroup(t.ledger.conflictGroup(txid))
		if err != nil {
			return fmt.Errorf("resolve conflicts for %s: %w", txid, err)
		}
		t.emit(ctx, rec)
		t.emitChanged(ctx, changes, rec)
	}

	t.logger.Info("disconnected block",
		zap.Stringer("hash", hash),
		zap.Uint64("height", block.Height),
		zap.Int("walletTxs", len(block.TxIDs)),
	)
	return nil
}

// Get returns a copy of the stored record.
func (t *Tracker) Get(txid chainhash.Hash) (*model.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.ledger.Get(txid)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Confirmations returns the signed confirmation count: blocks since the
// confirming block for mined records, zero for unconfirmed ones, and a
// negative depth for conflicted ones counting from the block that superseded
// them (minimum -1).
func (t *Tracker) Confirmations(txid chainhash.Hash) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.ledger.Get(txid)
	if err != nil {
		return 0, err
	}
	return t.confirmationsLocked(rec), nil
}

func (t *Tracker) confirmationsLocked(rec *model.Transaction) int64 {
	tip, ok := t.chain.Tip()
	switch rec.Status {
	case model.StatusMined:
		if !ok || rec.Mined == nil || tip.Height < rec.Mined.Height {
			return 0
		}
		return int64(tip.Height-rec.Mined.Height) + 1
	case model.StatusConflicted:
		depth := int64(1)
		if ok && rec.ConflictPoint != nil && tip.Height >= rec.ConflictPoint.Height {
			depth = int64(tip.Height-rec.ConflictPoint.Height) + 1
		}
		return -depth
	default:
		return 0
	}
}

// Tip returns the current chain tip known to the tracker.
func (t *Tracker) Tip() (model.BlockRef, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chain.Tip()
}

// relevantLocked reports whether a block transaction first seen now belongs
// in the wallet: it pays one of our scripts, spends one of our outputs, or
// competes for an input with a ledger transaction.
func (t *Tracker) relevantLocked(tx *model.Transaction) bool {
	for _, out := range tx.Outputs {
		if t.owns(out.PkScript) {
			return true
		}
	}
	for _, in := range tx.Inputs {
		if len(t.ledger.index.Spenders(in.PreviousOutPoint)) > 0 {
			return true
		}
		if out, ok := t.ledger.Output(in.PreviousOutPoint); ok && t.owns(out.PkScript) {
			return true
		}
	}
	return false
}

func (t *Tracker) emit(ctx context.Context, rec *model.Transaction) {
	if t.recorder == nil {
		return
	}
	ev := model.StatusEvent{
		Coin:    t.coin,
		Network: t.network,
		TxID:    rec.TxID.String(),
		Status:  rec.Status,
		Time:    time.Now().UTC(),
	}
	switch {
	case rec.Status == model.StatusMined && rec.Mined != nil:
		ev.BlockHash = rec.Mined.Hash.String()
		ev.BlockHeight = rec.Mined.Height
	case rec.Status == model.StatusConflicted && rec.ConflictPoint != nil:
		ev.BlockHash = rec.ConflictPoint.Hash.String()
		ev.BlockHeight = rec.ConflictPoint.Height
	}
	if err := t.recorder.RecordStatusEvent(ctx, ev); err != nil {
		t.logger.Warn("record status event failed", zap.Error(err), zap.String("txid", ev.TxID))
	}
}

func (t *Tracker) emitChanged(ctx context.Context, changes []statusChange, except *model.Transaction) {
	for _, c := range changes {
		if c.tx != except {
			t.emit(ctx, c.tx)
		}
	}
}
