// Package track implements the wallet's transaction conflict and
// confirmation accounting: which observed transactions compete for the same
// inputs, which one the canonical chain currently backs, and what that means
// for the spendable balance.
package track

import (
	"context"
	"time"

	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Metrics observes tracker mutations.
	Metrics interface {
		ObserveSubmit(err error, started time.Time)
		ObserveConnectBlock(err error, txs int, started time.Time)
		ObserveDisconnectBlock(err error, started time.Time)
	}

	// StatusRecorder receives the append-only status history. Implementations
	// must not block; failures are logged and never affect tracking state.
	StatusRecorder interface {
		RecordStatusEvent(ctx context.Context, event model.StatusEvent) error
	}
)

// OwnershipFunc reports whether a locking script pays to this wallet.
type OwnershipFunc func(pkScript []byte) bool
