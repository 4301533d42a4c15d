package model

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Balance is the wallet balance breakdown in minor units.
type Balance struct {
	Spendable btcutil.Amount
	Pending   btcutil.Amount
	Immature  btcutil.Amount
}

// Total returns the sum of all balance buckets.
func (b Balance) Total() btcutil.Amount {
	return b.Spendable + b.Pending + b.Immature
}

// TransactionSummary is the per-transaction view handed to the query layer.
// Amount is the net effect on the wallet excluding the fee; Fee is only
// meaningful when FeeKnown is set, which requires every input to resolve to
// a wallet-known output. Confirmations is negative for conflicted records.
type TransactionSummary struct {
	TxID          chainhash.Hash
	Amount        btcutil.Amount
	Fee           btcutil.Amount
	FeeKnown      bool
	Confirmations int64
	Status        Status
}
