package track

import (
	"bytes"
	"slices"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

// SpendIndex maps a spent outpoint to every known transaction spending it.
// Two transactions sharing an entry are in conflict.
type SpendIndex struct {
	spenders map[model.OutPoint]map[chainhash.Hash]struct{}
}

// NewSpendIndex constructs an empty SpendIndex.
func NewSpendIndex() *SpendIndex {
	return &SpendIndex{
		spenders: make(map[model.OutPoint]map[chainhash.Hash]struct{}),
	}
}

// Register records that txid spends each of the given inputs.
func (x *SpendIndex) Register(txid chainhash.Hash, inputs []model.TxIn) {
	for _, in := range inputs {
		set, ok := x.spenders[in.PreviousOutPoint]
		if !ok {
			set = make(map[chainhash.Hash]struct{}, 1)
			x.spenders[in.PreviousOutPoint] = set
		}
		set[txid] = struct{}{}
	}
}

// Unregister removes every entry recorded for a retracted transaction.
func (x *SpendIndex) Unregister(txid chainhash.Hash, inputs []model.TxIn) {
	for _, in := range inputs {
		set, ok := x.spenders[in.PreviousOutPoint]
		if !ok {
			continue
		}
		delete(set, txid)
		if len(set) == 0 {
			delete(x.spenders, in.PreviousOutPoint)
		}
	}
}

// Spenders returns every known spender of the outpoint, sorted by txid bytes
// so iteration order is reproducible.
func (x *SpendIndex) Spenders(op model.OutPoint) []chainhash.Hash {
	set, ok := x.spenders[op]
	if !ok {
		return nil
	}
	ids := make([]chainhash.Hash, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b chainhash.Hash) int {
		return bytes.Compare(a[:], b[:])
	})
	return ids
}
