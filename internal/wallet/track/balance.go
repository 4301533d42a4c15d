package track

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

// Balance computes the balance breakdown as a pure function of the current
// ledger and chain view: repeated calls with no intervening mutation return
// identical results. Only the currently winning member of each conflict
// group contributes outputs and consumes inputs, so a fee is charged exactly
// once no matter how many conflicting siblings exist.
func (t *Tracker) Balance() model.Balance {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balanceLocked()
}

func (t *Tracker) balanceLocked() model.Balance {
	var b model.Balance
	for tx := range t.ledger.All() {
		if tx.Status == model.StatusConflicted {
			continue
		}
		conf := t.confirmationsLocked(tx)
		for i, out := range tx.Outputs {
			if !t.owns(out.PkScript) {
				continue
			}
			op := model.OutPoint{TxID: tx.TxID, Vout: uint32(i)}
			if t.spentByLiveLocked(op) {
				continue
			}
			switch {
			case tx.Coinbase && conf < t.coinbaseMaturity:
				b.Immature += out.Value
			case conf >= t.maturity:
				b.Spendable += out.Value
			default:
				b.Pending += out.Value
			}
		}
	}
	return b
}

// spentByLiveLocked reports whether a non-conflicted ledger transaction
// spends the outpoint. Conflicted spenders do not consume outputs.
func (t *Tracker) spentByLiveLocked(op model.OutPoint) bool {
	for _, id := range t.ledger.index.Spenders(op) {
		rec, err := t.ledger.Get(id)
		if err != nil {
			continue
		}
		if rec.Status != model.StatusConflicted {
			return true
		}
	}
	return false
}

// ListTransactions returns a summary of every observed transaction in order
// of first observation, conflicted ones included.
func (t *Tracker) ListTransactions() []model.TransactionSummary {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]model.TransactionSummary, 0, t.ledger.Len())
	for tx := range t.ledger.All() {
		fee, feeKnown := t.ledger.Fee(tx)

		var credit, debit btcutil.Amount
		for _, o := range tx.Outputs {
			if t.owns(o.PkScript) {
				credit += o.Value
			}
		}
		for _, in := range tx.Inputs {
			if o, ok := t.ledger.Output(in.PreviousOutPoint); ok && t.owns(o.PkScript) {
				debit += o.Value
			}
		}
		amount := credit - debit
		if feeKnown {
			// Report the net effect excluding the fee; the fee is
			// surfaced separately.
			amount += fee
		}

		out = append(out, model.TransactionSummary{
			TxID:          tx.TxID,
			Amount:        amount,
			Fee:           fee,
			FeeKnown:      feeKnown,
			Confirmations: t.confirmationsLocked(tx),
			Status:        tx.Status,
		})
	}
	return out
}
