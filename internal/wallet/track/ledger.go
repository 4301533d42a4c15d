package track

import (
	"iter"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

// Ledger owns every transaction the wallet has observed, submitted or
// received. Records are never deleted: a conflicted transaction stays
// queryable for as long as the ledger lives.
type Ledger struct {
	byID    map[chainhash.Hash]*model.Transaction
	order   []chainhash.Hash
	index   *SpendIndex
	nextSeq uint64
}

// NewLedger constructs an empty Ledger with its own spend index.
func NewLedger() *Ledger {
	return &Ledger{
		byID:  make(map[chainhash.Hash]*model.Transaction),
		index: NewSpendIndex(),
	}
}

// Submit inserts tx as unconfirmed and registers its inputs in the spend
// index. Resubmitting a known txid returns the stored record together with
// ErrDuplicateTransaction and changes nothing; in particular it never
// resurrects a conflicted record.
func (l *Ledger) Submit(tx *model.Transaction) (*model.Transaction, error) {
	if existing, ok := l.byID[tx.TxID]; ok {
		return existing, ErrDuplicateTransaction
	}

	rec := tx.Clone()
	rec.Status = model.StatusUnconfirmed
	rec.Mined = nil
	rec.ConflictPoint = nil
	rec.Sequence = l.nextSeq
	l.nextSeq++

	l.byID[rec.TxID] = rec
	l.order = append(l.order, rec.TxID)
	l.index.Register(rec.TxID, rec.Inputs)
	return rec, nil
}

// Get returns the stored record or ErrUnknownTransaction.
func (l *Ledger) Get(txid chainhash.Hash) (*model.Transaction, error) {
	rec, ok := l.byID[txid]
	if !ok {
		return nil, ErrUnknownTransaction
	}
	return rec, nil
}

// Has reports whether txid has been observed.
func (l *Ledger) Has(txid chainhash.Hash) bool {
	_, ok := l.byID[txid]
	return ok
}

// All yields every record in order of first observation. The sequence is
// restartable and reflects the ledger state at iteration time.
func (l *Ledger) All() iter.Seq[*model.Transaction] {
	return func(yield func(*model.Transaction) bool) {
		for _, txid := range l.order {
			if !yield(l.byID[txid]) {
				return
			}
		}
	}
}

// Len returns the number of observed transactions.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Output resolves an outpoint against the ledger's own transactions.
func (l *Ledger) Output(op model.OutPoint) (model.TxOut, bool) {
	src, ok := l.byID[op.TxID]
	if !ok || op.Vout >= uint32(len(src.Outputs)) {
		return model.TxOut{}, false
	}
	return src.Outputs[op.Vout], true
}

// Fee returns the transaction's fee once every input resolves to a
// wallet-known output. A coinbase has no fee by definition.
func (l *Ledger) Fee(tx *model.Transaction) (btcutil.Amount, bool) {
	if tx.Coinbase {
		return 0, true
	}
	var sumIn btcutil.Amount
	for _, in := range tx.Inputs {
		out, ok := l.Output(in.PreviousOutPoint)
		if !ok {
			return 0, false
		}
		sumIn += out.Value
	}
	var sumOut btcutil.Amount
	for _, out := range tx.Outputs {
		sumOut += out.Value
	}
	return sumIn - sumOut, true
}
