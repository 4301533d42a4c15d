package track

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/golang/mock/gomock"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
	"go.uber.org/zap"
)

var (
	walletScript = []byte{0xaa}
	otherScript  = []byte{0xbb}
)

func ownsWallet(pkScript []byte) bool {
	return bytes.Equal(pkScript, walletScript)
}

func newTestTracker(t *testing.T, ctrl *gomock.Controller) *Tracker {
	t.Helper()

	metrics := NewMockMetrics(ctrl)
	metrics.EXPECT().ObserveSubmit(gomock.Any(), gomock.Any()).AnyTimes()
	metrics.EXPECT().ObserveConnectBlock(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	metrics.EXPECT().ObserveDisconnectBlock(gomock.Any(), gomock.Any()).AnyTimes()

	tr, err := NewTracker(model.LNR, model.Regtest, ownsWallet, metrics, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewTracker returned error: %v", err)
	}
	return tr
}

func mustSubmit(t *testing.T, tr *Tracker, tx *model.Transaction) *model.Transaction {
	t.Helper()
	rec, err := tr.Submit(context.Background(), tx)
	if err != nil {
		t.Fatalf("Submit %s: %v", tx.TxID, err)
	}
	return rec
}

func mustConnect(t *testing.T, tr *Tracker, b byte, height uint64, txs ...*model.Transaction) chainhash.Hash {
	t.Helper()
	hash := chainhash.Hash{b}
	if err := tr.ConnectBlock(context.Background(), hash, height, txs); err != nil {
		t.Fatalf("ConnectBlock %d: %v", height, err)
	}
	return hash
}

func confirmations(t *testing.T, tr *Tracker, txid chainhash.Hash) int64 {
	t.Helper()
	conf, err := tr.Confirmations(txid)
	if err != nil {
		t.Fatalf("Confirmations %s: %v", txid, err)
	}
	return conf
}

// cloneScenario reproduces the malleated-clone reorg: the wallet funds two
// sends, an equivalent clone of the first send with different signature data
// appears only inside a mined block, and the original send is left behind.
type cloneScenario struct {
	fund1, fund2    *model.Transaction
	tx1, tx2, clone *model.Transaction
	b1Hash          chainhash.Hash
}

func setupCloneScenario(t *testing.T, tr *Tracker) cloneScenario {
	t.Helper()

	fund1 := newTx(t, nil, []model.TxOut{{Value: 50_000, PkScript: walletScript}})
	fund2 := newTx(t,
		[]model.TxIn{{PreviousOutPoint: outpoint(0xf0, 0)}},
		[]model.TxOut{{Value: 50_000, PkScript: walletScript}},
	)
	mustSubmit(t, tr, fund1)
	mustSubmit(t, tr, fund2)
	b1 := mustConnect(t, tr, 1, 1, fund1, fund2)

	tx1 := newTx(t,
		[]model.TxIn{{PreviousOutPoint: model.OutPoint{TxID: fund1.TxID}, SignatureScript: []byte{0x01}}},
		[]model.TxOut{
			{Value: 40_000, PkScript: otherScript},
			{Value: 9_900, PkScript: walletScript},
		},
	)
	tx2 := newTx(t,
		[]model.TxIn{{PreviousOutPoint: model.OutPoint{TxID: fund2.TxID}, SignatureScript: []byte{0x02}}},
		[]model.TxOut{
			{Value: 20_000, PkScript: otherScript},
			{Value: 29_900, PkScript: walletScript},
		},
	)
	mustSubmit(t, tr, tx1)
	mustSubmit(t, tr, tx2)

	// The clone spends the same outpoint with the same outputs but carries
	// different signature data, so it hashes to a different txid.
	clone := newTx(t,
		[]model.TxIn{{PreviousOutPoint: model.OutPoint{TxID: fund1.TxID}, SignatureScript: []byte{0x01, 0x99}}},
		[]model.TxOut{
			{Value: 40_000, PkScript: otherScript},
			{Value: 9_900, PkScript: walletScript},
		},
	)
	if clone.TxID == tx1.TxID {
		t.Fatalf("clone hashes to the same txid as the original")
	}

	return cloneScenario{fund1: fund1, fund2: fund2, tx1: tx1, tx2: tx2, clone: clone, b1Hash: b1}
}

func TestTracker_CloneScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)
	s := setupCloneScenario(t, tr)

	// Neither send has confirmed yet.
	if got := confirmations(t, tr, s.tx1.TxID); got != 0 {
		t.Fatalf("tx1 confirmations before mining = %d, want 0", got)
	}
	if got := confirmations(t, tr, s.tx2.TxID); got != 0 {
		t.Fatalf("tx2 confirmations before mining = %d, want 0", got)
	}

	// The clone arrives only via the mined block: implicit submission.
	mustConnect(t, tr, 2, 2, s.clone)
	if got := confirmations(t, tr, s.clone.TxID); got != 1 {
		t.Fatalf("clone confirmations = %d, want 1", got)
	}
	if got := confirmations(t, tr, s.tx1.TxID); got != -1 {
		t.Fatalf("tx1 confirmations = %d, want -1", got)
	}

	// Another block on top, carrying the unrelated second send.
	mustConnect(t, tr, 3, 3, s.tx2)

	if got := confirmations(t, tr, s.tx1.TxID); got != -2 {
		t.Fatalf("tx1 confirmations = %d, want -2", got)
	}
	if got := confirmations(t, tr, s.clone.TxID); got != 2 {
		t.Fatalf("clone confirmations = %d, want 2", got)
	}
	if got := confirmations(t, tr, s.tx2.TxID); got != 1 {
		t.Fatalf("tx2 confirmations = %d, want 1", got)
	}

	// Exactly one of the clone pair counts: the clone's change plus the
	// second send's change.
	balance := tr.Balance()
	if balance.Spendable != 9_900+29_900 {
		t.Fatalf("spendable = %d, want %d", balance.Spendable, 9_900+29_900)
	}
	if balance.Pending != 0 || balance.Immature != 0 {
		t.Fatalf("pending/immature = %d/%d, want 0/0", balance.Pending, balance.Immature)
	}

	// The conflicted original is still fully queryable.
	rec, err := tr.Get(s.tx1.TxID)
	if err != nil {
		t.Fatalf("Get conflicted tx: %v", err)
	}
	if rec.Status != model.StatusConflicted {
		t.Fatalf("tx1 status = %v, want conflicted", rec.Status)
	}
}

func TestTracker_CloneScenarioSummaries(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)
	s := setupCloneScenario(t, tr)
	mustConnect(t, tr, 2, 2, s.clone)
	mustConnect(t, tr, 3, 3, s.tx2)

	summaries := tr.ListTransactions()
	byID := make(map[chainhash.Hash]model.TransactionSummary, len(summaries))
	for _, sum := range summaries {
		byID[sum.TxID] = sum
	}

	tx1 := byID[s.tx1.TxID]
	if !tx1.FeeKnown || tx1.Fee != 100 {
		t.Fatalf("tx1 fee = %d (known=%v), want 100", tx1.Fee, tx1.FeeKnown)
	}
	if tx1.Amount != -40_000 {
		t.Fatalf("tx1 amount = %d, want -40000", tx1.Amount)
	}
	if tx1.Confirmations != -2 {
		t.Fatalf("tx1 confirmations = %d, want -2", tx1.Confirmations)
	}

	clone := byID[s.clone.TxID]
	if clone.Amount != -40_000 || clone.Confirmations != 2 {
		t.Fatalf("clone summary = %+v, want amount -40000 at 2 confirmations", clone)
	}

	// Ledger order is observation order: the clone was seen last.
	if summaries[len(summaries)-1].TxID != s.clone.TxID {
		t.Fatalf("last summary = %s, want clone %s", summaries[len(summaries)-1].TxID, s.clone.TxID)
	}
}

func TestTracker_DisconnectDoesNotReconfirmSibling(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)
	s := setupCloneScenario(t, tr)
	b2 := mustConnect(t, tr, 2, 2, s.clone)

	if err := tr.DisconnectBlock(context.Background(), b2); err != nil {
		t.Fatalf("DisconnectBlock: %v", err)
	}

	// Both competitors are merely pending again; neither is mined until a
	// future connect names one of them.
	for _, txid := range []chainhash.Hash{s.tx1.TxID, s.clone.TxID} {
		rec, err := tr.Get(txid)
		if err != nil {
			t.Fatalf("Get %s: %v", txid, err)
		}
		if rec.Status != model.StatusUnconfirmed {
			t.Fatalf("status of %s after disconnect = %v, want unconfirmed", txid, rec.Status)
		}
		if got := confirmations(t, tr, txid); got != 0 {
			t.Fatalf("confirmations of %s after disconnect = %d, want 0", txid, got)
		}
	}

	// A new block can now confirm the original instead.
	mustConnect(t, tr, 4, 2, s.tx1)
	if got := confirmations(t, tr, s.tx1.TxID); got != 1 {
		t.Fatalf("tx1 confirmations after re-mine = %d, want 1", got)
	}
	if got := confirmations(t, tr, s.clone.TxID); got != -1 {
		t.Fatalf("clone confirmations after re-mine = %d, want -1", got)
	}
}

func TestTracker_ConnectDisconnectRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)
	s := setupCloneScenario(t, tr)

	before := make(map[chainhash.Hash]model.Status)
	for _, sum := range tr.ListTransactions() {
		before[sum.TxID] = sum.Status
	}

	b2 := mustConnect(t, tr, 2, 2, s.clone)
	if err := tr.DisconnectBlock(context.Background(), b2); err != nil {
		t.Fatalf("DisconnectBlock: %v", err)
	}

	for _, sum := range tr.ListTransactions() {
		want, seen := before[sum.TxID]
		if !seen {
			// The clone entered the ledger through the block and stays
			// there as an unconfirmed record.
			if sum.TxID != s.clone.TxID || sum.Status != model.StatusUnconfirmed {
				t.Fatalf("unexpected new record %s with status %v", sum.TxID, sum.Status)
			}
			continue
		}
		if sum.Status != want {
			t.Fatalf("status of %s after round trip = %v, want %v", sum.TxID, sum.Status, want)
		}
	}
}

func TestTracker_BalanceIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)
	s := setupCloneScenario(t, tr)
	mustConnect(t, tr, 2, 2, s.clone)

	first := tr.Balance()
	second := tr.Balance()
	if first != second {
		t.Fatalf("Balance not idempotent: %+v then %+v", first, second)
	}
}

func TestTracker_IsolatedTransactionNeverConflicted(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)
	s := setupCloneScenario(t, tr)
	mustConnect(t, tr, 2, 2, s.clone)
	mustConnect(t, tr, 3, 3, s.tx2)

	rec, err := tr.Get(s.tx2.TxID)
	if err != nil {
		t.Fatalf("Get tx2: %v", err)
	}
	if rec.Status == model.StatusConflicted {
		t.Fatalf("transaction with no shared inputs became conflicted")
	}
}

func TestTracker_HeightCollisionRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)
	s := setupCloneScenario(t, tr)

	err := tr.ConnectBlock(context.Background(), chainhash.Hash{0x42}, 1, []*model.Transaction{s.clone})
	if !errors.Is(err, ErrChainViewViolation) {
		t.Fatalf("ConnectBlock at occupied height error = %v, want ErrChainViewViolation", err)
	}

	// Nothing was applied: the clone never entered the ledger.
	if _, err := tr.Get(s.clone.TxID); !errors.Is(err, ErrUnknownTransaction) {
		t.Fatalf("clone present after rejected connect: %v", err)
	}
}

func TestTracker_ReconnectTipIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)
	s := setupCloneScenario(t, tr)
	mustConnect(t, tr, 2, 2, s.clone)
	mustConnect(t, tr, 2, 2, s.clone)

	if got := confirmations(t, tr, s.clone.TxID); got != 1 {
		t.Fatalf("clone confirmations after duplicate connect = %d, want 1", got)
	}
}

func TestTracker_DuplicateSubmitKeepsConflictedState(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)
	s := setupCloneScenario(t, tr)
	mustConnect(t, tr, 2, 2, s.clone)

	rec, err := tr.Submit(context.Background(), s.tx1)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("duplicate Submit error = %v, want ErrDuplicateTransaction", err)
	}
	if rec.Status != model.StatusConflicted {
		t.Fatalf("duplicate Submit resurrected conflicted record: %v", rec.Status)
	}
}

func TestTracker_IgnoresIrrelevantBlockTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)

	foreign := newTx(t,
		[]model.TxIn{{PreviousOutPoint: outpoint(0xee, 0)}},
		[]model.TxOut{{Value: 123, PkScript: otherScript}},
	)
	mustConnect(t, tr, 1, 1, foreign)

	if _, err := tr.Get(foreign.TxID); !errors.Is(err, ErrUnknownTransaction) {
		t.Fatalf("irrelevant block transaction entered the ledger: %v", err)
	}
}

func TestTracker_CoinbaseImmature(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	tr := newTestTracker(t, ctrl)

	coinbase := newTx(t, nil, []model.TxOut{{Value: 5_000, PkScript: walletScript}})
	coinbase.Coinbase = true
	mustConnect(t, tr, 1, 1, coinbase)

	balance := tr.Balance()
	if balance.Immature != 5_000 || balance.Spendable != 0 {
		t.Fatalf("coinbase balance = %+v, want all immature", balance)
	}
}
