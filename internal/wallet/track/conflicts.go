package track

import (
	"bytes"
	"slices"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

// conflictGroup returns the transitive closure of transactions sharing a
// spent outpoint with txid, including txid itself, ordered by first
// observation.
func (l *Ledger) conflictGroup(txid chainhash.Hash) []*model.Transaction {
	visited := map[chainhash.Hash]struct{}{txid: {}}
	queue := []chainhash.Hash{txid}
	var group []*model.Transaction

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		rec, ok := l.byID[id]
		if !ok {
			continue
		}
		group = append(group, rec)
		for _, in := range rec.Inputs {
			for _, spender := range l.index.Spenders(in.PreviousOutPoint) {
				if _, seen := visited[spender]; seen {
					continue
				}
				visited[spender] = struct{}{}
				queue = append(queue, spender)
			}
		}
	}

	slices.SortFunc(group, func(a, b *model.Transaction) int {
		if a.Sequence < b.Sequence {
			return -1
		}
		if a.Sequence > b.Sequence {
			return 1
		}
		return 0
	})
	return group
}

// statusChange is a staged transition computed by a resolution pass.
type statusChange struct {
	tx            *model.Transaction
	status        model.Status
	conflictPoint *model.BlockRef
}

// resolveGroup enforces the single-winner rule over one conflict group. At
// most one member may be mined; among several claims (transient during a
// reorg) the greater height wins, then the lexicographically smaller block
// hash. Every other member is conflicted while a winner exists and
// unconfirmed otherwise. Changes are staged and validated before they are
// applied, so a failed pass leaves the ledger untouched.
func resolveGroup(group []*model.Transaction) ([]statusChange, error) {
	var winner *model.Transaction
	for _, tx := range group {
		if tx.Mined == nil {
			continue
		}
		if winner == nil || minedBefore(tx, winner) {
			winner = tx
		}
	}

	changes := make([]statusChange, 0, len(group))
	for _, tx := range group {
		var want statusChange
		switch {
		case winner == nil:
			want = statusChange{tx: tx, status: model.StatusUnconfirmed}
		case tx == winner:
			want = statusChange{tx: tx, status: model.StatusMined}
		default:
			cp := tx.Mined
			if cp == nil {
				cp = winner.Mined
			}
			want = statusChange{tx: tx, status: model.StatusConflicted, conflictPoint: cp}
		}
		if tx.Status != want.status || !sameRef(tx.ConflictPoint, want.conflictPoint) {
			changes = append(changes, want)
		}
	}

	mined := 0
	for _, tx := range group {
		final := tx.Status
		for _, c := range changes {
			if c.tx == tx {
				final = c.status
			}
		}
		if final == model.StatusMined {
			mined++
		}
	}
	if mined > 1 {
		return nil, ErrInconsistentConflictGroup
	}

	for _, c := range changes {
		c.tx.Status = c.status
		c.tx.ConflictPoint = c.conflictPoint
	}
	return changes, nil
}

// minedBefore reports whether a's confirmation claim beats b's.
func minedBefore(a, b *model.Transaction) bool {
	if a.Mined.Height != b.Mined.Height {
		return a.Mined.Height > b.Mined.Height
	}
	return bytes.Compare(a.Mined.Hash[:], b.Mined.Hash[:]) < 0
}

func sameRef(a, b *model.BlockRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Height == b.Height && a.Hash == b.Hash
}
