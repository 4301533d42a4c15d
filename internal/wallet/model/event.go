package model

import "time"

// StatusEvent is one entry of the append-only status history: a transaction
// entering the ledger or changing chain membership.
type StatusEvent struct {
	Coin        Coin
	Network     Network
	TxID        string
	Status      Status
	BlockHash   string
	BlockHeight uint64
	Time        time.Time
}
