// Package model defines domain models for wallet transaction tracking.
package model

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Status describes a transaction's relationship to the canonical chain.
type Status uint8

const (
	// StatusUnconfirmed marks a transaction not included in any connected block.
	StatusUnconfirmed Status = iota
	// StatusMined marks a transaction included in a connected block.
	StatusMined
	// StatusConflicted marks a transaction superseded by a mined transaction
	// spending one of its inputs.
	StatusConflicted
)

// String returns the status label used in logs, metrics and history records.
func (s Status) String() string {
	switch s {
	case StatusUnconfirmed:
		return "unconfirmed"
	case StatusMined:
		return "mined"
	case StatusConflicted:
		return "conflicted"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// OutPoint identifies a single output of a prior transaction.
type OutPoint struct {
	TxID chainhash.Hash
	Vout uint32
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Vout)
}

// TxIn references the previous output it consumes.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// TxOut carries a value in minor units and the locking script.
type TxOut struct {
	Value    btcutil.Amount
	PkScript []byte
}

// BlockRef points at a connected block without carrying its contents.
type BlockRef struct {
	Hash   chainhash.Hash
	Height uint64
}

// Transaction is the wallet's record of an observed transaction. The chain
// membership fields are maintained by the tracker: Mined is set while the
// confirming block is connected, ConflictPoint anchors the depth of a
// conflicted record (its own prior confirmation when it had one, otherwise
// the winning sibling's confirmation).
type Transaction struct {
	Coin     Coin
	Network  Network
	TxID     chainhash.Hash
	Version  int32
	Inputs   []TxIn
	Outputs  []TxOut
	LockTime uint32
	Coinbase bool

	Status        Status
	Mined         *BlockRef
	ConflictPoint *BlockRef
	Sequence      uint64
}

// Clone returns a deep copy so callers can hold records across mutations.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	cp.Inputs = make([]TxIn, len(t.Inputs))
	for i, in := range t.Inputs {
		cp.Inputs[i] = in
		cp.Inputs[i].SignatureScript = bytes.Clone(in.SignatureScript)
	}
	cp.Outputs = make([]TxOut, len(t.Outputs))
	for i, out := range t.Outputs {
		cp.Outputs[i] = out
		cp.Outputs[i].PkScript = bytes.Clone(out.PkScript)
	}
	if t.Mined != nil {
		mined := *t.Mined
		cp.Mined = &mined
	}
	if t.ConflictPoint != nil {
		cpt := *t.ConflictPoint
		cp.ConflictPoint = &cpt
	}
	return &cp
}

// ComputeTxID hashes the canonical serialization of version, inputs, outputs
// and locktime. Signature scripts are part of the serialization, so a
// re-signed clone of a transaction hashes to a different id even though it
// spends the same outpoints.
func ComputeTxID(tx *Transaction) chainhash.Hash {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(tx.Version))
	writeUint32(&buf, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf.Write(in.PreviousOutPoint.TxID[:])
		writeUint32(&buf, in.PreviousOutPoint.Vout)
		writeBytes(&buf, in.SignatureScript)
		writeUint32(&buf, in.Sequence)
	}
	writeUint32(&buf, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		writeUint64(&buf, uint64(out.Value))
		writeBytes(&buf, out.PkScript)
	}
	writeUint32(&buf, tx.LockTime)
	return chainhash.DoubleHashH(buf.Bytes())
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}
