package bitcoin

import (
	"bytes"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

// TransactionFromWire maps a wire transaction into the wallet model. A
// coinbase carries no spendable inputs, so its null outpoint is dropped
// rather than indexed.
func TransactionFromWire(mtx *wire.MsgTx, coin model.Coin, network model.Network) *model.Transaction {
	tx := &model.Transaction{
		Coin:     coin,
		Network:  network,
		TxID:     mtx.TxHash(),
		Version:  mtx.Version,
		LockTime: mtx.LockTime,
		Coinbase: isCoinbase(mtx),
	}

	if !tx.Coinbase {
		tx.Inputs = make([]model.TxIn, 0, len(mtx.TxIn))
		for _, in := range mtx.TxIn {
			tx.Inputs = append(tx.Inputs, model.TxIn{
				PreviousOutPoint: model.OutPoint{
					TxID: in.PreviousOutPoint.Hash,
					Vout: in.PreviousOutPoint.Index,
				},
				SignatureScript: bytes.Clone(in.SignatureScript),
				Sequence:        in.Sequence,
			})
		}
	}

	tx.Outputs = make([]model.TxOut, 0, len(mtx.TxOut))
	for _, out := range mtx.TxOut {
		tx.Outputs = append(tx.Outputs, model.TxOut{
			Value:    btcutil.Amount(out.Value),
			PkScript: bytes.Clone(out.PkScript),
		})
	}
	return tx
}

func isCoinbase(mtx *wire.MsgTx) bool {
	if len(mtx.TxIn) != 1 {
		return false
	}
	prev := mtx.TxIn[0].PreviousOutPoint
	return prev.Hash == (chainhash.Hash{}) && prev.Index == wire.MaxPrevOutIndex
}
