// Package transport exposes the wallet tracker over HTTP JSON.
package transport

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// WalletAPI is the tracker surface the handler reads from.
	WalletAPI interface {
		Balance() model.Balance
		ListTransactions() []model.TransactionSummary
		Get(txid chainhash.Hash) (*model.Transaction, error)
		Confirmations(txid chainhash.Hash) (int64, error)
		Tip() (model.BlockRef, bool)
	}
)
