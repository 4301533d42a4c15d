package model

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// Block is a connected block as the tracker sees it: its identity and the
// wallet-relevant transactions it contains.
type Block struct {
	Hash   chainhash.Hash
	Height uint64
	TxIDs  []chainhash.Hash
}

// Ref returns the block's identity for storing on transaction records.
func (b *Block) Ref() BlockRef {
	return BlockRef{Hash: b.Hash, Height: b.Height}
}
