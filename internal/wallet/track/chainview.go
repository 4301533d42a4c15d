package track

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/younicoin/LunariumCoin-2.0/internal/wallet/model"
)

// ChainView is the ordered sequence of connected blocks the tracker has been
// told about. It does not judge why blocks connect or disconnect; it only
// rejects events that contradict what is already connected.
type ChainView struct {
	blocks []*model.Block
	byHash map[chainhash.Hash]*model.Block
}

// NewChainView constructs an empty ChainView.
func NewChainView() *ChainView {
	return &ChainView{byHash: make(map[chainhash.Hash]*model.Block)}
}

// Tip returns the highest connected block, if any.
func (v *ChainView) Tip() (model.BlockRef, bool) {
	if len(v.blocks) == 0 {
		return model.BlockRef{}, false
	}
	return v.blocks[len(v.blocks)-1].Ref(), true
}

// Block returns the connected block with the given hash.
func (v *ChainView) Block(hash chainhash.Hash) (*model.Block, bool) {
	b, ok := v.byHash[hash]
	return b, ok
}

// CheckConnect validates a connect event against the current view without
// applying it. A height collision with a different block, a gap above the
// tip, or a hash reuse at another height is ErrChainViewViolation. A
// re-connect of an identical already-connected block is reported as already
// connected so callers can treat it as a no-op.
func (v *ChainView) CheckConnect(hash chainhash.Hash, height uint64) (alreadyConnected bool, err error) {
	if existing, ok := v.byHash[hash]; ok {
		if existing.Height == height {
			return true, nil
		}
		return false, fmt.Errorf("block %s connected at height %d, not %d: %w",
			hash, existing.Height, height, ErrChainViewViolation)
	}
	if len(v.blocks) == 0 {
		return false, nil
	}
	tip := v.blocks[len(v.blocks)-1]
	if height <= tip.Height {
		if at, ok := v.blockAtHeight(height); ok && at.Hash != hash {
			return false, fmt.Errorf("height %d already connected as %s: %w",
				height, at.Hash, ErrChainViewViolation)
		}
		return false, fmt.Errorf("height %d at or below tip %d: %w",
			height, tip.Height, ErrChainViewViolation)
	}
	if height != tip.Height+1 {
		return false, fmt.Errorf("height %d leaves a gap above tip %d: %w",
			height, tip.Height, ErrChainViewViolation)
	}
	return false, nil
}

// Connect appends a validated block to the view.
func (v *ChainView) Connect(b *model.Block) error {
	already, err := v.CheckConnect(b.Hash, b.Height)
	if err != nil {
		return err
	}
	if already {
		return nil
	}
	v.blocks = append(v.blocks, b)
	v.byHash[b.Hash] = b
	return nil
}

// DisconnectTip removes the named block, which must be the current tip:
// blocks disconnect in reverse connect order or not at all.
func (v *ChainView) DisconnectTip(hash chainhash.Hash) (*model.Block, error) {
	if len(v.blocks) == 0 {
		return nil, fmt.Errorf("disconnect %s from empty chain: %w", hash, ErrChainViewViolation)
	}
	tip := v.blocks[len(v.blocks)-1]
	if tip.Hash != hash {
		return nil, fmt.Errorf("disconnect %s but tip is %s: %w", hash, tip.Hash, ErrChainViewViolation)
	}
	v.blocks = v.blocks[:len(v.blocks)-1]
	delete(v.byHash, hash)
	return tip, nil
}

func (v *ChainView) blockAtHeight(height uint64) (*model.Block, bool) {
	for _, b := range v.blocks {
		if b.Height == height {
			return b, true
		}
	}
	return nil, false
}
