package sync

import (
	"github.com/sky-coderay/lighthouse/beacon-chain/blockchain"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
)

// resolveBlockRoots walks the canonical root iterator over the half-open slot
// window [start, start+count) and returns the distinct block roots in slot
// order. Skip slots repeat the preceding block's root, so consecutive
// duplicates are collapsed. prevRoot seeds the comparison with the root of
// the block preceding the window, which filters a leading duplicate when the
// window starts inside a skip run.
func resolveBlockRoots(
	iter blockchain.BlockRootIterator,
	start primitives.Slot,
	count uint64,
	prevRoot *[32]byte,
) ([][32]byte, error) {
	end := start.SaturatingAdd(count)
	var roots [][32]byte
	var last [32]byte
	haveLast := false
	if prevRoot != nil {
		last = *prevRoot
		haveLast = true
	}
	for iter.Next() {
		if iter.Slot() >= end {
			break
		}
		root := iter.Root()
		if haveLast && root == last {
			continue
		}
		roots = append(roots, root)
		last = root
		haveLast = true
	}
	return roots, iter.Error()
}
