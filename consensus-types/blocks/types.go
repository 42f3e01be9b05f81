// Package blocks contains the consensus object views exchanged between the
// sync service and its chain/storage collaborators. The sync core never
// inspects block bodies beyond slot, parent linkage and blob commitments, so
// these are deliberately thin.
package blocks

import (
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
)

// SignedBeaconBlock is the minimal view of a signed block needed for request
// servicing and segment import.
type SignedBeaconBlock struct {
	Slot          primitives.Slot
	ProposerIndex uint64
	ParentRoot    [32]byte
	StateRoot     [32]byte

	// KzgCommitments are the blob commitments carried by the block body. Its
	// length is the number of blob sidecars the block obligates.
	KzgCommitments [][48]byte
}

// NumExpectedBlobs returns the number of blob sidecars the block commits to.
func (b *SignedBeaconBlock) NumExpectedBlobs() int {
	if b == nil {
		return 0
	}
	return len(b.KzgCommitments)
}

// ROBlock is a block coupled with its previously computed hash tree root, so
// downstream code never recomputes or guesses roots.
type ROBlock struct {
	block *SignedBeaconBlock
	root  [32]byte
}

// NewROBlock wraps a block with its root.
func NewROBlock(b *SignedBeaconBlock, root [32]byte) ROBlock {
	return ROBlock{block: b, root: root}
}

// Block returns the underlying block.
func (b ROBlock) Block() *SignedBeaconBlock {
	return b.block
}

// Root returns the block root.
func (b ROBlock) Root() [32]byte {
	return b.root
}

// Slot returns the block's slot, or zero for the empty value.
func (b ROBlock) Slot() primitives.Slot {
	if b.block == nil {
		return 0
	}
	return b.block.Slot
}

// IsNil reports whether the wrapper holds no block.
func (b ROBlock) IsNil() bool {
	return b.block == nil
}

// RPCBlock is a block paired with the data-availability components that were
// downloaded alongside it. Range-sync and backfill batches are slices of these.
type RPCBlock struct {
	ROBlock
	Blobs   []*BlobSidecar
	Columns []*DataColumnSidecar
}

// NumBlobs returns the number of downloaded blob sidecars.
func (b RPCBlock) NumBlobs() int {
	return len(b.Blobs)
}

// NumColumns returns the number of downloaded data column sidecars.
func (b RPCBlock) NumColumns() int {
	return len(b.Columns)
}

// BlobSidecar is the blob payload associated with one (block root, index) pair.
type BlobSidecar struct {
	BlockRoot     [32]byte
	Index         uint64
	Slot          primitives.Slot
	KzgCommitment [48]byte
}

// DataColumnSidecar is the column payload associated with one
// (block root, column index) pair.
type DataColumnSidecar struct {
	BlockRoot [32]byte
	Index     uint64
	Slot      primitives.Slot
}

// Light-client artifacts are produced and cached by the chain collaborator;
// the sync core only relays them.

// LightClientUpdate is a single sync-committee period update.
type LightClientUpdate struct {
	AttestedSlot  primitives.Slot
	SignatureSlot primitives.Slot
}

// LightClientBootstrap seeds a light client at a finalized checkpoint root.
type LightClientBootstrap struct {
	HeaderSlot primitives.Slot
}

// LightClientOptimisticUpdate is the latest optimistic head update.
type LightClientOptimisticUpdate struct {
	SignatureSlot primitives.Slot
}

// LightClientFinalityUpdate is the latest finality update.
type LightClientFinalityUpdate struct {
	SignatureSlot primitives.Slot
}
