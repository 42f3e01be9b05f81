package blockchain

import (
	"context"

	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
)

// BlockRootIterator walks canonical (root, slot) pairs in ascending slot
// order. Skip slots repeat the previous root.
type BlockRootIterator interface {
	// Next advances the iterator, returning false at the end of the range or
	// on error. Error must be checked after Next returns false.
	Next() bool
	Root() [32]byte
	Slot() primitives.Slot
	Error() error
}

// BlockFetchResult is one element of an asynchronous block fetch. A nil Block
// with a nil Err means the root is unknown to the store.
type BlockFetchResult struct {
	Root  [32]byte
	Block *blocks.ROBlock
	Err   error
}

// AvailabilityStatus is the outcome of feeding a block component to the
// availability checker. Imported=false means the block is valid but still
// awaiting data components.
type AvailabilityStatus struct {
	BlockRoot [32]byte
	Slot      primitives.Slot
	Imported  bool
}

// BlockSummary identifies one imported block.
type BlockSummary struct {
	Root [32]byte
	Slot primitives.Slot
}

// ChainSegmentResult reports a contiguous segment import: the blocks imported
// before the first failure, and the failure itself if any.
type ChainSegmentResult struct {
	Imported []BlockSummary
	Err      error
}

// MaybeAvailableBlock is the per-block outcome of a bulk availability check.
type MaybeAvailableBlock struct {
	Block     blocks.RPCBlock
	Available bool
}

// ChainInfoFetcher exposes clock and status data.
type ChainInfoFetcher interface {
	CurrentSlot() primitives.Slot
	GenesisSlot() primitives.Slot
	StatusMessage() p2ptypes.StatusMessage
	// BlockRootAtSlot returns the canonical root at or before the given slot
	// (skip slots resolve to the previous block). ok=false when no block is
	// known at or before the slot.
	BlockRootAtSlot(ctx context.Context, slot primitives.Slot) (root [32]byte, ok bool, err error)
}

// BlockRootsFetcher provides forward canonical root iteration.
type BlockRootsFetcher interface {
	// ForwardsBlockRootsIterator starts at the given slot. Returns
	// *HistoricalDataOutOfRangeError while backfill has not reached the slot.
	ForwardsBlockRootsIterator(ctx context.Context, start primitives.Slot) (BlockRootIterator, error)
}

// BlockFetcher resolves block roots to full blocks. Fetches are asynchronous
// because blinded blocks require execution-layer payload reconstruction;
// results arrive in completion order, not request order.
type BlockFetcher interface {
	GetBlocks(ctx context.Context, roots [][32]byte) (<-chan BlockFetchResult, error)
	// GetBlocksCheckingCaches additionally consults the recently-seen block
	// caches before hitting the store.
	GetBlocksCheckingCaches(ctx context.Context, roots [][32]byte) (<-chan BlockFetchResult, error)
}

// SidecarFetcher resolves sidecars from canonical storage.
type SidecarFetcher interface {
	BlobSidecars(ctx context.Context, root [32]byte) ([]*blocks.BlobSidecar, error)
	// DataColumnSidecar returns nil without error when the column is simply
	// not stored.
	DataColumnSidecar(ctx context.Context, root [32]byte, index uint64) (*blocks.DataColumnSidecar, error)
}

// AvailabilityInfo exposes the retention state for pruned artifacts.
type AvailabilityInfo interface {
	// DataAvailabilityBoundary returns the earliest epoch for which sidecar
	// retention is guaranteed. ok=false when the fork is not enabled.
	DataAvailabilityBoundary() (primitives.Epoch, bool)
	OldestBlobSlot() (primitives.Slot, bool)
	OldestDataColumnSlot() (primitives.Slot, bool)
}

// LightClientProvider serves light-client artifacts.
type LightClientProvider interface {
	LightClientUpdates(ctx context.Context, startPeriod, count uint64) ([]*blocks.LightClientUpdate, error)
	// LightClientBootstrap returns nil without error when no bootstrap is
	// available for the root.
	LightClientBootstrap(ctx context.Context, root [32]byte) (*blocks.LightClientBootstrap, error)
	LatestOptimisticUpdate() *blocks.LightClientOptimisticUpdate
	LatestFinalityUpdate() *blocks.LightClientFinalityUpdate
}

// BlockImporter ingests blocks and data components delivered by peers.
type BlockImporter interface {
	// ProcessBlock verifies and imports a single block, returning the
	// availability outcome or one of the block import errors.
	ProcessBlock(ctx context.Context, root [32]byte, block blocks.RPCBlock) (AvailabilityStatus, error)
	ProcessBlobSidecars(ctx context.Context, root [32]byte, sidecars []*blocks.BlobSidecar) (AvailabilityStatus, error)
	ProcessDataColumnSidecars(ctx context.Context, sidecars []*blocks.DataColumnSidecar) (AvailabilityStatus, error)
	// ProcessChainSegment imports blocks in order, stopping at the first
	// failure.
	ProcessChainSegment(ctx context.Context, segment []blocks.RPCBlock) ChainSegmentResult
	// ImportHistoricalBlockBatch imports a fully-verified backfill batch,
	// returning the number of blocks imported.
	ImportHistoricalBlockBatch(ctx context.Context, segment []blocks.RPCBlock) (int, error)
	// VerifyKZGForRPCBlocks runs the bulk availability/KZG pass over a
	// downloaded segment.
	VerifyKZGForRPCBlocks(segment []blocks.RPCBlock) ([]MaybeAvailableBlock, error)
	// AttemptColumnReconstruction tries to complete availability for a block
	// from already-held columns. nil status means reconstruction was not
	// possible yet.
	AttemptColumnReconstruction(ctx context.Context, root [32]byte) (*AvailabilityStatus, error)
	// FetchEngineBlobs opportunistically requests missing blobs from the
	// execution layer using the block's commitments.
	FetchEngineBlobs(ctx context.Context, block blocks.ROBlock) error
	RecomputeHead(ctx context.Context)
	ShouldSampleSlot(slot primitives.Slot) bool
}

// Chain is the full collaborator surface the sync service wires in.
type Chain interface {
	ChainInfoFetcher
	BlockRootsFetcher
	BlockFetcher
	SidecarFetcher
	AvailabilityInfo
	LightClientProvider
	BlockImporter
}
