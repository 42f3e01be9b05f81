// Package testing provides a configurable chain mock for sync service tests.
package testing

import (
	"context"
	gosync "sync"

	"github.com/sky-coderay/lighthouse/beacon-chain/blockchain"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
)

// RootSlot is one canonical chain entry.
type RootSlot struct {
	Root [32]byte
	Slot primitives.Slot
}

// ChainService is a mock of blockchain.Chain. Zero values behave like an
// empty chain; tests populate only the fields their scenario touches.
type ChainService struct {
	mu gosync.Mutex

	Slot    primitives.Slot
	Genesis primitives.Slot
	Status  p2ptypes.StatusMessage

	// Canonical holds the canonical (root, slot) pairs in ascending slot
	// order, including skip-slot repeats where tests want them.
	Canonical []RootSlot
	IterErr   error

	Blocks         map[[32]byte]*blocks.ROBlock
	BlockFetchErrs map[[32]byte]error

	Blobs    map[[32]byte][]*blocks.BlobSidecar
	BlobErrs map[[32]byte]error

	Columns   map[p2ptypes.DataColumnIdentifier]*blocks.DataColumnSidecar
	ColumnErr error

	Boundary        primitives.Epoch
	BoundaryOK      bool
	OldestBlob      primitives.Slot
	HasOldestBlob   bool
	OldestColumn    primitives.Slot
	HasOldestColumn bool

	Updates          []*blocks.LightClientUpdate
	UpdatesErr       error
	Bootstraps       map[[32]byte]*blocks.LightClientBootstrap
	BootstrapErr     error
	OptimisticUpdate *blocks.LightClientOptimisticUpdate
	FinalityUpdate   *blocks.LightClientFinalityUpdate

	ProcessBlockFn     func(root [32]byte, block blocks.RPCBlock) (blockchain.AvailabilityStatus, error)
	ProcessBlockStatus blockchain.AvailabilityStatus
	ProcessBlockErr    error

	ProcessBlobsStatus blockchain.AvailabilityStatus
	ProcessBlobsErr    error

	ProcessColumnsStatus blockchain.AvailabilityStatus
	ProcessColumnsErr    error

	SegmentResult blockchain.ChainSegmentResult

	Unavailable map[[32]byte]bool
	VerifyErr   error

	HistoricalImported int
	HistoricalErr      error

	Reconstructed  *blockchain.AvailabilityStatus
	ReconstructErr error

	FetchEngineBlobsErr error
	SampleAll           bool

	// Recorded calls.
	IteratorCalls     int
	ProcessBlockCalls int
	EngineBlobRoots   [][32]byte
	RecomputeCalls    int
}

var _ blockchain.Chain = (*ChainService)(nil)

// CurrentSlot mocks the clock.
func (c *ChainService) CurrentSlot() primitives.Slot { return c.Slot }

// GenesisSlot mocks the genesis slot.
func (c *ChainService) GenesisSlot() primitives.Slot { return c.Genesis }

// StatusMessage mocks the local status handshake payload.
func (c *ChainService) StatusMessage() p2ptypes.StatusMessage { return c.Status }

// BlockRootAtSlot returns the canonical root at or before the slot.
func (c *ChainService) BlockRootAtSlot(_ context.Context, slot primitives.Slot) ([32]byte, bool, error) {
	var root [32]byte
	found := false
	for _, rs := range c.Canonical {
		if rs.Slot > slot {
			break
		}
		root = rs.Root
		found = true
	}
	return root, found, nil
}

type sliceIterator struct {
	entries []RootSlot
	pos     int
}

func (it *sliceIterator) Next() bool {
	it.pos++
	return it.pos < len(it.entries)
}

func (it *sliceIterator) Root() [32]byte        { return it.entries[it.pos].Root }
func (it *sliceIterator) Slot() primitives.Slot { return it.entries[it.pos].Slot }
func (it *sliceIterator) Error() error          { return nil }

// ForwardsBlockRootsIterator iterates Canonical from the first entry at or
// after start.
func (c *ChainService) ForwardsBlockRootsIterator(_ context.Context, start primitives.Slot) (blockchain.BlockRootIterator, error) {
	c.mu.Lock()
	c.IteratorCalls++
	c.mu.Unlock()
	if c.IterErr != nil {
		return nil, c.IterErr
	}
	first := len(c.Canonical)
	for i, rs := range c.Canonical {
		if rs.Slot >= start {
			first = i
			break
		}
	}
	return &sliceIterator{entries: c.Canonical[first:], pos: -1}, nil
}

func (c *ChainService) fetchBlocks(roots [][32]byte) <-chan blockchain.BlockFetchResult {
	out := make(chan blockchain.BlockFetchResult, len(roots))
	for _, root := range roots {
		if err, ok := c.BlockFetchErrs[root]; ok {
			out <- blockchain.BlockFetchResult{Root: root, Err: err}
			continue
		}
		out <- blockchain.BlockFetchResult{Root: root, Block: c.Blocks[root]}
	}
	close(out)
	return out
}

// GetBlocks resolves roots against the Blocks map.
func (c *ChainService) GetBlocks(_ context.Context, roots [][32]byte) (<-chan blockchain.BlockFetchResult, error) {
	return c.fetchBlocks(roots), nil
}

// GetBlocksCheckingCaches behaves like GetBlocks in the mock.
func (c *ChainService) GetBlocksCheckingCaches(_ context.Context, roots [][32]byte) (<-chan blockchain.BlockFetchResult, error) {
	return c.fetchBlocks(roots), nil
}

// BlobSidecars returns the configured sidecars for the root.
func (c *ChainService) BlobSidecars(_ context.Context, root [32]byte) ([]*blocks.BlobSidecar, error) {
	if err, ok := c.BlobErrs[root]; ok {
		return nil, err
	}
	return c.Blobs[root], nil
}

// DataColumnSidecar returns the configured column, nil when absent.
func (c *ChainService) DataColumnSidecar(_ context.Context, root [32]byte, index uint64) (*blocks.DataColumnSidecar, error) {
	if c.ColumnErr != nil {
		return nil, c.ColumnErr
	}
	return c.Columns[p2ptypes.DataColumnIdentifier{BlockRoot: root, Index: index}], nil
}

// DataAvailabilityBoundary mocks the retention boundary.
func (c *ChainService) DataAvailabilityBoundary() (primitives.Epoch, bool) {
	return c.Boundary, c.BoundaryOK
}

// OldestBlobSlot mocks the oldest stored blob slot.
func (c *ChainService) OldestBlobSlot() (primitives.Slot, bool) {
	return c.OldestBlob, c.HasOldestBlob
}

// OldestDataColumnSlot mocks the oldest stored column slot.
func (c *ChainService) OldestDataColumnSlot() (primitives.Slot, bool) {
	return c.OldestColumn, c.HasOldestColumn
}

// LightClientUpdates returns the configured updates regardless of range.
func (c *ChainService) LightClientUpdates(_ context.Context, _, _ uint64) ([]*blocks.LightClientUpdate, error) {
	if c.UpdatesErr != nil {
		return nil, c.UpdatesErr
	}
	return c.Updates, nil
}

// LightClientBootstrap returns the configured bootstrap for the root.
func (c *ChainService) LightClientBootstrap(_ context.Context, root [32]byte) (*blocks.LightClientBootstrap, error) {
	if c.BootstrapErr != nil {
		return nil, c.BootstrapErr
	}
	return c.Bootstraps[root], nil
}

// LatestOptimisticUpdate returns the configured update.
func (c *ChainService) LatestOptimisticUpdate() *blocks.LightClientOptimisticUpdate {
	return c.OptimisticUpdate
}

// LatestFinalityUpdate returns the configured update.
func (c *ChainService) LatestFinalityUpdate() *blocks.LightClientFinalityUpdate {
	return c.FinalityUpdate
}

// ProcessBlock records the call and returns the configured outcome.
func (c *ChainService) ProcessBlock(_ context.Context, root [32]byte, block blocks.RPCBlock) (blockchain.AvailabilityStatus, error) {
	c.mu.Lock()
	c.ProcessBlockCalls++
	c.mu.Unlock()
	if c.ProcessBlockFn != nil {
		return c.ProcessBlockFn(root, block)
	}
	return c.ProcessBlockStatus, c.ProcessBlockErr
}

// ProcessBlobSidecars returns the configured outcome.
func (c *ChainService) ProcessBlobSidecars(_ context.Context, _ [32]byte, _ []*blocks.BlobSidecar) (blockchain.AvailabilityStatus, error) {
	return c.ProcessBlobsStatus, c.ProcessBlobsErr
}

// ProcessDataColumnSidecars returns the configured outcome.
func (c *ChainService) ProcessDataColumnSidecars(_ context.Context, _ []*blocks.DataColumnSidecar) (blockchain.AvailabilityStatus, error) {
	return c.ProcessColumnsStatus, c.ProcessColumnsErr
}

// ProcessChainSegment returns the configured segment result.
func (c *ChainService) ProcessChainSegment(_ context.Context, _ []blocks.RPCBlock) blockchain.ChainSegmentResult {
	return c.SegmentResult
}

// ImportHistoricalBlockBatch returns the configured outcome.
func (c *ChainService) ImportHistoricalBlockBatch(_ context.Context, _ []blocks.RPCBlock) (int, error) {
	return c.HistoricalImported, c.HistoricalErr
}

// VerifyKZGForRPCBlocks marks blocks unavailable per the Unavailable map.
func (c *ChainService) VerifyKZGForRPCBlocks(segment []blocks.RPCBlock) ([]blockchain.MaybeAvailableBlock, error) {
	if c.VerifyErr != nil {
		return nil, c.VerifyErr
	}
	out := make([]blockchain.MaybeAvailableBlock, 0, len(segment))
	for _, b := range segment {
		out = append(out, blockchain.MaybeAvailableBlock{Block: b, Available: !c.Unavailable[b.Root()]})
	}
	return out, nil
}

// AttemptColumnReconstruction returns the configured outcome.
func (c *ChainService) AttemptColumnReconstruction(_ context.Context, _ [32]byte) (*blockchain.AvailabilityStatus, error) {
	if c.ReconstructErr != nil {
		return nil, c.ReconstructErr
	}
	return c.Reconstructed, nil
}

// FetchEngineBlobs records the requested root.
func (c *ChainService) FetchEngineBlobs(_ context.Context, block blocks.ROBlock) error {
	c.mu.Lock()
	c.EngineBlobRoots = append(c.EngineBlobRoots, block.Root())
	c.mu.Unlock()
	return c.FetchEngineBlobsErr
}

// RecomputeHead records the call.
func (c *ChainService) RecomputeHead(_ context.Context) {
	c.mu.Lock()
	c.RecomputeCalls++
	c.mu.Unlock()
}

// ShouldSampleSlot reports the configured sampling policy.
func (c *ChainService) ShouldSampleSlot(_ primitives.Slot) bool {
	return c.SampleAll
}
