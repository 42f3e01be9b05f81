package sync

import (
	"context"
	"testing"

	"github.com/sky-coderay/lighthouse/beacon-chain/blockchain"
	mock "github.com/sky-coderay/lighthouse/beacon-chain/blockchain/testing"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
	"github.com/sky-coderay/lighthouse/testing/assert"
	"github.com/sky-coderay/lighthouse/testing/require"
)

func testSegment(n int) []blocks.RPCBlock {
	segment := make([]blocks.RPCBlock, 0, n)
	for i := 0; i < n; i++ {
		root := rootBytes(byte(i + 1))
		segment = append(segment, testRPCBlock(primitives.Slot(i+10), root, 0))
	}
	return segment
}

func importedSummaries(segment []blocks.RPCBlock, n int) []blockchain.BlockSummary {
	out := make([]blockchain.BlockSummary, 0, n)
	for _, b := range segment[:n] {
		out = append(out, blockchain.BlockSummary{Root: b.Root(), Slot: b.Slot()})
	}
	return out
}

func TestProcessChainSegment_RangeBatchSuccess(t *testing.T) {
	segment := testSegment(4)
	chain := &mock.ChainService{
		SegmentResult: blockchain.ChainSegmentResult{Imported: importedSummaries(segment, 4)},
	}
	s, _, notifier := newTestService(t, chain)

	id := ChainSegmentProcessID{ChainID: 1, Epoch: 5}
	s.ProcessChainSegment(context.Background(), id, segment)

	require.Equal(t, 1, len(notifier.batches))
	res := notifier.batches[0].result
	assert.Equal(t, BatchSuccess, res.Status)
	assert.Equal(t, 4, res.SentBlocks)
	assert.Equal(t, 4, res.ImportedBlocks)
	assert.Equal(t, 1, chain.RecomputeCalls)
}

func TestProcessChainSegment_PartialImportThenFault(t *testing.T) {
	segment := testSegment(4)
	chain := &mock.ChainService{
		SegmentResult: blockchain.ChainSegmentResult{
			Imported: importedSummaries(segment, 2),
			Err:      &blockchain.ParentUnknownError{ParentRoot: rootBytes(0xee)},
		},
	}
	s, _, notifier := newTestService(t, chain)

	s.ProcessChainSegment(context.Background(), ChainSegmentProcessID{ChainID: 1, Epoch: 5}, segment)

	require.Equal(t, 1, len(notifier.batches))
	res := notifier.batches[0].result
	assert.Equal(t, BatchFaultyFailure, res.Status)
	assert.Equal(t, 2, res.ImportedBlocks)
	assert.Equal(t, p2ptypes.PeerActionLowToleranceError, res.Penalty)
	// The successfully imported prefix still advances the head.
	assert.Equal(t, 1, chain.RecomputeCalls)
}

func TestProcessChainSegment_BenignErrorsCountAsSuccess(t *testing.T) {
	for _, err := range []error{
		&blockchain.DuplicateFullyImportedError{BlockRoot: rootBytes(0x1)},
		blockchain.ErrDuplicateImportStatusUnknown,
		blockchain.ErrWouldRevertFinalizedSlot,
		blockchain.ErrGenesisBlock,
	} {
		segment := testSegment(2)
		chain := &mock.ChainService{
			SegmentResult: blockchain.ChainSegmentResult{Err: err},
		}
		s, _, notifier := newTestService(t, chain)

		s.ProcessChainSegment(context.Background(), ChainSegmentProcessID{ChainID: 1}, segment)

		require.Equal(t, 1, len(notifier.batches), "error %v", err)
		assert.Equal(t, BatchSuccess, notifier.batches[0].result.Status, "error %v", err)
	}
}

func TestProcessChainSegment_InternalErrorIsNonFaulty(t *testing.T) {
	segment := testSegment(2)
	chain := &mock.ChainService{
		SegmentResult: blockchain.ChainSegmentResult{
			Err: &blockchain.InternalError{Err: errTestDatabase},
		},
	}
	s, _, notifier := newTestService(t, chain)

	s.ProcessChainSegment(context.Background(), ChainSegmentProcessID{ChainID: 1}, segment)

	require.Equal(t, 1, len(notifier.batches))
	assert.Equal(t, BatchNonFaultyFailure, notifier.batches[0].result.Status)
}

func TestProcessChainSegment_ExecutionFaultAttribution(t *testing.T) {
	segment := testSegment(1)

	// Peer sent an invalid payload.
	chain := &mock.ChainService{
		SegmentResult: blockchain.ChainSegmentResult{
			Err: &blockchain.ExecutionPayloadError{Err: errTestDatabase, PeerFault: true},
		},
	}
	s, _, notifier := newTestService(t, chain)
	s.ProcessChainSegment(context.Background(), ChainSegmentProcessID{}, segment)
	require.Equal(t, 1, len(notifier.batches))
	assert.Equal(t, BatchFaultyFailure, notifier.batches[0].result.Status)

	// Our execution client is unhealthy.
	chain = &mock.ChainService{
		SegmentResult: blockchain.ChainSegmentResult{
			Err: &blockchain.ExecutionPayloadError{Err: errTestDatabase, PeerFault: false},
		},
	}
	s, _, notifier = newTestService(t, chain)
	s.ProcessChainSegment(context.Background(), ChainSegmentProcessID{}, segment)
	require.Equal(t, 1, len(notifier.batches))
	assert.Equal(t, BatchNonFaultyFailure, notifier.batches[0].result.Status)
}

func TestProcessChainSegment_InvalidParentPayloadPenalized(t *testing.T) {
	segment := testSegment(1)
	chain := &mock.ChainService{
		SegmentResult: blockchain.ChainSegmentResult{
			Err: &blockchain.ParentPayloadInvalidError{ParentRoot: rootBytes(0xee)},
		},
	}
	s, _, notifier := newTestService(t, chain)

	s.ProcessChainSegment(context.Background(), ChainSegmentProcessID{}, segment)

	require.Equal(t, 1, len(notifier.batches))
	res := notifier.batches[0].result
	assert.Equal(t, BatchFaultyFailure, res.Status)
	assert.Equal(t, p2ptypes.PeerActionLowToleranceError, res.Penalty)
}

func TestProcessChainSegment_OtherInvalidBlockNotPenalized(t *testing.T) {
	// Consensus-rule violations outside the explicit classifier rows fail the
	// batch without a peer penalty.
	for _, err := range []error{
		&blockchain.InvalidBlockError{Reason: "bad state root"},
		&blockchain.InvalidBlockError{Reason: "invalid proposer signature"},
	} {
		segment := testSegment(2)
		chain := &mock.ChainService{
			SegmentResult: blockchain.ChainSegmentResult{Err: err},
		}
		s, _, notifier := newTestService(t, chain)

		s.ProcessChainSegment(context.Background(), ChainSegmentProcessID{ChainID: 1}, segment)

		require.Equal(t, 1, len(notifier.batches), "error %v", err)
		assert.Equal(t, BatchNonFaultyFailure, notifier.batches[0].result.Status, "error %v", err)
	}
}

func TestProcessChainSegment_BackfillAllOrNothing(t *testing.T) {
	segment := testSegment(10)
	unavailable := map[[32]byte]bool{
		segment[3].Root(): true,
		segment[7].Root(): true,
	}
	chain := &mock.ChainService{Unavailable: unavailable}
	s, _, notifier := newTestService(t, chain)

	id := ChainSegmentProcessID{BackSync: true, Epoch: 3}
	s.ProcessChainSegment(context.Background(), id, segment)

	require.Equal(t, 1, len(notifier.batches))
	res := notifier.batches[0].result
	assert.Equal(t, BatchFaultyFailure, res.Status)
	assert.Equal(t, 0, res.ImportedBlocks, "a partially unavailable backfill batch must import nothing")
	assert.Equal(t, p2ptypes.PeerActionLowToleranceError, res.Penalty)
}

func TestProcessChainSegment_BackfillSuccess(t *testing.T) {
	segment := testSegment(8)
	chain := &mock.ChainService{HistoricalImported: 8}
	s, _, notifier := newTestService(t, chain)

	s.ProcessChainSegment(context.Background(), ChainSegmentProcessID{BackSync: true, Epoch: 3}, segment)

	require.Equal(t, 1, len(notifier.batches))
	res := notifier.batches[0].result
	assert.Equal(t, BatchSuccess, res.Status)
	assert.Equal(t, 8, res.ImportedBlocks)
}

func TestProcessChainSegment_BackfillInternalErrorsNotPenalized(t *testing.T) {
	for _, err := range []error{
		blockchain.ErrPubkeyCacheTimeout,
		blockchain.ErrIndexOutOfBounds,
		&blockchain.StoreError{Err: errTestDatabase},
	} {
		segment := testSegment(2)
		chain := &mock.ChainService{HistoricalErr: err}
		s, _, notifier := newTestService(t, chain)

		s.ProcessChainSegment(context.Background(), ChainSegmentProcessID{BackSync: true}, segment)

		require.Equal(t, 1, len(notifier.batches), "error %v", err)
		assert.Equal(t, BatchNonFaultyFailure, notifier.batches[0].result.Status, "error %v", err)
	}
}

func TestProcessChainSegment_BackfillPeerFaultsPenalized(t *testing.T) {
	for _, err := range []error{
		&blockchain.MismatchedBlockRootError{BlockRoot: rootBytes(0x1), ExpectedBlockRoot: rootBytes(0x2)},
		blockchain.ErrInvalidSignature,
	} {
		segment := testSegment(2)
		chain := &mock.ChainService{HistoricalErr: err}
		s, _, notifier := newTestService(t, chain)

		s.ProcessChainSegment(context.Background(), ChainSegmentProcessID{BackSync: true}, segment)

		require.Equal(t, 1, len(notifier.batches), "error %v", err)
		res := notifier.batches[0].result
		assert.Equal(t, BatchFaultyFailure, res.Status, "error %v", err)
		assert.Equal(t, p2ptypes.PeerActionLowToleranceError, res.Penalty, "error %v", err)
	}
}
