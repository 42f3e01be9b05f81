package sync

import (
	"context"
	"testing"

	"github.com/sky-coderay/lighthouse/beacon-chain/blockchain"
	mock "github.com/sky-coderay/lighthouse/beacon-chain/blockchain/testing"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"github.com/sky-coderay/lighthouse/testing/assert"
	"github.com/sky-coderay/lighthouse/testing/require"
)

func TestBlocksByRange_OversizedRequestRejectedBeforeStorage(t *testing.T) {
	chain := &mock.ChainService{}
	s, p2p, _ := newTestService(t, chain)

	req := &p2ptypes.BeaconBlocksByRangeReq{StartSlot: 0, Count: 2000}
	s.BeaconBlocksByRangeHandler(context.Background(), testStreamID(1), req)

	require.Equal(t, 1, len(p2p.Errors))
	assert.Equal(t, responseCodeInvalidRequest, p2p.Errors[0].Code)
	assert.Equal(t, "Request exceeded max size", p2p.Errors[0].Reason)
	assert.Equal(t, 0, len(p2p.Responses))
	assert.Equal(t, 0, chain.IteratorCalls, "storage must not be touched for an invalid request")
}

func TestBlocksByRange_StreamsBlocksAndTerminatesOnce(t *testing.T) {
	rootA, rootB := rootBytes(0xa), rootBytes(0xb)
	chain := &mock.ChainService{
		Canonical: []mock.RootSlot{
			{Root: rootA, Slot: 10},
			{Root: rootA, Slot: 11},
			{Root: rootB, Slot: 12},
		},
		Blocks: map[[32]byte]*blocks.ROBlock{
			rootA: testROBlock(10, rootA, 0),
			rootB: testROBlock(12, rootB, 0),
		},
	}
	s, p2p, _ := newTestService(t, chain)

	req := &p2ptypes.BeaconBlocksByRangeReq{StartSlot: 10, Count: 3}
	s.BeaconBlocksByRangeHandler(context.Background(), testStreamID(1), req)

	assert.Equal(t, 2, len(p2p.Responses))
	require.Equal(t, 1, len(p2p.EndOfStreams))
	assert.Equal(t, 0, len(p2p.Errors))
	assert.Equal(t, 1, p2p.TerminalEvents())
}

func TestBlocksByRange_MissingCanonicalBlockIsServerError(t *testing.T) {
	rootA, rootB := rootBytes(0xa), rootBytes(0xb)
	chain := &mock.ChainService{
		Canonical: []mock.RootSlot{
			{Root: rootA, Slot: 10},
			{Root: rootB, Slot: 11},
		},
		// rootB is canonical but its block is gone from the store.
		Blocks: map[[32]byte]*blocks.ROBlock{
			rootA: testROBlock(10, rootA, 0),
		},
	}
	s, p2p, _ := newTestService(t, chain)

	req := &p2ptypes.BeaconBlocksByRangeReq{StartSlot: 10, Count: 2}
	s.BeaconBlocksByRangeHandler(context.Background(), testStreamID(1), req)

	require.Equal(t, 1, len(p2p.Errors))
	assert.Equal(t, responseCodeServerError, p2p.Errors[0].Code)
	assert.Equal(t, "Database inconsistency", p2p.Errors[0].Reason)
	assert.Equal(t, 1, p2p.TerminalEvents())
}

func TestBlocksByRange_MissingExecutionPayloadIsResourceUnavailable(t *testing.T) {
	rootA := rootBytes(0xa)
	chain := &mock.ChainService{
		Canonical:      []mock.RootSlot{{Root: rootA, Slot: 10}},
		BlockFetchErrs: map[[32]byte]error{rootA: blockchain.ErrMissingExecutionPayload},
	}
	s, p2p, _ := newTestService(t, chain)

	req := &p2ptypes.BeaconBlocksByRangeReq{StartSlot: 10, Count: 1}
	s.BeaconBlocksByRangeHandler(context.Background(), testStreamID(1), req)

	require.Equal(t, 1, len(p2p.Errors))
	assert.Equal(t, responseCodeResourceUnavailable, p2p.Errors[0].Code)
	assert.Equal(t, "Execution layer not synced", p2p.Errors[0].Reason)
}

func TestBlocksByRange_BackfillHorizonIsResourceUnavailable(t *testing.T) {
	chain := &mock.ChainService{
		IterErr: &blockchain.HistoricalDataOutOfRangeError{RequestedSlot: 5, OldestSlot: 100},
	}
	s, p2p, _ := newTestService(t, chain)

	req := &p2ptypes.BeaconBlocksByRangeReq{StartSlot: 5, Count: 10}
	s.BeaconBlocksByRangeHandler(context.Background(), testStreamID(1), req)

	require.Equal(t, 1, len(p2p.Errors))
	assert.Equal(t, responseCodeResourceUnavailable, p2p.Errors[0].Code)
	assert.Equal(t, "Backfilling", p2p.Errors[0].Reason)
}

func TestBlocksByRoot_SkipsUnknownRoots(t *testing.T) {
	rootA, rootB := rootBytes(0xa), rootBytes(0xb)
	chain := &mock.ChainService{
		Blocks: map[[32]byte]*blocks.ROBlock{
			rootA: testROBlock(10, rootA, 0),
		},
	}
	s, p2p, _ := newTestService(t, chain)

	s.BeaconBlocksByRootHandler(context.Background(), testStreamID(1), p2ptypes.BeaconBlocksByRootReq{rootA, rootB})

	assert.Equal(t, 1, len(p2p.Responses))
	require.Equal(t, 1, len(p2p.EndOfStreams))
	assert.Equal(t, 0, len(p2p.Errors))
}

func TestBlocksByRoot_EmptyRequestRejected(t *testing.T) {
	chain := &mock.ChainService{}
	s, p2p, _ := newTestService(t, chain)

	s.BeaconBlocksByRootHandler(context.Background(), testStreamID(1), p2ptypes.BeaconBlocksByRootReq{})

	require.Equal(t, 1, len(p2p.Errors))
	assert.Equal(t, responseCodeInvalidRequest, p2p.Errors[0].Code)
}
