package sync

import (
	"context"
	"testing"

	mock "github.com/sky-coderay/lighthouse/beacon-chain/blockchain/testing"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"github.com/sky-coderay/lighthouse/testing/assert"
	"github.com/sky-coderay/lighthouse/testing/require"
)

func TestLightClientUpdatesByRange_StreamsUpdates(t *testing.T) {
	chain := &mock.ChainService{
		Updates: []*blocks.LightClientUpdate{{}, {}},
	}
	s, p2p, _ := newTestService(t, chain)

	req := &p2ptypes.LightClientUpdatesByRangeReq{StartPeriod: 100, Count: 4}
	s.LightClientUpdatesByRangeHandler(context.Background(), testStreamID(1), req)

	assert.Equal(t, 2, len(p2p.Responses))
	require.Equal(t, 1, len(p2p.EndOfStreams))
	assert.Equal(t, 0, len(p2p.Errors))
}

func TestLightClientUpdatesByRange_OversizedRequestRejected(t *testing.T) {
	chain := &mock.ChainService{}
	s, p2p, _ := newTestService(t, chain)

	req := &p2ptypes.LightClientUpdatesByRangeReq{StartPeriod: 0, Count: 200}
	s.LightClientUpdatesByRangeHandler(context.Background(), testStreamID(1), req)

	require.Equal(t, 1, len(p2p.Errors))
	assert.Equal(t, responseCodeInvalidRequest, p2p.Errors[0].Code)
}

func TestLightClientBootstrap_SingleItemHasNoTerminator(t *testing.T) {
	rootA := rootBytes(0xa)
	bootstrap := &blocks.LightClientBootstrap{}
	chain := &mock.ChainService{
		Bootstraps: map[[32]byte]*blocks.LightClientBootstrap{rootA: bootstrap},
	}
	s, p2p, _ := newTestService(t, chain)

	s.LightClientBootstrapHandler(context.Background(), testStreamID(1), &p2ptypes.LightClientBootstrapReq{BlockRoot: rootA})

	require.Equal(t, 1, len(p2p.Responses))
	assert.Equal(t, bootstrap, p2p.Responses[0])
	// The payload is its own terminator for single-item requests.
	assert.Equal(t, 0, len(p2p.EndOfStreams))
	assert.Equal(t, 0, len(p2p.Errors))
}

func TestLightClientBootstrap_UnavailableRoot(t *testing.T) {
	chain := &mock.ChainService{}
	s, p2p, _ := newTestService(t, chain)

	s.LightClientBootstrapHandler(context.Background(), testStreamID(1), &p2ptypes.LightClientBootstrapReq{BlockRoot: rootBytes(0xa)})

	require.Equal(t, 1, len(p2p.Errors))
	assert.Equal(t, responseCodeResourceUnavailable, p2p.Errors[0].Code)
	assert.Equal(t, "Bootstrap not available", p2p.Errors[0].Reason)
	assert.Equal(t, 0, len(p2p.Responses))
}

func TestLightClientOptimisticUpdate(t *testing.T) {
	update := &blocks.LightClientOptimisticUpdate{}
	chain := &mock.ChainService{OptimisticUpdate: update}
	s, p2p, _ := newTestService(t, chain)

	s.LightClientOptimisticUpdateHandler(context.Background(), testStreamID(1), &p2ptypes.LightClientOptimisticUpdateReq{})

	require.Equal(t, 1, len(p2p.Responses))
	assert.Equal(t, update, p2p.Responses[0])
	assert.Equal(t, 0, len(p2p.EndOfStreams))
}

func TestLightClientFinalityUpdate_Unavailable(t *testing.T) {
	chain := &mock.ChainService{}
	s, p2p, _ := newTestService(t, chain)

	s.LightClientFinalityUpdateHandler(context.Background(), testStreamID(1), &p2ptypes.LightClientFinalityUpdateReq{})

	require.Equal(t, 1, len(p2p.Errors))
	assert.Equal(t, responseCodeResourceUnavailable, p2p.Errors[0].Code)
	assert.Equal(t, "Latest finality update not available", p2p.Errors[0].Reason)
}
