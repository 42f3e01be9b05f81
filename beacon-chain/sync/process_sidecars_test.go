package sync

import (
	"context"
	"testing"

	"github.com/sky-coderay/lighthouse/beacon-chain/blockchain"
	mock "github.com/sky-coderay/lighthouse/beacon-chain/blockchain/testing"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"github.com/sky-coderay/lighthouse/testing/assert"
	"github.com/sky-coderay/lighthouse/testing/require"
)

func TestProcessRPCBlobSidecars_CompletesImport(t *testing.T) {
	root := rootBytes(0xa)
	chain := &mock.ChainService{
		ProcessBlobsStatus: blockchain.AvailabilityStatus{BlockRoot: root, Slot: 10, Imported: true},
	}
	s, _, notifier := newTestService(t, chain)

	sidecars := []*blocks.BlobSidecar{{BlockRoot: root, Index: 0, Slot: 10}}
	s.ProcessRPCBlobSidecars(context.Background(), root, sidecars, BlockProcessType{Kind: ProcessKindSingleBlob})

	require.Equal(t, 1, len(notifier.components))
	require.NotNil(t, notifier.components[0].result.Status)
	assert.Equal(t, true, notifier.components[0].result.Status.Imported)
	assert.Equal(t, 1, chain.RecomputeCalls)
}

func TestProcessRPCBlobSidecars_EmptyBatchIgnored(t *testing.T) {
	chain := &mock.ChainService{}
	s, _, notifier := newTestService(t, chain)

	s.ProcessRPCBlobSidecars(context.Background(), rootBytes(0xa), nil, BlockProcessType{})

	require.Equal(t, 1, len(notifier.components))
	assert.Equal(t, true, notifier.components[0].result.Ignored)
}

func TestProcessRPCDataColumnSidecars_ReconstructionCompletesImport(t *testing.T) {
	root := rootBytes(0xa)
	chain := &mock.ChainService{
		ProcessColumnsStatus: blockchain.AvailabilityStatus{BlockRoot: root, Slot: 10, Imported: false},
		Reconstructed:        &blockchain.AvailabilityStatus{BlockRoot: root, Slot: 10, Imported: true},
	}
	s, _, notifier := newTestService(t, chain)

	sidecars := []*blocks.DataColumnSidecar{{BlockRoot: root, Index: 0, Slot: 10}}
	s.ProcessRPCDataColumnSidecars(context.Background(), root, sidecars, BlockProcessType{Kind: ProcessKindSingleColumn})

	require.Equal(t, 1, len(notifier.components))
	require.NotNil(t, notifier.components[0].result.Status)
	assert.Equal(t, true, notifier.components[0].result.Status.Imported)
	assert.Equal(t, 1, chain.RecomputeCalls)
}

func TestProcessRPCDataColumnSidecars_StillPendingWithoutReconstruction(t *testing.T) {
	root := rootBytes(0xa)
	chain := &mock.ChainService{
		ProcessColumnsStatus: blockchain.AvailabilityStatus{BlockRoot: root, Slot: 10, Imported: false},
	}
	s, _, notifier := newTestService(t, chain)

	sidecars := []*blocks.DataColumnSidecar{{BlockRoot: root, Index: 0, Slot: 10}}
	s.ProcessRPCDataColumnSidecars(context.Background(), root, sidecars, BlockProcessType{})

	require.Equal(t, 1, len(notifier.components))
	require.NotNil(t, notifier.components[0].result.Status)
	assert.Equal(t, false, notifier.components[0].result.Status.Imported)
	assert.Equal(t, 0, chain.RecomputeCalls)
}
