package sync

import (
	"context"
	gosync "sync"
	"testing"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/pkg/errors"
	mock "github.com/sky-coderay/lighthouse/beacon-chain/blockchain/testing"
	p2ptest "github.com/sky-coderay/lighthouse/beacon-chain/p2p/testing"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
)

var errTestDatabase = errors.New("database failure")

type componentEvent struct {
	pt     BlockProcessType
	result BlockProcessingResult
}

type batchEvent struct {
	id     ChainSegmentProcessID
	result BatchProcessResult
}

type sampleEvent struct {
	root [32]byte
	slot primitives.Slot
}

// mockNotifier records sync-layer notifications and exposes a channel for
// asynchronous ones.
type mockNotifier struct {
	mu         gosync.Mutex
	peers      []peer.ID
	components []componentEvent
	batches    []batchEvent
	samples    []sampleEvent

	componentCh chan componentEvent
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{componentCh: make(chan componentEvent, 16)}
}

func (m *mockNotifier) AddPeer(pid peer.ID, _ p2ptypes.SyncInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.peers = append(m.peers, pid)
}

func (m *mockNotifier) BlockComponentProcessed(pt BlockProcessType, result BlockProcessingResult) {
	m.mu.Lock()
	ev := componentEvent{pt: pt, result: result}
	m.components = append(m.components, ev)
	m.mu.Unlock()
	select {
	case m.componentCh <- ev:
	default:
	}
}

func (m *mockNotifier) BatchProcessed(id ChainSegmentProcessID, result BatchProcessResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, batchEvent{id: id, result: result})
}

func (m *mockNotifier) SampleBlock(root [32]byte, slot primitives.Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, sampleEvent{root: root, slot: slot})
}

func (m *mockNotifier) componentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.components)
}

func newTestService(t *testing.T, chain *mock.ChainService) (*Service, *p2ptest.TestP2P, *mockNotifier) {
	t.Helper()
	p2p := &p2ptest.TestP2P{}
	notifier := newMockNotifier()
	s := NewService(context.Background(), &Config{
		Chain:        chain,
		P2P:          p2p,
		SyncNotifier: notifier,
	})
	t.Cleanup(func() {
		if err := s.Stop(); err != nil {
			t.Errorf("failed to stop service: %v", err)
		}
	})
	return s, p2p, notifier
}

func testStreamID(id uint64) p2ptypes.StreamID {
	return p2ptypes.StreamID{PeerID: peer.ID("test-peer"), RequestID: p2ptypes.RequestID(id)}
}

func rootBytes(b byte) [32]byte {
	var r [32]byte
	r[0] = b
	return r
}

func testROBlock(slot primitives.Slot, root [32]byte, commitments int) *blocks.ROBlock {
	kzg := make([][48]byte, commitments)
	rb := blocks.NewROBlock(&blocks.SignedBeaconBlock{Slot: slot, KzgCommitments: kzg}, root)
	return &rb
}

func testRPCBlock(slot primitives.Slot, root [32]byte, commitments int) blocks.RPCBlock {
	return blocks.RPCBlock{ROBlock: *testROBlock(slot, root, commitments)}
}
