package sync

import (
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/sky-coderay/lighthouse/beacon-chain/blockchain"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
)

// BlockProcessKind tags which lookup pipeline a single-component import
// belongs to.
type BlockProcessKind uint8

const (
	ProcessKindSingleBlock BlockProcessKind = iota
	ProcessKindSingleBlob
	ProcessKindSingleColumn
)

// BlockProcessType correlates a single-component import with the sync-layer
// lookup that requested it.
type BlockProcessType struct {
	Kind BlockProcessKind
	ID   uint64
}

// BlockProcessingResult is the outcome delivered to the sync layer for one
// component import. Exactly one of Status, Err or Ignored is meaningful.
type BlockProcessingResult struct {
	Status  *blockchain.AvailabilityStatus
	Err     error
	Ignored bool
}

// ChainSegmentProcessID identifies one segment-import attempt. It is used for
// correlation and logging, not exclusivity.
type ChainSegmentProcessID struct {
	// BackSync marks a backfill batch; otherwise this is a range-sync batch
	// belonging to ChainID.
	BackSync bool
	ChainID  uint64
	Epoch    primitives.Epoch
}

// BatchStatus is the aggregate outcome of one downloaded segment.
type BatchStatus uint8

const (
	// BatchSuccess means the whole segment was accepted.
	BatchSuccess BatchStatus = iota
	// BatchFaultyFailure means the failure is attributable to the sending
	// peer and carries a penalty.
	BatchFaultyFailure
	// BatchNonFaultyFailure means the failure was internal or transient; the
	// peer must not be penalized.
	BatchNonFaultyFailure
)

// BatchProcessResult reports a processed segment to the sync layer.
type BatchProcessResult struct {
	Status         BatchStatus
	SentBlocks     int
	ImportedBlocks int
	// Penalty is meaningful only when Status is BatchFaultyFailure.
	Penalty p2ptypes.PeerAction
}

// SyncNotifier receives the notifications the import pipeline emits toward
// the sync layer.
type SyncNotifier interface {
	AddPeer(pid peer.ID, info p2ptypes.SyncInfo)
	BlockComponentProcessed(pt BlockProcessType, result BlockProcessingResult)
	BatchProcessed(id ChainSegmentProcessID, result BatchProcessResult)
	SampleBlock(root [32]byte, slot primitives.Slot)
}

// ResponseSender is the network-layer surface used to stream request
// responses. The wire encoding and substream bookkeeping live behind it.
type ResponseSender interface {
	SendResponse(id p2ptypes.StreamID, payload interface{})
	// SendEndOfStream writes the success terminator of a streamed response.
	SendEndOfStream(id p2ptypes.StreamID)
	SendErrorResponse(id p2ptypes.StreamID, code byte, reason string)
	GoodbyePeer(pid peer.ID, reason p2ptypes.GoodbyeReason)
}
