// Package types defines the req/resp protocol objects shared between the sync
// service and the network layer: inbound request shapes, error values, peer
// scoring actions and goodbye codes. Wire encoding lives entirely in the
// network layer; these are the decoded forms.
package types

import (
	"bytes"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
)

// RequestID correlates a decoded inbound request with the substream the
// network layer will write the responses to.
type RequestID uint64

// StreamID identifies one inbound request substream: the remote peer plus the
// network layer's request correlation id.
type StreamID struct {
	PeerID    peer.ID
	RequestID RequestID
}

// BeaconBlocksByRangeReq requests count blocks starting at StartSlot.
type BeaconBlocksByRangeReq struct {
	StartSlot primitives.Slot
	Count     uint64
}

// BeaconBlocksByRootReq requests blocks by their roots, in request order.
type BeaconBlocksByRootReq [][32]byte

// BlobIdentifier addresses a single blob sidecar.
type BlobIdentifier struct {
	BlockRoot [32]byte
	Index     uint64
}

// BlobSidecarsByRangeReq requests the blob sidecars of count slots starting at
// StartSlot.
type BlobSidecarsByRangeReq struct {
	StartSlot primitives.Slot
	Count     uint64
}

// BlobSidecarsByRootReq requests blob sidecars by (root, index) identifiers.
type BlobSidecarsByRootReq []BlobIdentifier

func (r BlobSidecarsByRootReq) Len() int      { return len(r) }
func (r BlobSidecarsByRootReq) Swap(i, j int) { r[i], r[j] = r[j], r[i] }
func (r BlobSidecarsByRootReq) Less(i, j int) bool {
	if c := bytes.Compare(r[i].BlockRoot[:], r[j].BlockRoot[:]); c != 0 {
		return c < 0
	}
	return r[i].Index < r[j].Index
}

// DataColumnIdentifier addresses a single data column sidecar.
type DataColumnIdentifier struct {
	BlockRoot [32]byte
	Index     uint64
}

// DataColumnSidecarsByRangeReq requests the given column indices for count
// slots starting at StartSlot.
type DataColumnSidecarsByRangeReq struct {
	StartSlot primitives.Slot
	Count     uint64
	Columns   []uint64
}

// MaxRequested returns the total number of column sidecars the request can
// resolve to. It saturates instead of wrapping so oversized counts cannot
// sneak under the protocol maximum.
func (r *DataColumnSidecarsByRangeReq) MaxRequested() uint64 {
	return primitives.SaturatingMul(r.Count, uint64(len(r.Columns)))
}

// DataColumnSidecarsByRootReq requests column sidecars by (root, index)
// identifiers.
type DataColumnSidecarsByRootReq []DataColumnIdentifier

func (r DataColumnSidecarsByRootReq) Len() int      { return len(r) }
func (r DataColumnSidecarsByRootReq) Swap(i, j int) { r[i], r[j] = r[j], r[i] }
func (r DataColumnSidecarsByRootReq) Less(i, j int) bool {
	if c := bytes.Compare(r[i].BlockRoot[:], r[j].BlockRoot[:]); c != 0 {
		return c < 0
	}
	return r[i].Index < r[j].Index
}

// LightClientUpdatesByRangeReq requests count updates starting at StartPeriod.
type LightClientUpdatesByRangeReq struct {
	StartPeriod uint64
	Count       uint64
}

// LightClientBootstrapReq requests a bootstrap for the given block root.
type LightClientBootstrapReq struct {
	BlockRoot [32]byte
}

// LightClientOptimisticUpdateReq requests the latest optimistic update.
type LightClientOptimisticUpdateReq struct{}

// LightClientFinalityUpdateReq requests the latest finality update.
type LightClientFinalityUpdateReq struct{}

// StatusMessage is the handshake exchanged on connection.
type StatusMessage struct {
	ForkDigest     [4]byte
	FinalizedRoot  [32]byte
	FinalizedEpoch primitives.Epoch
	HeadRoot       [32]byte
	HeadSlot       primitives.Slot
}

// SyncInfo is the peer view handed to the sync layer when a relevant peer
// completes the status handshake.
type SyncInfo struct {
	HeadSlot       primitives.Slot
	HeadRoot       [32]byte
	FinalizedEpoch primitives.Epoch
	FinalizedRoot  [32]byte
}
