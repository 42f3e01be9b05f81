package sync

import (
	"context"

	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
	"github.com/sky-coderay/lighthouse/time/slots"
)

type sidecarKind string

const (
	blobKind   sidecarKind = "blob"
	columnKind sidecarKind = "data column"
)

// checkAvailabilityBoundary gates sidecar range requests against the data
// availability window. The requested start slot must be at or after the
// oldest slot the node is expected to serve, which is the oldest stored
// sidecar slot when one exists and the boundary slot otherwise. Requests
// below that line are the server's fault when the boundary itself is below
// it (sidecars were pruned too eagerly) and the requester's fault otherwise.
func (s *Service) checkAvailabilityBoundary(
	start primitives.Slot,
	oldestStored primitives.Slot,
	hasStored bool,
	kind sidecarKind,
) *rpcError {
	boundaryEpoch, ok := s.cfg.chain.DataAvailabilityBoundary()
	if !ok {
		return errInvalidRequest("Deneb fork is disabled")
	}
	boundarySlot := slots.EpochStart(boundaryEpoch)
	oldestSlot := boundarySlot
	if hasStored {
		oldestSlot = oldestStored
	}
	if start < oldestSlot {
		log.WithField("requestedSlot", start).
			WithField("oldestKnownSlot", oldestSlot).
			WithField("dataAvailabilityBoundarySlot", boundarySlot).
			WithField("kind", kind).
			Debug("Range request start slot is older than data availability")
		if boundarySlot < oldestSlot {
			return errResourceUnavailable(string(kind) + "s pruned within boundary")
		}
		return errInvalidRequest("Request outside availability period")
	}
	return nil
}

// seedPreviousRoot fetches the canonical root of the slot preceding the
// requested window so the resolver can drop a leading skip-slot duplicate.
// Lookup failures are tolerated, the first root is then always sent.
func (s *Service) seedPreviousRoot(ctx context.Context, start primitives.Slot) *[32]byte {
	if start == s.cfg.chain.GenesisSlot() {
		return nil
	}
	root, ok, err := s.cfg.chain.BlockRootAtSlot(ctx, start.Sub(1))
	if err != nil || !ok {
		return nil
	}
	return &root
}
