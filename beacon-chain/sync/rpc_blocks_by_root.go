package sync

import (
	"context"
	"math"

	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/monitoring/tracing"
	"go.opencensus.io/trace"
)

// BeaconBlocksByRootHandler streams the requested blocks in request order,
// skipping roots the node does not have. Recently-seen caches are consulted
// before the store because by-root requests usually chase blocks that were
// just gossiped.
func (s *Service) BeaconBlocksByRootHandler(ctx context.Context, id p2ptypes.StreamID, req p2ptypes.BeaconBlocksByRootReq) {
	ctx, span := trace.StartSpan(ctx, "sync.BeaconBlocksByRootHandler")
	defer span.End()

	rerr := s.blocksByRootInner(ctx, id, req)
	if rerr != nil {
		tracing.AnnotateError(span, rerr)
	}
	s.terminateResponseStream(id, rerr)
}

func (s *Service) blocksByRootInner(ctx context.Context, id p2ptypes.StreamID, req p2ptypes.BeaconBlocksByRootReq) *rpcError {
	if len(req) == 0 {
		log.WithError(p2ptypes.ErrInvalidRequest).Debug("Rejecting blocks by root request")
		return errInvalidRequest("no block roots provided in request")
	}
	if uint64(len(req)) > s.maxRequestBlocks() {
		log.WithError(p2ptypes.ErrMaxBlocksReqExceeded).WithField("requested", len(req)).Debug("Rejecting blocks by root request")
		return errInvalidRequest("Request exceeded max size")
	}
	if err := s.rateLimiter.validateRequest(id, topicBlocksByRoot, uint64(len(req))); err != nil {
		return errInvalidRequest(err.Error())
	}
	s.rateLimiter.add(id, topicBlocksByRoot, int64(len(req)))

	// Unknown roots are expected here and simply not answered. The slot
	// window is left wide open since by-root requests carry no range.
	sent, rerr := s.streamBlocksForRoots(ctx, id, req, 0, math.MaxUint64, true)
	if rerr != nil {
		return rerr
	}
	log.WithField("peer", id.PeerID).
		WithField("requested", len(req)).
		WithField("returned", sent).
		Debug("Served blocks by root request")
	return nil
}
