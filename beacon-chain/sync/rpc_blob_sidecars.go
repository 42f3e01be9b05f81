package sync

import (
	"context"

	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/config/params"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
	"github.com/sky-coderay/lighthouse/monitoring/tracing"
	"go.opencensus.io/trace"
)

// BlobSidecarsByRangeHandler streams the blob sidecars of the requested slot
// window, in slot order and index order within a slot.
func (s *Service) BlobSidecarsByRangeHandler(ctx context.Context, id p2ptypes.StreamID, req *p2ptypes.BlobSidecarsByRangeReq) {
	ctx, span := trace.StartSpan(ctx, "sync.BlobSidecarsByRangeHandler")
	defer span.End()

	rerr := s.blobSidecarsByRangeInner(ctx, id, req)
	if rerr != nil {
		tracing.AnnotateError(span, rerr)
	}
	s.terminateResponseStream(id, rerr)
}

func (s *Service) blobSidecarsByRangeInner(ctx context.Context, id p2ptypes.StreamID, req *p2ptypes.BlobSidecarsByRangeReq) *rpcError {
	maxRequested := primitives.SaturatingMul(req.Count, params.BeaconConfig().MaxBlobsPerBlock)
	if req.Count == 0 || maxRequested > params.BeaconNetwork().MaxRequestBlobSidecars {
		log.WithError(p2ptypes.ErrMaxBlobReqExceeded).WithField("count", req.Count).Debug("Rejecting blob sidecars by range request")
		return errInvalidRequest("Request exceeded max size")
	}
	if err := s.rateLimiter.validateRequest(id, topicBlobSidecarsByRange, maxRequested); err != nil {
		return errInvalidRequest(err.Error())
	}

	oldestStored, hasStored := s.cfg.chain.OldestBlobSlot()
	if rerr := s.checkAvailabilityBoundary(req.StartSlot, oldestStored, hasStored, blobKind); rerr != nil {
		return rerr
	}

	iter, err := s.cfg.chain.ForwardsBlockRootsIterator(ctx, req.StartSlot)
	if err != nil {
		log.WithError(err).Error("Could not retrieve block roots")
		return errServerError("Database error")
	}
	prevRoot := s.seedPreviousRoot(ctx, req.StartSlot)
	roots, err := resolveBlockRoots(iter, req.StartSlot, req.Count, prevRoot)
	if err != nil {
		log.WithError(err).Error("Could not iterate block roots")
		return errServerError("Database error")
	}

	sent := int64(0)
	for _, root := range roots {
		sidecars, err := s.cfg.chain.BlobSidecars(ctx, root)
		if err != nil {
			log.WithError(err).WithField("blockRoot", root).Error("Could not fetch blob sidecars")
			return errServerError("No blobs and failed fetching corresponding block")
		}
		for _, sc := range sidecars {
			s.cfg.p2p.SendResponse(id, sc)
			sent++
		}
	}
	s.rateLimiter.add(id, topicBlobSidecarsByRange, sent)
	log.WithField("peer", id.PeerID).
		WithField("startSlot", req.StartSlot).
		WithField("count", req.Count).
		WithField("returned", sent).
		Debug("Served blob sidecars by range request")
	return nil
}

// BlobSidecarsByRootHandler streams the requested blob sidecars, skipping
// identifiers the node does not have.
func (s *Service) BlobSidecarsByRootHandler(ctx context.Context, id p2ptypes.StreamID, req p2ptypes.BlobSidecarsByRootReq) {
	ctx, span := trace.StartSpan(ctx, "sync.BlobSidecarsByRootHandler")
	defer span.End()

	rerr := s.blobSidecarsByRootInner(ctx, id, req)
	if rerr != nil {
		tracing.AnnotateError(span, rerr)
	}
	s.terminateResponseStream(id, rerr)
}

func (s *Service) blobSidecarsByRootInner(ctx context.Context, id p2ptypes.StreamID, req p2ptypes.BlobSidecarsByRootReq) *rpcError {
	if len(req) == 0 {
		log.WithError(p2ptypes.ErrInvalidRequest).Debug("Rejecting blob sidecars by root request")
		return errInvalidRequest("no blob identifiers provided in request")
	}
	if uint64(len(req)) > params.BeaconNetwork().MaxRequestBlobSidecars {
		log.WithError(p2ptypes.ErrMaxBlobReqExceeded).WithField("requested", len(req)).Debug("Rejecting blob sidecars by root request")
		return errInvalidRequest("Request exceeded max size")
	}
	if err := s.rateLimiter.validateRequest(id, topicBlobSidecarsByRoot, uint64(len(req))); err != nil {
		return errInvalidRequest(err.Error())
	}
	s.rateLimiter.add(id, topicBlobSidecarsByRoot, int64(len(req)))

	type storeResult struct {
		sidecars []*blocks.BlobSidecar
		err      error
	}
	// Repeated identifiers are answered once; store lookups are memoized per
	// root so a request listing every index of a block costs one read.
	answered := make(map[p2ptypes.BlobIdentifier]bool, len(req))
	byRoot := make(map[[32]byte]storeResult)
	sent := 0
	for _, ident := range req {
		if answered[ident] {
			continue
		}
		if sc, ok := s.cfg.sidecarCache.Blob(ident.BlockRoot, ident.Index); ok {
			sidecarDeliveryCacheHitTotal.Inc()
			s.cfg.p2p.SendResponse(id, sc)
			answered[ident] = true
			sent++
			continue
		}
		res, ok := byRoot[ident.BlockRoot]
		if !ok {
			sidecars, err := s.cfg.chain.BlobSidecars(ctx, ident.BlockRoot)
			res = storeResult{sidecars: sidecars, err: err}
			byRoot[ident.BlockRoot] = res
		}
		if res.err != nil {
			log.WithError(res.err).WithField("blockRoot", ident.BlockRoot).Debug("Could not fetch blob sidecars")
			continue
		}
		for _, sc := range res.sidecars {
			if sc.Index == ident.Index {
				s.cfg.p2p.SendResponse(id, sc)
				answered[ident] = true
				sent++
				break
			}
		}
	}
	log.WithField("peer", id.PeerID).
		WithField("requested", len(req)).
		WithField("returned", sent).
		Debug("Served blob sidecars by root request")
	return nil
}
