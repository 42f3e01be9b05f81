package sync

import (
	"context"

	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/config/params"
	"github.com/sky-coderay/lighthouse/monitoring/tracing"
	"go.opencensus.io/trace"
)

// DataColumnSidecarsByRangeHandler streams the requested column indices for
// each block in the slot window.
func (s *Service) DataColumnSidecarsByRangeHandler(ctx context.Context, id p2ptypes.StreamID, req *p2ptypes.DataColumnSidecarsByRangeReq) {
	ctx, span := trace.StartSpan(ctx, "sync.DataColumnSidecarsByRangeHandler")
	defer span.End()

	rerr := s.dataColumnsByRangeInner(ctx, id, req)
	if rerr != nil {
		tracing.AnnotateError(span, rerr)
	}
	s.terminateResponseStream(id, rerr)
}

func (s *Service) dataColumnsByRangeInner(ctx context.Context, id p2ptypes.StreamID, req *p2ptypes.DataColumnSidecarsByRangeReq) *rpcError {
	maxRequested := req.MaxRequested()
	if maxRequested == 0 || maxRequested > params.BeaconNetwork().MaxRequestDataColumnSidecars {
		log.WithError(p2ptypes.ErrMaxColumnReqExceeded).WithField("count", req.Count).Debug("Rejecting data column sidecars by range request")
		return errInvalidRequest("Request exceeded max size")
	}
	if err := s.rateLimiter.validateRequest(id, topicDataColumnSidecarsByRange, maxRequested); err != nil {
		return errInvalidRequest(err.Error())
	}

	oldestStored, hasStored := s.cfg.chain.OldestDataColumnSlot()
	if rerr := s.checkAvailabilityBoundary(req.StartSlot, oldestStored, hasStored, columnKind); rerr != nil {
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
		for _, index := range req.Columns {
			sc, err := s.cfg.chain.DataColumnSidecar(ctx, root, index)
			if err != nil {
				log.WithError(err).WithField("blockRoot", root).WithField("column", index).Error("Could not fetch data column sidecar")
				return errServerError("Error getting data column")
			}
			if sc == nil {
				continue
			}
			s.cfg.p2p.SendResponse(id, sc)
			sent++
		}
	}
	s.rateLimiter.add(id, topicDataColumnSidecarsByRange, sent)
	log.WithField("peer", id.PeerID).
		WithField("startSlot", req.StartSlot).
		WithField("count", req.Count).
		WithField("columns", len(req.Columns)).
		WithField("returned", sent).
		Debug("Served data column sidecars by range request")
	return nil
}

// DataColumnSidecarsByRootHandler streams the requested column sidecars,
// skipping identifiers the node does not custody.
func (s *Service) DataColumnSidecarsByRootHandler(ctx context.Context, id p2ptypes.StreamID, req p2ptypes.DataColumnSidecarsByRootReq) {
	ctx, span := trace.StartSpan(ctx, "sync.DataColumnSidecarsByRootHandler")
	defer span.End()

	rerr := s.dataColumnsByRootInner(ctx, id, req)
	if rerr != nil {
		tracing.AnnotateError(span, rerr)
	}
	s.terminateResponseStream(id, rerr)
}

func (s *Service) dataColumnsByRootInner(ctx context.Context, id p2ptypes.StreamID, req p2ptypes.DataColumnSidecarsByRootReq) *rpcError {
	if len(req) == 0 {
		log.WithError(p2ptypes.ErrInvalidRequest).Debug("Rejecting data column sidecars by root request")
		return errInvalidRequest("no data column identifiers provided in request")
	}
	if uint64(len(req)) > params.BeaconNetwork().MaxRequestDataColumnSidecars {
		log.WithError(p2ptypes.ErrMaxColumnReqExceeded).WithField("requested", len(req)).Debug("Rejecting data column sidecars by root request")
		return errInvalidRequest("Request exceeded max size")
	}
	if err := s.rateLimiter.validateRequest(id, topicDataColumnSidecarsByRoot, uint64(len(req))); err != nil {
		return errInvalidRequest(err.Error())
	}
	s.rateLimiter.add(id, topicDataColumnSidecarsByRoot, int64(len(req)))

	answered := make(map[p2ptypes.DataColumnIdentifier]bool, len(req))
	sent := 0
	for _, ident := range req {
		if answered[ident] {
			continue
		}
		if sc, ok := s.cfg.sidecarCache.Column(ident.BlockRoot, ident.Index); ok {
			sidecarDeliveryCacheHitTotal.Inc()
			s.cfg.p2p.SendResponse(id, sc)
			answered[ident] = true
			sent++
			continue
		}
		sc, err := s.cfg.chain.DataColumnSidecar(ctx, ident.BlockRoot, ident.Index)
		if err != nil {
			log.WithError(err).WithField("blockRoot", ident.BlockRoot).WithField("column", ident.Index).Error("Could not fetch data column sidecar")
			return errServerError("Error getting data column")
		}
		if sc == nil {
			continue
		}
		s.cfg.p2p.SendResponse(id, sc)
		answered[ident] = true
		sent++
	}
	log.WithField("peer", id.PeerID).
		WithField("requested", len(req)).
		WithField("returned", sent).
		Debug("Served data column sidecars by root request")
	return nil
}
