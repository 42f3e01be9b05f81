package sync

import (
	"context"
	"fmt"

	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/config/params"
	"github.com/sky-coderay/lighthouse/monitoring/tracing"
	"go.opencensus.io/trace"
)

// LightClientUpdatesByRangeHandler streams stored sync committee updates for
// the requested period window.
func (s *Service) LightClientUpdatesByRangeHandler(ctx context.Context, id p2ptypes.StreamID, req *p2ptypes.LightClientUpdatesByRangeReq) {
	ctx, span := trace.StartSpan(ctx, "sync.LightClientUpdatesByRangeHandler")
	defer span.End()

	rerr := s.lightClientUpdatesByRangeInner(ctx, id, req)
	if rerr != nil {
		tracing.AnnotateError(span, rerr)
	}
	s.terminateResponseStream(id, rerr)
}

func (s *Service) lightClientUpdatesByRangeInner(ctx context.Context, id p2ptypes.StreamID, req *p2ptypes.LightClientUpdatesByRangeReq) *rpcError {
	if req.Count == 0 || req.Count > params.BeaconNetwork().MaxRequestLightClientUpdates {
		log.WithError(p2ptypes.ErrMaxLCUpdatesReqExceeded).WithField("count", req.Count).Debug("Rejecting light client updates by range request")
		return errInvalidRequest("Request exceeded max size")
	}
	if err := s.rateLimiter.validateRequest(id, topicLightClientUpdatesByRange, req.Count); err != nil {
		return errInvalidRequest(err.Error())
	}

	updates, err := s.cfg.chain.LightClientUpdates(ctx, req.StartPeriod, req.Count)
	if err != nil {
		log.WithError(err).Error("Could not fetch light client updates")
		return errServerError("Database error")
	}
	s.rateLimiter.add(id, topicLightClientUpdatesByRange, int64(len(updates)))
	for _, update := range updates {
		s.cfg.p2p.SendResponse(id, update)
	}
	log.WithField("peer", id.PeerID).
		WithField("startPeriod", req.StartPeriod).
		WithField("count", req.Count).
		WithField("returned", len(updates)).
		Debug("Served light client updates by range request")
	return nil
}

// LightClientBootstrapHandler answers a single-item bootstrap request. The
// payload is its own terminator.
func (s *Service) LightClientBootstrapHandler(ctx context.Context, id p2ptypes.StreamID, req *p2ptypes.LightClientBootstrapReq) {
	ctx, span := trace.StartSpan(ctx, "sync.LightClientBootstrapHandler")
	defer span.End()

	if err := s.rateLimiter.validateRequest(id, topicLightClientBootstrap, 1); err != nil {
		s.terminateResponseSingleItem(id, nil, errInvalidRequest(err.Error()))
		return
	}
	s.rateLimiter.add(id, topicLightClientBootstrap, 1)

	bootstrap, err := s.cfg.chain.LightClientBootstrap(ctx, req.BlockRoot)
	if err != nil {
		rerr := errResourceUnavailable(fmt.Sprintf("Bootstrap not available: %v", err))
		tracing.AnnotateError(span, rerr)
		s.terminateResponseSingleItem(id, nil, rerr)
		return
	}
	if bootstrap == nil {
		s.terminateResponseSingleItem(id, nil, errResourceUnavailable("Bootstrap not available"))
		return
	}
	s.terminateResponseSingleItem(id, bootstrap, nil)
}

// LightClientOptimisticUpdateHandler answers with the latest optimistic
// update held in memory.
func (s *Service) LightClientOptimisticUpdateHandler(_ context.Context, id p2ptypes.StreamID, _ *p2ptypes.LightClientOptimisticUpdateReq) {
	update := s.cfg.chain.LatestOptimisticUpdate()
	if update == nil {
		s.terminateResponseSingleItem(id, nil, errResourceUnavailable("Latest optimistic update not available"))
		return
	}
	s.terminateResponseSingleItem(id, update, nil)
}

// LightClientFinalityUpdateHandler answers with the latest finality update
// held in memory.
func (s *Service) LightClientFinalityUpdateHandler(_ context.Context, id p2ptypes.StreamID, _ *p2ptypes.LightClientFinalityUpdateReq) {
	update := s.cfg.chain.LatestFinalityUpdate()
	if update == nil {
		s.terminateResponseSingleItem(id, nil, errResourceUnavailable("Latest finality update not available"))
		return
	}
	s.terminateResponseSingleItem(id, update, nil)
}
