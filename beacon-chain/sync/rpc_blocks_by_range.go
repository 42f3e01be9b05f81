package sync

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sky-coderay/lighthouse/beacon-chain/blockchain"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/config/params"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
	"github.com/sky-coderay/lighthouse/monitoring/tracing"
	"github.com/sky-coderay/lighthouse/time/slots"
	"go.opencensus.io/trace"
)

// maxRequestBlocks returns the block count cap active at the current epoch.
// The cap tightens once blob sidecars ship with blocks.
func (s *Service) maxRequestBlocks() uint64 {
	currentEpoch := slots.ToEpoch(s.cfg.chain.CurrentSlot())
	if params.BeaconConfig().DenebEnabled(currentEpoch) {
		return params.BeaconNetwork().MaxRequestBlocksDeneb
	}
	return params.BeaconNetwork().MaxRequestBlocks
}

// BeaconBlocksByRangeHandler streams canonical blocks for the requested slot
// window.
func (s *Service) BeaconBlocksByRangeHandler(ctx context.Context, id p2ptypes.StreamID, req *p2ptypes.BeaconBlocksByRangeReq) {
	ctx, span := trace.StartSpan(ctx, "sync.BeaconBlocksByRangeHandler")
	defer span.End()
	start := time.Now()

	rerr := s.blocksByRangeInner(ctx, id, req)
	if rerr != nil {
		tracing.AnnotateError(span, rerr)
	}
	s.terminateResponseStream(id, rerr)
	rpcBlocksByRangeResponseLatency.Observe(float64(time.Since(start).Milliseconds()))
}

func (s *Service) blocksByRangeInner(ctx context.Context, id p2ptypes.StreamID, req *p2ptypes.BeaconBlocksByRangeReq) *rpcError {
	if req.Count == 0 || req.Count > s.maxRequestBlocks() {
		log.WithError(p2ptypes.ErrMaxBlocksReqExceeded).WithField("count", req.Count).Debug("Rejecting blocks by range request")
		return errInvalidRequest("Request exceeded max size")
	}
	if err := s.rateLimiter.validateRequest(id, topicBlocksByRange, req.Count); err != nil {
		return errInvalidRequest(err.Error())
	}

	iter, err := s.cfg.chain.ForwardsBlockRootsIterator(ctx, req.StartSlot)
	if err != nil {
		var oorErr *blockchain.HistoricalDataOutOfRangeError
		if errors.As(err, &oorErr) {
			log.WithField("requestedSlot", oorErr.RequestedSlot).
				WithField("oldestKnownSlot", oorErr.OldestSlot).
				Debug("Range request start slot is older than backfill progress")
			return errResourceUnavailable("Backfilling")
		}
		log.WithError(err).Error("Could not retrieve block roots")
		return errServerError("Database error")
	}
	roots, err := resolveBlockRoots(iter, req.StartSlot, req.Count, nil)
	if err != nil {
		log.WithError(err).Error("Could not iterate block roots")
		return errServerError("Database error")
	}
	s.rateLimiter.add(id, topicBlocksByRange, int64(len(roots)))

	sent, rerr := s.streamBlocksForRoots(ctx, id, roots, req.StartSlot, req.Count, false)
	if rerr != nil {
		return rerr
	}
	log.WithField("peer", id.PeerID).
		WithField("startSlot", req.StartSlot).
		WithField("count", req.Count).
		WithField("returned", sent).
		Debug("Served blocks by range request")
	return nil
}

// streamBlocksForRoots fetches the given roots and streams the blocks to the
// requester. Blocks arrive in completion order; a slot window of count slots
// from startSlot is re-applied before sending because payload reconstruction
// can return blocks outside the requested range when the canonical chain
// advanced mid-request. With allowMissing, roots unknown to the store are
// skipped instead of failing the stream; by-range requests enumerate
// canonical roots so a missing block there is a store fault.
func (s *Service) streamBlocksForRoots(
	ctx context.Context,
	id p2ptypes.StreamID,
	roots [][32]byte,
	startSlot primitives.Slot,
	count uint64,
	allowMissing bool,
) (int, *rpcError) {
	fetch := s.cfg.chain.GetBlocks
	if allowMissing {
		fetch = s.cfg.chain.GetBlocksCheckingCaches
	}
	results, err := fetch(ctx, roots)
	if err != nil {
		log.WithError(err).Error("Could not fetch blocks")
		return 0, errServerError("Failed fetching blocks")
	}
	endSlot := startSlot.SaturatingAdd(count)
	sent := 0
	for res := range results {
		switch {
		case res.Err == nil && res.Block != nil && !res.Block.IsNil():
			if res.Block.Slot() >= startSlot && res.Block.Slot() < endSlot {
				s.cfg.p2p.SendResponse(id, res.Block)
				sent++
			}
		case res.Err == nil:
			if allowMissing {
				continue
			}
			// A canonical root with no block behind it means the store lost
			// data it advertised.
			log.WithField("blockRoot", res.Root).Error("Canonical block root not found in store")
			return sent, errServerError("Database inconsistency")
		case errors.Is(res.Err, blockchain.ErrMissingExecutionPayload):
			return sent, errResourceUnavailable("Execution layer not synced")
		default:
			log.WithError(res.Err).WithField("blockRoot", res.Root).Error("Could not fetch block")
			return sent, errServerError("Failed fetching blocks")
		}
	}
	if ctx.Err() != nil {
		return sent, errServerError("Request cancelled")
	}
	return sent, nil
}
