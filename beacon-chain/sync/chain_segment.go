package sync

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sky-coderay/lighthouse/beacon-chain/blockchain"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"go.opencensus.io/trace"
)

// chainSegmentFailure describes a failed segment import. A nil peerAction
// means the failure is internal or transient and the sending peer must not be
// penalized.
type chainSegmentFailure struct {
	message    string
	peerAction *p2ptypes.PeerAction
}

func faultOf(action p2ptypes.PeerAction, format string, args ...interface{}) *chainSegmentFailure {
	return &chainSegmentFailure{message: fmt.Sprintf(format, args...), peerAction: &action}
}

func internalFault(format string, args ...interface{}) *chainSegmentFailure {
	return &chainSegmentFailure{message: fmt.Sprintf(format, args...)}
}

// ProcessChainSegment imports a downloaded batch of blocks and reports the
// aggregate outcome to the sync layer. Range-sync batches import what they
// can; backfill batches are all-or-nothing.
func (s *Service) ProcessChainSegment(ctx context.Context, id ChainSegmentProcessID, downloaded []blocks.RPCBlock) {
	ctx, span := trace.StartSpan(ctx, "sync.ProcessChainSegment")
	defer span.End()

	var imported int
	var failure *chainSegmentFailure
	if id.BackSync {
		imported, failure = s.processBackfillBlocks(ctx, downloaded)
	} else {
		imported, failure = s.processBlocks(ctx, downloaded)
	}

	result := BatchProcessResult{
		SentBlocks:     len(downloaded),
		ImportedBlocks: imported,
	}
	if failure == nil {
		result.Status = BatchSuccess
		log.WithField("batch", batchFields(id)).
			WithField("sent", len(downloaded)).
			WithField("imported", imported).
			Debug("Batch processed")
	} else if failure.peerAction != nil {
		result.Status = BatchFaultyFailure
		result.Penalty = *failure.peerAction
		log.WithField("batch", batchFields(id)).
			WithField("error", failure.message).
			WithField("penalty", failure.peerAction.String()).
			Debug("Batch processing failed")
	} else {
		result.Status = BatchNonFaultyFailure
		log.WithField("batch", batchFields(id)).
			WithField("error", failure.message).
			Debug("Batch processing failed, no penalty")
	}
	s.cfg.sync.BatchProcessed(id, result)
}

func batchFields(id ChainSegmentProcessID) string {
	if id.BackSync {
		return fmt.Sprintf("backfill epoch %d", id.Epoch)
	}
	return fmt.Sprintf("chain %d epoch %d", id.ChainID, id.Epoch)
}

// processBlocks imports a range-sync segment in order, keeping whatever
// prefix succeeds.
func (s *Service) processBlocks(ctx context.Context, segment []blocks.RPCBlock) (int, *chainSegmentFailure) {
	res := s.cfg.chain.ProcessChainSegment(ctx, segment)
	imported := len(res.Imported)
	if imported > 0 {
		s.cfg.chain.RecomputeHead(ctx)
		for _, b := range res.Imported {
			if s.cfg.chain.ShouldSampleSlot(b.Slot) {
				s.cfg.sync.SampleBlock(b.Root, b.Slot)
			}
		}
	}
	if res.Err == nil {
		chainSegmentSuccessTotal.Inc()
		return imported, nil
	}
	chainSegmentFailedTotal.Inc()
	return imported, s.classifySegmentFailure(res.Err)
}

// classifySegmentFailure maps a segment import error to the aggregate batch
// outcome. A nil return means the error is benign and the batch counts as a
// success.
func (s *Service) classifySegmentFailure(err error) *chainSegmentFailure {
	var parentUnknown *blockchain.ParentUnknownError
	var dup *blockchain.DuplicateFullyImportedError
	var futureSlot *blockchain.FutureSlotError
	var internal *blockchain.InternalError
	var payloadErr *blockchain.ExecutionPayloadError
	var parentInvalid *blockchain.ParentPayloadInvalidError

	switch {
	case errors.As(err, &parentUnknown):
		// Within a contiguous segment every parent is either known or
		// earlier in the batch; hitting this means the peer sent
		// non-sequential blocks.
		return faultOf(p2ptypes.PeerActionLowToleranceError, "Unknown parent %#x", parentUnknown.ParentRoot)
	case errors.As(err, &dup), errors.Is(err, blockchain.ErrDuplicateImportStatusUnknown),
		errors.Is(err, blockchain.ErrWouldRevertFinalizedSlot), errors.Is(err, blockchain.ErrGenesisBlock):
		return nil
	case errors.As(err, &futureSlot):
		return faultOf(p2ptypes.PeerActionLowToleranceError,
			"Block with slot %d is higher than the current slot %d", futureSlot.BlockSlot, futureSlot.PresentSlot)
	case errors.As(err, &internal):
		return internalFault("Internal error while importing chain segment: %v", internal.Err)
	case errors.As(err, &payloadErr):
		if !payloadErr.PenalizePeer() {
			return internalFault("Execution layer error: %v", payloadErr.Err)
		}
		return faultOf(p2ptypes.PeerActionLowToleranceError, "Invalid execution payload: %v", payloadErr.Err)
	case errors.As(err, &parentInvalid):
		return faultOf(p2ptypes.PeerActionLowToleranceError, "Block descends from invalid parent %#x", parentInvalid.ParentRoot)
	default:
		// Remaining invalid-block errors fail the batch without scoring the
		// peer; the invalid block may have come from any of the batches
		// merged into this segment, not necessarily this sender's.
		return internalFault("Peer sent invalid block: %v", err)
	}
}

// processBackfillBlocks imports a backfill segment. The whole batch is
// KZG/availability verified first; any unavailable block rejects the batch
// with nothing imported.
func (s *Service) processBackfillBlocks(ctx context.Context, segment []blocks.RPCBlock) (int, *chainSegmentFailure) {
	total := len(segment)
	checked, err := s.cfg.chain.VerifyKZGForRPCBlocks(segment)
	if err != nil {
		backfillChainSegmentFailedTotal.Inc()
		var storeErr *blockchain.StoreError
		if errors.As(err, &storeErr) {
			return 0, internalFault("Failed to check block availability: %v", storeErr.Err)
		}
		return 0, faultOf(p2ptypes.PeerActionLowToleranceError, "Failed to check block availability: %v", err)
	}
	available := make([]blocks.RPCBlock, 0, total)
	for _, mb := range checked {
		if mb.Available {
			available = append(available, mb.Block)
		}
	}
	if len(available) != total {
		backfillChainSegmentFailedTotal.Inc()
		return 0, faultOf(p2ptypes.PeerActionLowToleranceError,
			"%d out of %d blocks were unavailable", total-len(available), total)
	}

	imported, err := s.cfg.chain.ImportHistoricalBlockBatch(ctx, available)
	if err != nil {
		backfillChainSegmentFailedTotal.Inc()
		return 0, s.classifyBackfillFailure(err)
	}
	backfillChainSegmentSuccessTotal.Inc()
	return imported, nil
}

func (s *Service) classifyBackfillFailure(err error) *chainSegmentFailure {
	var mismatched *blockchain.MismatchedBlockRootError
	var storeErr *blockchain.StoreError
	switch {
	case errors.As(err, &mismatched):
		return faultOf(p2ptypes.PeerActionLowToleranceError,
			"Mismatched block root, got %#x expected %#x", mismatched.BlockRoot, mismatched.ExpectedBlockRoot)
	case errors.Is(err, blockchain.ErrInvalidSignature):
		return faultOf(p2ptypes.PeerActionLowToleranceError, "Invalid block signature in batch")
	case errors.Is(err, blockchain.ErrPubkeyCacheTimeout):
		return internalFault("Pubkey cache timeout")
	case errors.Is(err, blockchain.ErrIndexOutOfBounds):
		return internalFault("Validator index out of bounds")
	case errors.As(err, &storeErr):
		return internalFault("Failed to store historical batch: %v", storeErr.Err)
	default:
		return internalFault("Historical batch processing failed: %v", err)
	}
}
