package sync

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sky-coderay/lighthouse/beacon-chain/blockchain"
	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"go.opencensus.io/trace"
)

// ProcessRPCBlock imports a single block delivered over a sync request. At
// most one import per root runs at a time; a losing concurrent delivery is
// parked on the reprocess queue and retried once the winner settles. Exactly
// one BlockComponentProcessed notification is emitted per call, directly or
// through the queue.
func (s *Service) ProcessRPCBlock(ctx context.Context, root [32]byte, block blocks.RPCBlock, seenTimestamp time.Time, pt BlockProcessType) {
	ctx, span := trace.StartSpan(ctx, "sync.ProcessRPCBlock")
	defer span.End()

	if s.isBadBlock(root) {
		log.WithField("blockRoot", root).Debug("Refusing to import known bad block")
		s.cfg.sync.BlockComponentProcessed(pt, BlockProcessingResult{
			Err: &blockchain.InvalidBlockError{Reason: "block is known to be invalid"},
		})
		return
	}

	release, ok := s.cfg.duplicateCache.CheckAndInsert(root)
	if !ok {
		log.WithField("blockRoot", root).Debug("Block is already being processed, requeuing")
		s.enqueueReprocess(reprocessMessage{
			kind: reprocessQueuedBlock,
			queued: &queuedRPCBlock{
				root:          root,
				block:         block,
				seenTimestamp: seenTimestamp,
				processType:   pt,
			},
		})
		return
	}
	defer release()

	log.WithField("blockRoot", root).
		WithField("slot", block.Slot()).
		WithField("receivedDelay", time.Since(seenTimestamp)).
		Debug("Processing rpc block")

	status, err := s.cfg.chain.ProcessBlock(ctx, root, block)
	result := blockProcessingResult(status, err)
	switch {
	case result.Err != nil:
		log.WithError(result.Err).WithField("blockRoot", root).Debug("Could not process rpc block")
		if isInvalidBlockError(result.Err) {
			s.markBadBlock(root)
		}
	case result.Status.Imported:
		rpcBlockImportedTotal.Inc()
		log.WithField("blockRoot", root).WithField("slot", block.Slot()).Info("New rpc block imported")
		// Wake queued duplicates and any children parked behind this root.
		s.enqueueReprocess(reprocessMessage{kind: reprocessBlockImported, blockRoot: root})
		s.cfg.chain.RecomputeHead(ctx)
	default:
		// Valid block still waiting on data components. Ask the execution
		// layer for the blobs it may already hold.
		if ferr := s.cfg.chain.FetchEngineBlobs(ctx, block.ROBlock); ferr != nil {
			log.WithError(ferr).WithField("blockRoot", root).Debug("Could not fetch engine blobs")
		}
	}

	if err == nil && block.Block().NumExpectedBlobs() > 0 && s.cfg.chain.ShouldSampleSlot(block.Slot()) {
		s.cfg.sync.SampleBlock(root, block.Slot())
	}
	s.cfg.sync.BlockComponentProcessed(pt, result)
}

// blockProcessingResult folds duplicate-import errors into successful results
// so the sync layer never retries a block the node already holds.
func blockProcessingResult(status blockchain.AvailabilityStatus, err error) BlockProcessingResult {
	if err == nil {
		return BlockProcessingResult{Status: &status}
	}
	var dup *blockchain.DuplicateFullyImportedError
	if errors.As(err, &dup) {
		return BlockProcessingResult{Status: &blockchain.AvailabilityStatus{
			BlockRoot: dup.BlockRoot,
			Imported:  true,
		}}
	}
	if errors.Is(err, blockchain.ErrDuplicateImportStatusUnknown) {
		// The racing import will settle the root either way; report it as
		// pending rather than failed.
		return BlockProcessingResult{Status: &blockchain.AvailabilityStatus{Imported: false}}
	}
	return BlockProcessingResult{Err: err}
}

// isInvalidBlockError reports whether the error proves the block itself can
// never become valid. Unknown-parent and future-slot failures are excluded,
// those blocks may succeed on a later attempt.
func isInvalidBlockError(err error) bool {
	var payloadErr *blockchain.ExecutionPayloadError
	var parentInvalid *blockchain.ParentPayloadInvalidError
	var invalid *blockchain.InvalidBlockError
	switch {
	case errors.As(err, &parentInvalid), errors.As(err, &invalid):
		return true
	case errors.As(err, &payloadErr):
		return payloadErr.PenalizePeer()
	}
	return false
}
