package sync

import (
	"context"

	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
	"go.opencensus.io/trace"
)

// ProcessRPCBlobSidecars feeds a batch of fetched blob sidecars, all for the
// same block, to the availability checker and reports the outcome to the sync
// layer.
func (s *Service) ProcessRPCBlobSidecars(ctx context.Context, root [32]byte, sidecars []*blocks.BlobSidecar, pt BlockProcessType) {
	ctx, span := trace.StartSpan(ctx, "sync.ProcessRPCBlobSidecars")
	defer span.End()

	if len(sidecars) == 0 {
		s.cfg.sync.BlockComponentProcessed(pt, BlockProcessingResult{Ignored: true})
		return
	}
	log.WithField("blockRoot", root).
		WithField("slot", sidecars[0].Slot).
		WithField("count", len(sidecars)).
		Debug("Processing rpc blob sidecars")

	status, err := s.cfg.chain.ProcessBlobSidecars(ctx, root, sidecars)
	result := blockProcessingResult(status, err)
	switch {
	case result.Err != nil:
		log.WithError(result.Err).WithField("blockRoot", root).Warn("Could not process rpc blob sidecars")
	case result.Status.Imported:
		rpcBlobsImportedTotal.Inc()
		log.WithField("blockRoot", root).Debug("Blob sidecars completed block import")
		s.cfg.chain.RecomputeHead(ctx)
	default:
		log.WithField("blockRoot", root).Debug("Block still awaiting components after blob import")
	}
	s.cfg.sync.BlockComponentProcessed(pt, result)
}

// ProcessRPCDataColumnSidecars feeds fetched data column sidecars to the
// availability checker. When the block is still incomplete afterwards, a
// reconstruction attempt from held columns may finish it without further
// network round trips.
func (s *Service) ProcessRPCDataColumnSidecars(ctx context.Context, root [32]byte, sidecars []*blocks.DataColumnSidecar, pt BlockProcessType) {
	ctx, span := trace.StartSpan(ctx, "sync.ProcessRPCDataColumnSidecars")
	defer span.End()

	if len(sidecars) == 0 {
		s.cfg.sync.BlockComponentProcessed(pt, BlockProcessingResult{Ignored: true})
		return
	}
	log.WithField("blockRoot", root).
		WithField("slot", sidecars[0].Slot).
		WithField("count", len(sidecars)).
		Debug("Processing rpc data column sidecars")

	status, err := s.cfg.chain.ProcessDataColumnSidecars(ctx, sidecars)
	if err == nil && !status.Imported {
		reconstructed, rerr := s.cfg.chain.AttemptColumnReconstruction(ctx, root)
		if rerr != nil {
			log.WithError(rerr).WithField("blockRoot", root).Debug("Column reconstruction attempt failed")
		} else if reconstructed != nil {
			status = *reconstructed
		}
	}
	result := blockProcessingResult(status, err)
	switch {
	case result.Err != nil:
		log.WithError(result.Err).WithField("blockRoot", root).Warn("Could not process rpc data column sidecars")
	case result.Status.Imported:
		log.WithField("blockRoot", root).Debug("Data column sidecars completed block import")
		s.cfg.chain.RecomputeHead(ctx)
	default:
		log.WithField("blockRoot", root).Debug("Block still awaiting components after column import")
	}
	s.cfg.sync.BlockComponentProcessed(pt, result)
}
