package sync

import (
	"context"
	"fmt"

	"github.com/libp2p/go-libp2p-core/peer"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/config/params"
	"github.com/sky-coderay/lighthouse/time/slots"
	"go.opencensus.io/trace"
)

// ProcessStatus evaluates a completed status handshake. Relevant peers are
// handed to the sync layer; irrelevant ones get a goodbye and are
// disconnected.
func (s *Service) ProcessStatus(ctx context.Context, pid peer.ID, remote p2ptypes.StatusMessage) {
	ctx, span := trace.StartSpan(ctx, "sync.ProcessStatus")
	defer span.End()

	irrelevant, err := s.checkPeerRelevance(ctx, remote)
	if err != nil {
		log.WithError(err).WithField("peer", pid).Error("Could not determine peer relevance")
		return
	}
	if irrelevant != "" {
		log.WithField("peer", pid).WithField("reason", irrelevant).Debug("Handshake failure")
		s.goodbyePeer(pid, p2ptypes.GoodbyeReasonIrrelevantNetwork)
		return
	}
	s.cfg.sync.AddPeer(pid, p2ptypes.SyncInfo{
		HeadSlot:       remote.HeadSlot,
		HeadRoot:       remote.HeadRoot,
		FinalizedEpoch: remote.FinalizedEpoch,
		FinalizedRoot:  remote.FinalizedRoot,
	})
}

// checkPeerRelevance decides whether the remote peer follows the same chain.
// A non-empty return describes why the peer is irrelevant.
func (s *Service) checkPeerRelevance(ctx context.Context, remote p2ptypes.StatusMessage) (string, error) {
	local := s.cfg.chain.StatusMessage()
	if local.ForkDigest != remote.ForkDigest {
		return fmt.Sprintf("incompatible forks, ours: %#x theirs: %#x", local.ForkDigest, remote.ForkDigest), nil
	}
	if remote.HeadSlot > s.cfg.chain.CurrentSlot()+params.BeaconNetwork().FutureSlotTolerance {
		return "different system clocks or genesis time", nil
	}
	// A peer finalizing at or below our finalized epoch must agree on the
	// block at that epoch's start slot; skip the check for genesis-valued
	// roots since those carry no information.
	var zeroRoot [32]byte
	if remote.FinalizedEpoch <= local.FinalizedEpoch &&
		remote.FinalizedRoot != zeroRoot && local.FinalizedRoot != zeroRoot {
		root, ok, err := s.cfg.chain.BlockRootAtSlot(ctx, slots.EpochStart(remote.FinalizedEpoch))
		if err != nil {
			return "", err
		}
		if !ok || root != remote.FinalizedRoot {
			return "different finalized chain", nil
		}
	}
	return "", nil
}
