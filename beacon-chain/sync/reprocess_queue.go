package sync

import (
	"time"

	"github.com/sky-coderay/lighthouse/consensus-types/blocks"
)

const (
	defaultReprocessQueueSize = 1024
	// Safety net for waiters whose wakeup never arrives, e.g. the winning
	// import failed without importing the block.
	reprocessRetryInterval = 2 * time.Second
)

type reprocessKind uint8

const (
	// reprocessQueuedBlock parks a duplicate rpc block until the in-flight
	// import of the same root settles.
	reprocessQueuedBlock reprocessKind = iota
	// reprocessBlockImported wakes waiters parked on the imported root.
	reprocessBlockImported
)

type reprocessMessage struct {
	kind      reprocessKind
	queued    *queuedRPCBlock
	blockRoot [32]byte
}

// queuedRPCBlock carries everything needed to retry a deferred import.
type queuedRPCBlock struct {
	root          [32]byte
	block         blocks.RPCBlock
	seenTimestamp time.Time
	processType   BlockProcessType
}

// enqueueReprocess try-sends onto the bounded queue. Overflow drops the
// message; a dropped wakeup is recovered by the retry ticker, a dropped
// queued block surfaces as a sync-layer timeout.
func (s *Service) enqueueReprocess(msg reprocessMessage) {
	select {
	case s.reprocessChan <- msg:
	default:
		reprocessQueueOverflowTotal.Inc()
		root := msg.blockRoot
		if msg.queued != nil {
			root = msg.queued.root
		}
		log.WithField("blockRoot", root).Error("Failed to inform block import, reprocess queue full")
		if msg.queued != nil {
			s.cfg.sync.BlockComponentProcessed(msg.queued.processType, BlockProcessingResult{Ignored: true})
		}
	}
}

// reprocessLoop owns the parked duplicate imports. Every parked block is
// eventually retried exactly once per parking: on the wakeup for its root, on
// the retry tick once the root is no longer busy, or reported as ignored at
// shutdown.
func (s *Service) reprocessLoop() {
	parked := make(map[[32]byte][]*queuedRPCBlock)
	ticker := time.NewTicker(reprocessRetryInterval)
	defer ticker.Stop()

	retry := func(q *queuedRPCBlock) {
		go s.ProcessRPCBlock(s.ctx, q.root, q.block, q.seenTimestamp, q.processType)
	}

	for {
		select {
		case <-s.ctx.Done():
			for _, waiters := range parked {
				for _, q := range waiters {
					s.cfg.sync.BlockComponentProcessed(q.processType, BlockProcessingResult{Ignored: true})
				}
			}
			return
		case msg := <-s.reprocessChan:
			switch msg.kind {
			case reprocessQueuedBlock:
				if !s.cfg.duplicateCache.Contains(msg.queued.root) {
					// The competing import already settled.
					retry(msg.queued)
					continue
				}
				parked[msg.queued.root] = append(parked[msg.queued.root], msg.queued)
			case reprocessBlockImported:
				for _, q := range parked[msg.blockRoot] {
					retry(q)
				}
				delete(parked, msg.blockRoot)
			}
		case <-ticker.C:
			for root, waiters := range parked {
				if s.cfg.duplicateCache.Contains(root) {
					continue
				}
				for _, q := range waiters {
					retry(q)
				}
				delete(parked, root)
			}
		}
	}
}
