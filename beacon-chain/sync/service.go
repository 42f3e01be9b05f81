// Package sync services peer-to-peer sync requests and imports the blocks,
// blob sidecars and data column sidecars those requests deliver.
package sync

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/sky-coderay/lighthouse/beacon-chain/blockchain"
	"github.com/sky-coderay/lighthouse/beacon-chain/cache"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
)

// Roots of blocks that recently failed processing with a peer-attributable
// fault. Requests to re-import them are rejected without touching the chain.
const badBlockCacheSize = 64

// Config options for the sync service.
type Config struct {
	Chain              blockchain.Chain
	P2P                ResponseSender
	SyncNotifier       SyncNotifier
	DuplicateCache     *cache.DuplicateCache
	SidecarCache       *cache.SidecarDeliveryCache
	ReprocessQueueSize int
}

type config struct {
	chain          blockchain.Chain
	p2p            ResponseSender
	sync           SyncNotifier
	duplicateCache *cache.DuplicateCache
	sidecarCache   *cache.SidecarDeliveryCache
}

// Service handling sync request servicing and block import for the node.
type Service struct {
	cfg           *config
	ctx           context.Context
	cancel        context.CancelFunc
	rateLimiter   *limiter
	reprocessChan chan reprocessMessage
	badBlockCache *lru.Cache
}

// NewService initializes a sync service from the given config.
func NewService(ctx context.Context, cfg *Config) *Service {
	ctx, cancel := context.WithCancel(ctx)
	queueSize := cfg.ReprocessQueueSize
	if queueSize <= 0 {
		queueSize = defaultReprocessQueueSize
	}
	badBlocks, err := lru.New(badBlockCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size.
		panic(err)
	}
	dupCache := cfg.DuplicateCache
	if dupCache == nil {
		dupCache = cache.NewDuplicateCache()
	}
	sidecarCache := cfg.SidecarCache
	if sidecarCache == nil {
		sidecarCache = cache.NewSidecarDeliveryCache()
	}
	return &Service{
		cfg: &config{
			chain:          cfg.Chain,
			p2p:            cfg.P2P,
			sync:           cfg.SyncNotifier,
			duplicateCache: dupCache,
			sidecarCache:   sidecarCache,
		},
		ctx:           ctx,
		cancel:        cancel,
		rateLimiter:   newRateLimiter(),
		reprocessChan: make(chan reprocessMessage, queueSize),
		badBlockCache: badBlocks,
	}
}

// Start the reprocess loop servicing deferred duplicate imports.
func (s *Service) Start() {
	go s.reprocessLoop()
}

// Stop the sync service and release limiter resources. Queued reprocess work
// is reported as ignored by the loop on shutdown.
func (s *Service) Stop() error {
	s.cancel()
	s.rateLimiter.free()
	return nil
}

func (s *Service) goodbyePeer(pid peer.ID, reason p2ptypes.GoodbyeReason) {
	log.WithField("peer", pid).WithField("reason", reason).Debug("Sending goodbye to peer")
	s.cfg.p2p.GoodbyePeer(pid, reason)
}

func (s *Service) markBadBlock(root [32]byte) {
	s.badBlockCache.Add(root, struct{}{})
}

func (s *Service) isBadBlock(root [32]byte) bool {
	return s.badBlockCache.Contains(root)
}
