package sync

import (
	"sync"
	"time"

	"github.com/kevinms/leakybucket-go"
	"github.com/pkg/errors"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
	"github.com/sky-coderay/lighthouse/config/params"
)

const (
	topicBlocksByRange             = "beacon_blocks_by_range"
	topicBlocksByRoot              = "beacon_blocks_by_root"
	topicBlobSidecarsByRange       = "blob_sidecars_by_range"
	topicBlobSidecarsByRoot        = "blob_sidecars_by_root"
	topicDataColumnSidecarsByRange = "data_column_sidecars_by_range"
	topicDataColumnSidecarsByRoot  = "data_column_sidecars_by_root"
	topicLightClientUpdatesByRange = "light_client_updates_by_range"
	topicLightClientBootstrap      = "light_client_bootstrap"
)

// Time to allow a peer to recoup its full request allowance.
const leakyBucketPeriod = 10 * time.Second

// limiter tracks per-peer request allowances, one leaky bucket collector per
// request topic.
type limiter struct {
	limiterMap map[string]*leakybucket.Collector
	sync.RWMutex
}

func newRateLimiter() *limiter {
	netCfg := params.BeaconNetwork()

	allowedBlocksPerSecond := float64(netCfg.MaxRequestBlocks) / leakyBucketPeriod.Seconds()
	allowedBlocksBurst := int64(2 * netCfg.MaxRequestBlocks)
	blockCollector := leakybucket.NewCollector(allowedBlocksPerSecond, allowedBlocksBurst, false)

	blobCollector := leakybucket.NewCollector(
		float64(netCfg.MaxRequestBlobSidecars)/leakyBucketPeriod.Seconds(),
		int64(2*netCfg.MaxRequestBlobSidecars), false)
	columnCollector := leakybucket.NewCollector(
		float64(netCfg.MaxRequestDataColumnSidecars)/leakyBucketPeriod.Seconds(),
		int64(2*netCfg.MaxRequestDataColumnSidecars), false)
	lightClientCollector := leakybucket.NewCollector(
		float64(netCfg.MaxRequestLightClientUpdates)/leakyBucketPeriod.Seconds(),
		int64(2*netCfg.MaxRequestLightClientUpdates), false)

	limiterMap := map[string]*leakybucket.Collector{
		// Blocks by range and by root share an allowance, both are counted
		// in blocks.
		topicBlocksByRange: blockCollector,
		topicBlocksByRoot:  blockCollector,

		topicBlobSidecarsByRange: blobCollector,
		topicBlobSidecarsByRoot:  blobCollector,

		topicDataColumnSidecarsByRange: columnCollector,
		topicDataColumnSidecarsByRoot:  columnCollector,

		topicLightClientUpdatesByRange: lightClientCollector,
		topicLightClientBootstrap:      lightClientCollector,
	}
	return &limiter{limiterMap: limiterMap}
}

// validateRequest checks whether the peer has enough allowance left on the
// topic's collector to be served amt response items.
func (l *limiter) validateRequest(id p2ptypes.StreamID, topic string, amt uint64) error {
	l.RLock()
	defer l.RUnlock()

	collector, err := l.retrieveCollector(topic)
	if err != nil {
		return err
	}
	key := id.PeerID.String()
	remaining := collector.Remaining(key)
	if amt > uint64(remaining) {
		rateLimitedRequestsTotal.Inc()
		log.WithField("peer", id.PeerID).WithField("topic", topic).Debug("Disconnected peer exceeded rate limit")
		return p2ptypes.ErrRateLimited
	}
	return nil
}

// add records amt served items against the peer's allowance.
func (l *limiter) add(id p2ptypes.StreamID, topic string, amt int64) {
	l.Lock()
	defer l.Unlock()

	collector, err := l.retrieveCollector(topic)
	if err != nil {
		log.WithError(err).Error("Could not retrieve collector")
		return
	}
	collector.Add(id.PeerID.String(), amt)
}

// free frees all the collectors' underlying resources.
func (l *limiter) free() {
	l.Lock()
	defer l.Unlock()

	freed := map[*leakybucket.Collector]bool{}
	for _, collector := range l.limiterMap {
		if freed[collector] {
			continue
		}
		collector.Free()
		freed[collector] = true
	}
}

// not to be used outside the rate limiter file as it is unsafe for concurrent usage
// and is protected by a lock on all of its usages here.
func (l *limiter) retrieveCollector(topic string) (*leakybucket.Collector, error) {
	collector, ok := l.limiterMap[topic]
	if !ok {
		return nil, errors.Errorf("collector does not exist for topic %s", topic)
	}
	return collector, nil
}
