package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcBlocksByRangeResponseLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rpc_blocks_by_range_response_latency_milliseconds",
			Help:    "Captures total time to respond to rpc blocks by range requests in a milliseconds distribution",
			Buckets: []float64{5, 10, 50, 100, 150, 250, 500, 1000, 2000},
		},
	)
	rpcBlockImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_processor_rpc_block_imported_total",
			Help: "Total number of rpc blocks imported to fork choice",
		},
	)
	rpcBlobsImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_processor_rpc_blob_imported_total",
			Help: "Total number of rpc blob sidecar batches that completed a block's data",
		},
	)
	chainSegmentSuccessTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_processor_chain_segment_success_total",
			Help: "Total number of chain segments successfully processed",
		},
	)
	chainSegmentFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_processor_chain_segment_failed_total",
			Help: "Total number of chain segments that failed processing",
		},
	)
	backfillChainSegmentSuccessTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_processor_backfill_chain_segment_success_total",
			Help: "Total number of backfill chain segments successfully processed",
		},
	)
	backfillChainSegmentFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_processor_backfill_chain_segment_failed_total",
			Help: "Total number of backfill chain segments that failed processing",
		},
	)
	reprocessQueueOverflowTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_processor_reprocess_queue_overflow_total",
			Help: "Total number of duplicate block imports dropped because the reprocess queue was full",
		},
	)
	sidecarDeliveryCacheHitTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_sidecar_delivery_cache_hit_total",
			Help: "Total number of by-root sidecar responses served from the delivery cache",
		},
	)
	rateLimitedRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_rate_limited_requests_total",
			Help: "Total number of rpc requests rejected by the rate limiter",
		},
	)
)
