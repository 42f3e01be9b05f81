// Package params defines the beacon chain configuration and the network
// configuration used by the sync service. Values mirror the mainnet defaults
// and can be swapped out wholesale in tests.
package params

import (
	"math"

	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
)

// BeaconChainConfig contains the consensus parameters the sync core depends on.
type BeaconChainConfig struct {
	SlotsPerEpoch         uint64
	SecondsPerSlot        uint64
	EpochsPerSyncCommitteePeriod uint64

	// DenebForkEpoch is the activation epoch of blob sidecars. FarFutureEpoch
	// means the fork (and therefore blob/data-column serving) is disabled.
	DenebForkEpoch  primitives.Epoch
	FarFutureEpoch  primitives.Epoch

	// MinEpochsForBlobSidecarsRequests bounds the availability window servers
	// must honor for sidecar range requests.
	MinEpochsForBlobSidecarsRequests uint64

	// MaxBlobsPerBlock caps the blob commitments a single block may carry.
	MaxBlobsPerBlock uint64
}

// DenebEnabled reports whether the blob fork is active at the given epoch.
func (c *BeaconChainConfig) DenebEnabled(e primitives.Epoch) bool {
	return c.DenebForkEpoch != c.FarFutureEpoch && e >= c.DenebForkEpoch
}

// BeaconNetworkConfig contains the req/resp protocol limits.
type BeaconNetworkConfig struct {
	MaxRequestBlocks             uint64
	MaxRequestBlocksDeneb        uint64
	MaxRequestBlobSidecars       uint64
	MaxRequestDataColumnSidecars uint64
	MaxRequestLightClientUpdates uint64

	// FutureSlotTolerance is the number of slots beyond the local clock for
	// which peer-provided blocks and status heads are still accepted.
	FutureSlotTolerance primitives.Slot
}

var beaconConfig = mainnetBeaconConfig()
var networkConfig = mainnetNetworkConfig()

// BeaconConfig returns the active beacon chain config.
func BeaconConfig() *BeaconChainConfig {
	return beaconConfig
}

// BeaconNetwork returns the active network config.
func BeaconNetwork() *BeaconNetworkConfig {
	return networkConfig
}

// OverrideBeaconConfig replaces the active beacon chain config. Tests use this
// with a copy from BeaconConfig().Copy().
func OverrideBeaconConfig(c *BeaconChainConfig) {
	beaconConfig = c
}

// OverrideBeaconNetworkConfig replaces the active network config.
func OverrideBeaconNetworkConfig(c *BeaconNetworkConfig) {
	networkConfig = c
}

// Copy returns a value copy of the config.
func (c *BeaconChainConfig) Copy() *BeaconChainConfig {
	cp := *c
	return &cp
}

// Copy returns a value copy of the config.
func (c *BeaconNetworkConfig) Copy() *BeaconNetworkConfig {
	cp := *c
	return &cp
}

func mainnetBeaconConfig() *BeaconChainConfig {
	return &BeaconChainConfig{
		SlotsPerEpoch:                    32,
		SecondsPerSlot:                   12,
		EpochsPerSyncCommitteePeriod:     256,
		DenebForkEpoch:                   269568,
		FarFutureEpoch:                   primitives.Epoch(math.MaxUint64),
		MinEpochsForBlobSidecarsRequests: 4096,
		MaxBlobsPerBlock:                 6,
	}
}

func mainnetNetworkConfig() *BeaconNetworkConfig {
	return &BeaconNetworkConfig{
		MaxRequestBlocks:             1024,
		MaxRequestBlocksDeneb:        128,
		MaxRequestBlobSidecars:       768,
		MaxRequestDataColumnSidecars: 16384,
		MaxRequestLightClientUpdates: 128,
		FutureSlotTolerance:          1,
	}
}
