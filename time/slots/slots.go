// Package slots provides conversions between slots, epochs and sync committee
// periods.
package slots

import (
	"math"

	"github.com/sky-coderay/lighthouse/config/params"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
)

// ToEpoch returns the epoch containing the given slot.
func ToEpoch(slot primitives.Slot) primitives.Epoch {
	return primitives.Epoch(uint64(slot) / params.BeaconConfig().SlotsPerEpoch)
}

// EpochStart returns the first slot of the given epoch. The result saturates
// instead of wrapping so far-future epochs stay ordered.
func EpochStart(epoch primitives.Epoch) primitives.Slot {
	spe := params.BeaconConfig().SlotsPerEpoch
	if uint64(epoch) > math.MaxUint64/spe {
		return primitives.Slot(math.MaxUint64)
	}
	return primitives.Slot(uint64(epoch) * spe)
}

// SyncCommitteePeriod returns the sync committee period of the given epoch.
func SyncCommitteePeriod(epoch primitives.Epoch) uint64 {
	return uint64(epoch) / params.BeaconConfig().EpochsPerSyncCommitteePeriod
}
