// Package blockchain defines the contracts the sync service consumes from the
// chain/storage engine, together with the error taxonomy those contracts
// surface. The engine itself lives outside this module; sync only depends on
// the shapes below.
package blockchain

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sky-coderay/lighthouse/consensus-types/primitives"
)

// Block import errors. The sync layer classifies these into peer-attributable
// faults, internal failures and benign duplicates; see the sync package for
// the mapping.

// ParentUnknownError is returned when a block's parent is not known to the
// chain. Within a segment this means the peer sent non-sequential blocks.
type ParentUnknownError struct {
	ParentRoot [32]byte
}

func (e *ParentUnknownError) Error() string {
	return fmt.Sprintf("block has an unknown parent: %#x", e.ParentRoot)
}

// DuplicateFullyImportedError is returned when the block and all of its data
// components were already imported through another source.
type DuplicateFullyImportedError struct {
	BlockRoot [32]byte
}

func (e *DuplicateFullyImportedError) Error() string {
	return fmt.Sprintf("block is already fully imported: %#x", e.BlockRoot)
}

// ErrDuplicateImportStatusUnknown is returned when an import of the same block
// root is racing elsewhere and the eventual outcome is not yet known.
var ErrDuplicateImportStatusUnknown = errors.New("duplicate import in progress, outcome unknown")

// FutureSlotError is returned for blocks beyond the local clock.
type FutureSlotError struct {
	PresentSlot primitives.Slot
	BlockSlot   primitives.Slot
}

func (e *FutureSlotError) Error() string {
	return fmt.Sprintf("block with slot %d is higher than the current slot %d", e.BlockSlot, e.PresentSlot)
}

// ErrWouldRevertFinalizedSlot is returned for blocks at or before the
// finalized slot. Processing them is a no-op, not a fault.
var ErrWouldRevertFinalizedSlot = errors.New("block would revert the finalized slot")

// ErrGenesisBlock is returned when the genesis block is (re)processed.
var ErrGenesisBlock = errors.New("genesis block was processed")

// InternalError wraps an unexpected engine-side failure. It must never be
// attributed to a peer.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal beacon chain error: %v", e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// ExecutionPayloadError is returned when execution-layer verification of a
// payload fails. PeerFault distinguishes "the payload is invalid" from "our
// execution client is unhealthy".
type ExecutionPayloadError struct {
	Err       error
	PeerFault bool
}

func (e *ExecutionPayloadError) Error() string {
	return fmt.Sprintf("execution payload error: %v", e.Err)
}

func (e *ExecutionPayloadError) Unwrap() error { return e.Err }

// PenalizePeer reports whether the failure is attributable to the sender.
func (e *ExecutionPayloadError) PenalizePeer() bool { return e.PeerFault }

// ParentPayloadInvalidError is returned when a block descends from a parent
// whose execution payload was found invalid.
type ParentPayloadInvalidError struct {
	ParentRoot [32]byte
}

func (e *ParentPayloadInvalidError) Error() string {
	return fmt.Sprintf("block descends from invalid execution payload parent: %#x", e.ParentRoot)
}

// InvalidBlockError covers the remaining consensus-rule violations (bad state
// root, bad signature, incorrect proposer and so on).
type InvalidBlockError struct {
	Reason string
}

func (e *InvalidBlockError) Error() string {
	return fmt.Sprintf("invalid block: %s", e.Reason)
}

// ErrMissingExecutionPayload is surfaced by block fetches when the execution
// layer cannot supply the payload body, typically because it is still syncing.
var ErrMissingExecutionPayload = errors.New("execution payload missing from execution layer")

// HistoricalDataOutOfRangeError is returned by forward root iteration when the
// requested slot is below the backfill horizon.
type HistoricalDataOutOfRangeError struct {
	RequestedSlot primitives.Slot
	OldestSlot    primitives.Slot
}

func (e *HistoricalDataOutOfRangeError) Error() string {
	return fmt.Sprintf("requested slot %d is below the oldest known slot %d", e.RequestedSlot, e.OldestSlot)
}

// Historical (backfill) import errors.

// MismatchedBlockRootError is returned when a backfill block does not hash to
// the root the anchored chain expects.
type MismatchedBlockRootError struct {
	BlockRoot         [32]byte
	ExpectedBlockRoot [32]byte
}

func (e *MismatchedBlockRootError) Error() string {
	return fmt.Sprintf("mismatched block root: got %#x, expected %#x", e.BlockRoot, e.ExpectedBlockRoot)
}

var (
	// ErrInvalidSignature is returned when a backfill batch signature check fails.
	ErrInvalidSignature = errors.New("invalid block signature in batch")
	// ErrPubkeyCacheTimeout is returned when the validator pubkey cache could
	// not be acquired in time. Internal, never a peer fault.
	ErrPubkeyCacheTimeout = errors.New("validator pubkey cache timeout")
	// ErrIndexOutOfBounds signals an impossible validator index during
	// historical import. Internal.
	ErrIndexOutOfBounds = errors.New("validator index out of bounds")
)

// StoreError wraps a database failure. Internal, never a peer fault.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %v", e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// AvailabilityCheckError wraps a KZG/availability verification failure for a
// downloaded batch. Unless the underlying cause is a StoreError, the peer sent
// data that does not verify.
type AvailabilityCheckError struct {
	Err error
}

func (e *AvailabilityCheckError) Error() string {
	return fmt.Sprintf("availability check failed: %v", e.Err)
}

func (e *AvailabilityCheckError) Unwrap() error { return e.Err }
