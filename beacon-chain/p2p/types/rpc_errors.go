package types

import "github.com/pkg/errors"

var (
	ErrInvalidRequest          = errors.New("invalid range, step or count")
	ErrMaxBlocksReqExceeded    = errors.New("requested more than the max allowed blocks")
	ErrMaxBlobReqExceeded      = errors.New("requested more than the max allowed blob sidecars")
	ErrMaxColumnReqExceeded    = errors.New("requested more than the max allowed data column sidecars")
	ErrMaxLCUpdatesReqExceeded = errors.New("requested more than the max allowed light client updates")
	ErrRateLimited             = errors.New("rate limited")
)

// GoodbyeReason is the disconnect code sent with a Goodbye message.
type GoodbyeReason uint64

const (
	GoodbyeReasonClientShutdown GoodbyeReason = iota + 1
	GoodbyeReasonIrrelevantNetwork
	GoodbyeReasonGenericError
)

// GoodbyeReasonBanned is the spec-reserved code for banned peers.
const GoodbyeReasonBanned GoodbyeReason = 250

// PeerAction is a scored disciplinary signal attached to faulty batch
// failures. The peer manager translates accumulated actions into score
// changes and eventual disconnection or banning.
type PeerAction uint8

const (
	// PeerActionFatal bans the peer immediately.
	PeerActionFatal PeerAction = iota
	// PeerActionLowToleranceError escalates quickly toward a ban.
	PeerActionLowToleranceError
	// PeerActionMidToleranceError tolerates a handful of occurrences.
	PeerActionMidToleranceError
	// PeerActionHighToleranceError is effectively informational.
	PeerActionHighToleranceError
)

func (a PeerAction) String() string {
	switch a {
	case PeerActionFatal:
		return "Fatal"
	case PeerActionLowToleranceError:
		return "LowToleranceError"
	case PeerActionMidToleranceError:
		return "MidToleranceError"
	case PeerActionHighToleranceError:
		return "HighToleranceError"
	default:
		return "unknown"
	}
}
