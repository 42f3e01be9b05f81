package sync

import (
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
)

const (
	responseCodeSuccess             = byte(0x00)
	responseCodeInvalidRequest      = byte(0x01)
	responseCodeServerError         = byte(0x02)
	responseCodeResourceUnavailable = byte(0x03)
)

// rpcError is the terminal error of a request handler. Its code is written to
// the wire verbatim, followed by the reason string.
type rpcError struct {
	code   byte
	reason string
}

func (e *rpcError) Error() string {
	return e.reason
}

func errInvalidRequest(reason string) *rpcError {
	return &rpcError{code: responseCodeInvalidRequest, reason: reason}
}

func errServerError(reason string) *rpcError {
	return &rpcError{code: responseCodeServerError, reason: reason}
}

func errResourceUnavailable(reason string) *rpcError {
	return &rpcError{code: responseCodeResourceUnavailable, reason: reason}
}

// terminateResponseStream closes a streamed response with exactly one
// terminal event: an end-of-stream marker on success or a single error
// response otherwise.
func (s *Service) terminateResponseStream(id p2ptypes.StreamID, rerr *rpcError) {
	if rerr == nil {
		s.cfg.p2p.SendEndOfStream(id)
		return
	}
	s.cfg.p2p.SendErrorResponse(id, rerr.code, rerr.reason)
}

// terminateResponseSingleItem finishes a single-item request. A successful
// payload is its own terminator, so no end-of-stream marker follows it.
func (s *Service) terminateResponseSingleItem(id p2ptypes.StreamID, payload interface{}, rerr *rpcError) {
	if rerr != nil {
		s.cfg.p2p.SendErrorResponse(id, rerr.code, rerr.reason)
		return
	}
	s.cfg.p2p.SendResponse(id, payload)
}
