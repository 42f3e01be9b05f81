// Package testing provides a recording response sender for sync tests.
package testing

import (
	gosync "sync"

	"github.com/libp2p/go-libp2p-core/peer"
	p2ptypes "github.com/sky-coderay/lighthouse/beacon-chain/p2p/types"
)

// SentError is one recorded error response.
type SentError struct {
	StreamID p2ptypes.StreamID
	Code     byte
	Reason   string
}

// SentGoodbye is one recorded goodbye message.
type SentGoodbye struct {
	PeerID peer.ID
	Reason p2ptypes.GoodbyeReason
}

// TestP2P records every outbound response event for later assertions.
type TestP2P struct {
	mu gosync.Mutex

	Responses    []interface{}
	EndOfStreams []p2ptypes.StreamID
	Errors       []SentError
	Goodbyes     []SentGoodbye
}

// SendResponse records a payload.
func (p *TestP2P) SendResponse(_ p2ptypes.StreamID, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Responses = append(p.Responses, payload)
}

// SendEndOfStream records a stream terminator.
func (p *TestP2P) SendEndOfStream(id p2ptypes.StreamID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EndOfStreams = append(p.EndOfStreams, id)
}

// SendErrorResponse records an error terminator.
func (p *TestP2P) SendErrorResponse(id p2ptypes.StreamID, code byte, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Errors = append(p.Errors, SentError{StreamID: id, Code: code, Reason: reason})
}

// GoodbyePeer records a goodbye.
func (p *TestP2P) GoodbyePeer(pid peer.ID, reason p2ptypes.GoodbyeReason) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Goodbyes = append(p.Goodbyes, SentGoodbye{PeerID: pid, Reason: reason})
}

// TerminalEvents returns the total number of terminal events recorded.
func (p *TestP2P) TerminalEvents() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.EndOfStreams) + len(p.Errors)
}
