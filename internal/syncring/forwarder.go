package syncring

import "github.com/pentaring/meshcore/internal/meshmsg"

// ForwarderSync is the token-ring participant for slots 1-4. It requests a
// token by broadcasting request-token, and on receiving a token-grant
// addressed to its own slot it runs the device's critical section once and
// releases the token to the next slot.
type ForwarderSync struct {
	output Output
	slot   int

	requestedCS bool
}

// NewForwarderSync constructs a ForwarderSync for the given ring slot
// (1..4).
func NewForwarderSync(output Output, slot int) *ForwarderSync {
	return &ForwarderSync{output: output, slot: slot}
}

// RequestCriticalSection sets the pending flag and broadcasts request-token.
func (f *ForwarderSync) RequestCriticalSection() {
	f.requestedCS = true
	f.output.BroadcastSibling(meshmsg.NewRequestToken())
}

// OnSiblingMessage claims every token-grant and request-token message, so
// neither reaches the routing core; only a token-grant addressed to this
// slot runs the critical section and releases the token, and request-token
// is acted on only by the center. Any other message passes through
// unclaimed for normal sibling delivery.
func (f *ForwarderSync) OnSiblingMessage(msg meshmsg.Sibling) bool {
	switch msg.Kind {
	case meshmsg.SiblingTokenGrant:
		if msg.Destination == f.slot {
			if f.requestedCS {
				f.requestedCS = false
				f.output.OnCriticalSection()
			}
			f.releaseToken()
		}
		return true
	case meshmsg.SiblingRequestToken:
		return true
	default:
		return false
	}
}

func (f *ForwarderSync) releaseToken() {
	f.output.BroadcastSibling(meshmsg.NewTokenGrant(f.slot + 1))
}
