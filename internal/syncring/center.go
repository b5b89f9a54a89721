package syncring

import "github.com/pentaring/meshcore/internal/meshmsg"

// CenterSync is the token source for slot 5 (the center sub-device). The
// center always wants a turn once a token comes back around, so
// requestedCS starts and is re-set to true on every request.
type CenterSync struct {
	output Output

	requestedCS     bool
	requestedTokens uint32
	isTokenOut      bool
}

// NewCenterSync constructs a CenterSync bound to output.
func NewCenterSync(output Output) *CenterSync {
	return &CenterSync{output: output, requestedCS: true}
}

// RequestCriticalSection marks that the center wants to run its routing
// core the next time the token returns. The center never requests a token
// itself — it can only have one handed back.
func (c *CenterSync) RequestCriticalSection() {
	c.requestedCS = true
}

// OnSiblingMessage handles request-token and token-grant; any other
// sibling message passes through unclaimed.
func (c *CenterSync) OnSiblingMessage(msg meshmsg.Sibling) bool {
	switch msg.Kind {
	case meshmsg.SiblingRequestToken:
		c.onRequestToken()
		return true
	case meshmsg.SiblingTokenGrant:
		c.onTokenGrant(msg.Destination)
		return true
	default:
		return false
	}
}

func (c *CenterSync) onRequestToken() {
	if c.isTokenOut {
		c.requestedTokens++
		return
	}
	c.issueNewToken()
}

func (c *CenterSync) onTokenGrant(destination int) {
	if destination != CenterOrientationSlot {
		return
	}

	if c.requestedCS {
		c.requestedCS = false
		c.output.OnCriticalSection()
	}

	if c.requestedTokens > 0 {
		c.requestedTokens--
		c.issueNewToken()
		return
	}
	c.isTokenOut = false
}

func (c *CenterSync) issueNewToken() {
	c.isTokenOut = true
	c.output.BroadcastSibling(meshmsg.NewTokenGrant(firstDeviceToGetToken))
}
