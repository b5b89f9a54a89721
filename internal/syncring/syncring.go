// Package syncring implements the token-ring mutual-exclusion protocol:
// CenterSync (the token source, slot 5) and ForwarderSync (slots 1-4),
// modeled on nodo/sync/core/{center,forwarder}.py and restructured as two
// small state machines sharing a common Output contract, the same way
// Provisioner/BGPServer interfaces sit behind internal/manager/manager.go.
package syncring

import "github.com/pentaring/meshcore/internal/meshmsg"

// Output is the device-provided sink every sync core drives: broadcasting
// ring control messages and invoking the device's critical section.
type Output interface {
	BroadcastSibling(msg meshmsg.Sibling)
	OnCriticalSection()
}

// Core is the behavior every sync core (forwarder or center) exposes to the
// device loop.
type Core interface {
	// RequestCriticalSection records that the device wants to run its
	// queued routing-core reactions next time it holds the token.
	RequestCriticalSection()
	// OnSiblingMessage processes a just-arrived sibling message and reports
	// whether it claimed it (suppressing routing-core delivery).
	OnSiblingMessage(msg meshmsg.Sibling) (claimed bool)
}

// CenterOrientationSlot is the fixed ring slot of the center device — the
// token source and the node's only issuer/destroyer of tokens.
const CenterOrientationSlot = 5

// firstDeviceToGetToken is the slot immediately after the center, so that
// once the token returns to the center it has visited every other slot.
const firstDeviceToGetToken = (CenterOrientationSlot % 5) + 1
