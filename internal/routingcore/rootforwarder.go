package routingcore

import (
	"github.com/pentaring/meshcore/internal/orientation"
)

// RootForwarderCore is identical to ForwarderCore in every behavior; it
// exists only to give the observer a distinct status label for a forwarder
// that happens to sit on the root's own node, per routing/core/
// root_forwarder.py's RootForwarderCore (which overrides only __str__).
type RootForwarderCore struct {
	*ForwarderCore
}

// NewRootForwarderCore constructs a RootForwarderCore for orientation o.
func NewRootForwarderCore(o orientation.Orientation, out Output) *RootForwarderCore {
	return &RootForwarderCore{ForwarderCore: NewForwarderCore(o, out)}
}

// Status renders the same network state as ForwarderCore under a
// root-forwarder-specific title.
func (c *RootForwarderCore) Status() string {
	return c.status("DEVICE STATUS -- ROOT FORWARDER CORE")
}
