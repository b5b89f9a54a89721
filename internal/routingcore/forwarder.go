package routingcore

import (
	"fmt"
	"log/slog"

	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
	"github.com/pentaring/meshcore/internal/netstate"
	"github.com/pentaring/meshcore/internal/orientation"
)

// ForwarderCore is the routing core for the four peripheral sub-devices
// (north/east/south/west), grounded on routing/core/forwarder.py's
// ForwarderCore. Peer and sibling events are queued as they arrive and only
// acted on inside OnCriticalSection, so every mutation of the shared
// network state happens while this node's token-ring slot holds the token.
type ForwarderCore struct {
	Base

	orientation orientation.Orientation
	network     *netstate.Network
	internal    *internalForwarder
	external    *externalForwarder

	// peerQueue also carries the two locally synthesized connect/lost
	// events under the PeerOnConnected/PeerLost kinds, so one queue and one
	// drain loop serve both wire-received and local peer events.
	peerQueue    []meshmsg.Peer
	siblingQueue []meshmsg.Sibling
}

// NewForwarderCore constructs a ForwarderCore for orientation o, writing
// side effects to out.
func NewForwarderCore(o orientation.Orientation, out Output) *ForwarderCore {
	return &ForwarderCore{Base: Base{Output: out}, orientation: o}
}

// OnStart initializes the shared network record and the two message
// handlers bound to it.
func (c *ForwarderCore) OnStart() {
	c.network = netstate.New(c.orientation)
	c.internal = newInternalForwarder(c.network, c.Output)
	c.external = newExternalForwarder(c.network, c.Output)
}

// OnPeerConnected enqueues a locally synthesized peer-connect event.
func (c *ForwarderCore) OnPeerConnected(network, mask ipaddr.Addr) {
	c.peerQueue = append(c.peerQueue, meshmsg.NewOnConnected(network, mask))
}

// OnPeerLost enqueues a locally synthesized peer-lost event.
func (c *ForwarderCore) OnPeerLost(network, mask ipaddr.Addr) {
	c.peerQueue = append(c.peerQueue, meshmsg.NewPeerLost(network, mask))
}

// OnPeerMessage enqueues a wire-received peer message.
func (c *ForwarderCore) OnPeerMessage(msg meshmsg.Peer) {
	c.peerQueue = append(c.peerQueue, msg)
}

// OnSiblingMessage enqueues a sibling message not already claimed by the
// token-ring sync core.
func (c *ForwarderCore) OnSiblingMessage(msg meshmsg.Sibling) {
	c.siblingQueue = append(c.siblingQueue, msg)
}

// OnCriticalSection drains both queues, sibling messages first, matching
// forwarder.py's on_critical_section ordering.
func (c *ForwarderCore) OnCriticalSection() {
	for _, msg := range c.siblingQueue {
		c.internal.process(msg)
	}
	c.siblingQueue = nil

	for _, msg := range c.peerQueue {
		switch msg.Kind {
		case meshmsg.PeerOnConnected:
			c.external.onPeerConnected(ipaddr.Addr(msg.Network), ipaddr.Addr(msg.Mask))
		case meshmsg.PeerLost:
			c.external.onPeerLost(ipaddr.Addr(msg.Network), ipaddr.Addr(msg.Mask))
		default:
			c.external.processMessage(msg)
		}
	}
	c.peerQueue = nil
}

// OnForward logs a warning if the forward and return paths for a packet
// coincide, which indicates a routing loop.
func (c *ForwarderCore) OnForward(src, dst ipaddr.Addr) {
	if src.Mask(c.network.NodeNetworkMask) == c.network.NodeNetwork {
		return // from my own node
	}
	if dst.Mask(c.network.NodeNetworkMask) == c.network.NodeNetwork {
		return // to my own node
	}

	path := c.network.NodeRoutingTable.Route(dst).Interface
	returnPath := c.network.NodeRoutingTable.Route(src).Interface
	if path == returnPath {
		slog.Warn("routingcore: routing loop detected", "src", src, "dst", dst, "iface", path)
	}
}

// DoForward consults the node-global table.
func (c *ForwarderCore) DoForward(dst ipaddr.Addr) (string, bool) {
	return c.network.NodeRoutingTable.Route(dst).Interface, true
}

// OnChangeDefaultGateway updates the node-global table when this node
// becomes the node's local root (default gateway switched to wlan) and
// notifies the siblings of the new table.
func (c *ForwarderCore) OnChangeDefaultGateway(gw string) {
	if gw != "wlan" {
		return
	}
	slog.Warn("routingcore: became local root", "orientation", c.orientation)
	c.network.NodeRoutingTable.SwitchDefaultGateway(c.orientation.String())
	c.Output.BroadcastSibling(meshmsg.NewUpdateNodeTable(c.network.NodeRoutingTable))
}

// Status renders the forwarder's network state and node routing table.
func (c *ForwarderCore) Status() string {
	return c.status("DEVICE STATUS")
}

func (c *ForwarderCore) status(title string) string {
	n := c.network
	s := fmt.Sprintf("-------- %s --------\n", title)
	s += fmt.Sprintf("  orientation = %s\n", n.Orientation)
	s += fmt.Sprintf("  has_wlan_ip = %v\n", n.HasMyWLANIP)
	s += fmt.Sprintf("  is_local_root = %v\n", n.IsLocalRoot)
	s += fmt.Sprintf("  node_network = %s\n", ipaddr.CIDR(n.NodeNetwork, n.NodeNetworkMask.PrefixLen()))
	s += fmt.Sprintf("  my_network = %s\n", ipaddr.CIDR(n.MyNetwork, n.MyNetworkMask.PrefixLen()))
	s += fmt.Sprintf("  dtr = %d\n", n.DTR)
	s += "--------------------------------\n"
	s += "------ NODE ROUTING TABLE ------\n"
	for _, line := range n.NodeRoutingTable.Status() {
		s += line + "\n"
	}
	return s
}
