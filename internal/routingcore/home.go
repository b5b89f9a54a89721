package routingcore

import (
	"log/slog"

	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
	"github.com/pentaring/meshcore/internal/routing"
)

// HomeCore is the routing core for the center sub-device of every
// non-root node: it waits for a single PROVISION from one of its four
// sibling forwarders, claims the fifth subnet block for its own WLAN (the
// node's user-facing network), and otherwise only mirrors UPDATE_NODE_TABLE
// broadcasts. Grounded on routing/core/home.py's HomeCore.
type HomeCore struct {
	Base

	nodeRoutingTable *routing.Table
	isProvisioned    bool
	provisionPending *meshmsg.Sibling
}

// NewHomeCore constructs a HomeCore writing side effects to out.
func NewHomeCore(out Output) *HomeCore {
	return &HomeCore{Base: Base{Output: out}, nodeRoutingTable: routing.New("c")}
}

// OnSiblingMessage latches the single PROVISION this device expects, and
// mirrors any node table update broadcast by the forwarder that won the
// node's default gateway.
func (c *HomeCore) OnSiblingMessage(msg meshmsg.Sibling) {
	switch msg.Kind {
	case meshmsg.SiblingProvision:
		m := msg
		c.provisionPending = &m
	case meshmsg.SiblingUpdateNodeTable:
		table, err := msg.RoutingTable()
		if err != nil {
			slog.Error("routingcore: home: malformed UPDATE_NODE_TABLE", "err", err)
			return
		}
		c.nodeRoutingTable = table
	default:
		slog.Error("routingcore: home: unknown or ignored sibling message", "kind", msg.Kind)
	}
}

// OnCriticalSection applies a pending provision, if any.
func (c *HomeCore) OnCriticalSection() {
	if c.provisionPending == nil {
		return
	}
	msg := *c.provisionPending
	c.provisionPending = nil
	c.onProvision(msg)
}

// homeBlock is the fixed subnet assignment slot for the center sub-device,
// per home.py's `assigned_block = 5`.
const homeBlock = 5

func (c *HomeCore) onProvision(msg meshmsg.Sibling) {
	if c.isProvisioned {
		slog.Info("routingcore: home: already provisioned, skipping new provision")
		return
	}

	network := ipaddr.Addr(msg.Network)
	mask := ipaddr.Addr(msg.Mask)
	slog.Info("routingcore: home: provisioned", "provider", msg.ProviderID)

	blocks, newMask := nodeSubnets(network, mask)
	newNetwork := blocks[homeBlock]

	for slot, blockNetwork := range blocks {
		switch {
		case slot == homeBlock:
			c.Output.AddRoute(newNetwork, newMask, "wlan")
		case slot == msg.ProviderID:
			continue
		default:
			c.Output.AddRoute(blockNetwork, newMask, "spi")
		}
	}
	c.Output.EnableAPMode(newNetwork, newMask)
	c.isProvisioned = true

	c.nodeRoutingTable.AddRoute(newNetwork, newMask.PrefixLen(), "c", false)
	c.Output.BroadcastSibling(meshmsg.NewUpdateNodeTable(c.nodeRoutingTable))
}

// Status renders the node routing table, matching home.py's status().
func (c *HomeCore) Status() string {
	s := "------ NODE ROUTING TABLE ------\n"
	for _, line := range c.nodeRoutingTable.Status() {
		s += line + "\n"
	}
	return s
}
