package routingcore

import (
	"log/slog"
	"time"

	"github.com/pentaring/meshcore/internal/clock"
	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
	"github.com/pentaring/meshcore/internal/routing"
)

// rootNetwork/rootMask are the well-known network the root node provisions
// the whole mesh with, per routing/core/root.py's ROOT_NETWORK/ROOT_MASK.
var (
	rootNetwork = ipaddr.MustParse("10.0.0.0")
	rootMask    = ipaddr.MustParse("255.0.0.0")
)

// gtwWinnerTimeout is how long the root waits, after a gateway election
// request reaches it, before declaring itself the winner (root.py's
// `time.time() - self.gtw_request_tms > 10`).
const gtwWinnerTimeout = 10 * time.Second

// RootCore is the routing core for the center sub-device of the root node.
// The root never searches for a parent: it always wins gateway elections
// and is the sole source of Internet connectivity for the mesh, grounded on
// routing/core/root.py's RootCore.
type RootCore struct {
	Base

	clock            clock.Clock
	gtwRequestAt     time.Time
	hasGtwRequest    bool
	nodeRoutingTable *routing.Table
}

// NewRootCore constructs a RootCore writing side effects to out, using c to
// measure the gateway-election timeout.
func NewRootCore(out Output, c clock.Clock) *RootCore {
	return &RootCore{Base: Base{Output: out}, clock: c, nodeRoutingTable: routing.New("c")}
}

// OnStart points the default gateway at the WLAN Internet uplink, installs the static route
// back to the mesh's root network over SPI, and provisions the four
// forwarders.
func (c *RootCore) OnStart() {
	c.Output.SwitchDefaultGateway("wlan")
	c.Output.AddRoute(rootNetwork, rootMask, "spi")
	c.Output.BroadcastSibling(meshmsg.NewProvision(rootSlot, rootNetwork, rootMask))
}

// rootSlot is the root's own ring slot, always 5 (the center).
const rootSlot = 5

// OnSiblingMessage starts the election timer on SEND_NEW_GTW_REQUEST and
// mirrors node table updates; anything else is logged and ignored.
func (c *RootCore) OnSiblingMessage(msg meshmsg.Sibling) {
	switch msg.Kind {
	case meshmsg.SiblingSendNewGtwRequest:
		c.gtwRequestAt = c.clock.Now()
		c.hasGtwRequest = true
		slog.Info("routingcore: root: SEND_NEW_GTW_REQUEST received")
	case meshmsg.SiblingUpdateNodeTable:
		table, err := msg.RoutingTable()
		if err != nil {
			slog.Error("routingcore: root: malformed UPDATE_NODE_TABLE", "err", err)
			return
		}
		c.nodeRoutingTable = table
	default:
		slog.Error("routingcore: root: unknown or ignored sibling message", "kind", msg.Kind)
	}
}

// OnTick declares the root the gateway winner once the election timeout has
// elapsed since the most recent SEND_NEW_GTW_REQUEST it saw.
func (c *RootCore) OnTick() {
	if !c.hasGtwRequest {
		return
	}
	if c.clock.Now().Sub(c.gtwRequestAt) <= gtwWinnerTimeout {
		return
	}
	c.hasGtwRequest = false
	c.Output.BroadcastSibling(meshmsg.NewNewGtwWinner(rootNetwork, rootMask, 1))
}

// OnForward logs a warning if the forward and return paths for a packet
// coincide, which indicates a routing loop.
func (c *RootCore) OnForward(src, dst ipaddr.Addr) {
	path := c.nodeRoutingTable.Route(src).Interface
	returnPath := c.nodeRoutingTable.Route(dst).Interface
	if path == returnPath {
		slog.Warn("routingcore: root: routing loop detected", "src", src, "dst", dst, "iface", path)
	}
}

// DoForward consults the node-global table.
func (c *RootCore) DoForward(dst ipaddr.Addr) (string, bool) {
	return c.nodeRoutingTable.Route(dst).Interface, true
}

// Status renders the node routing table.
func (c *RootCore) Status() string {
	s := "------ NODE ROUTING TABLE ------\n"
	for _, line := range c.nodeRoutingTable.Status() {
		s += line + "\n"
	}
	return s
}
