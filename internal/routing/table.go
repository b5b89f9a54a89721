// Package routing implements the longest-prefix-match routing table shared
// by the node-global table and each sub-device's legacy per-interface
// table. Unlike a netlink-backed kernel route mirror, this is an in-memory
// LPM table with no kernel dependency, since this core's "interface" is an
// orientation tag or a spi/wlan name rather than a host network device.
package routing

import (
	"fmt"

	"github.com/pentaring/meshcore/internal/ipaddr"
)

// Hop is one routing table entry.
type Hop struct {
	Network   ipaddr.Addr
	PrefixLen int
	Interface string // an orientation letter, or "spi"/"wlan"
	Static    bool
}

// Matches reports whether addr's high PrefixLen bits equal Network.
func (h Hop) Matches(addr ipaddr.Addr) bool {
	return ipaddr.Matches(addr, h.Network, h.PrefixLen)
}

func (h Hop) String() string {
	mark := ""
	if h.Static {
		mark = "[STATIC] "
	}
	return fmt.Sprintf("%s%s -> %s", mark, ipaddr.CIDR(h.Network, h.PrefixLen), h.Interface)
}

// Table is an ordered list of hops plus a designated default gateway, the
// sole hop with PrefixLen == 0.
type Table struct {
	routes         []Hop
	initialGateway string
}

// New creates a table whose sole entry is the static default gateway
// through iface, matching RoutingTable(default_gateway) in routing_table.py.
func New(iface string) *Table {
	t := &Table{initialGateway: iface}
	t.routes = []Hop{{Network: 0, PrefixLen: 0, Interface: iface, Static: true}}
	return t
}

// Reset reinstalls only the initial default gateway, discarding every
// route learned since.
func (t *Table) Reset() {
	t.routes = []Hop{{Network: 0, PrefixLen: 0, Interface: t.initialGateway, Static: true}}
}

// AddRoute masks network to prefixLen and inserts it at the first position
// whose existing prefix length is shorter-or-equal, so the table stays
// sorted by PrefixLen descending with the default gateway last. The scan
// stops at the default gateway at the latest, since its prefix 0 is
// shorter-or-equal to any insertion, so a route shorter than every other
// non-default route lands immediately before the default gateway.
func (t *Table) AddRoute(network ipaddr.Addr, prefixLen int, iface string, static bool) {
	masked := network.Mask(ipaddr.MaskFromPrefixLen(prefixLen))
	hop := Hop{Network: masked, PrefixLen: prefixLen, Interface: iface, Static: static}

	insertAt := len(t.routes)
	for i, route := range t.routes {
		if route.PrefixLen <= prefixLen {
			insertAt = i
			break
		}
	}
	t.routes = append(t.routes, Hop{})
	copy(t.routes[insertAt+1:], t.routes[insertAt:])
	t.routes[insertAt] = hop
}

// AddRouteWithMask mirrors add_route_with_mask: the mask's popcount is the
// prefix length.
func (t *Table) AddRouteWithMask(network, mask ipaddr.Addr, iface string, static bool) {
	t.AddRoute(network, mask.PrefixLen(), iface, static)
}

// RemoveRoute removes every hop with the exact (network, prefixLen) key.
func (t *Table) RemoveRoute(network ipaddr.Addr, prefixLen int) {
	masked := network.Mask(ipaddr.MaskFromPrefixLen(prefixLen))
	kept := t.routes[:0:0]
	for _, r := range t.routes {
		if r.Network == masked && r.PrefixLen == prefixLen {
			continue
		}
		kept = append(kept, r)
	}
	t.routes = kept
}

// Route returns the first matching hop (longest-prefix match). Always
// defined because of the default gateway.
func (t *Table) Route(addr ipaddr.Addr) Hop {
	for _, r := range t.routes {
		if r.Matches(addr) {
			return r
		}
	}
	// Unreachable under the table invariants, but fall back to the literal
	// default gateway entry rather than a zero Hop.
	return t.routes[len(t.routes)-1]
}

// SwitchDefaultGateway mutates the default gateway's interface in place.
func (t *Table) SwitchDefaultGateway(iface string) {
	for i := range t.routes {
		if t.routes[i].PrefixLen == 0 {
			t.routes[i].Interface = iface
			return
		}
	}
}

// DefaultGateway returns the sole prefix-0 hop.
func (t *Table) DefaultGateway() Hop {
	for _, r := range t.routes {
		if r.PrefixLen == 0 {
			return r
		}
	}
	return Hop{}
}

// RemoveRoutesForInterface deletes non-static hops through iface and
// returns them.
func (t *Table) RemoveRoutesForInterface(iface string) []Hop {
	var lost []Hop
	kept := t.routes[:0:0]
	for _, r := range t.routes {
		if r.Interface == iface && !r.Static {
			lost = append(lost, r)
			continue
		}
		kept = append(kept, r)
	}
	t.routes = kept
	return lost
}

// Routes returns a read-only snapshot of the ordered hop list.
func (t *Table) Routes() []Hop {
	out := make([]Hop, len(t.routes))
	copy(out, t.routes)
	return out
}

// Status renders each hop on its own line, for the observer status stream.
func (t *Table) Status() []string {
	out := make([]string, len(t.routes))
	for i, r := range t.routes {
		out[i] = r.String()
	}
	return out
}

// SerializedHop is the wire/round-trip form of a Hop: [network, mask, iface].
type SerializedHop struct {
	Network   uint32 `json:"network"`
	Mask      uint32 `json:"mask"`
	Interface string `json:"interface"`
}

// Serialize renders the table as an ordered list of SerializedHop, last
// entry being the (always-static) default gateway.
func (t *Table) Serialize() []SerializedHop {
	out := make([]SerializedHop, len(t.routes))
	for i, r := range t.routes {
		out[i] = SerializedHop{
			Network:   uint32(r.Network),
			Mask:      uint32(ipaddr.MaskFromPrefixLen(r.PrefixLen)),
			Interface: r.Interface,
		}
	}
	return out
}

// Deserialize rebuilds a table from the wire form, treating the last entry
// as the always-static default gateway.
func Deserialize(rows []SerializedHop) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("routing: cannot deserialize an empty table")
	}
	t := &Table{}
	t.routes = make([]Hop, len(rows))
	for i, row := range rows {
		prefixLen := ipaddr.Addr(row.Mask).PrefixLen()
		t.routes[i] = Hop{
			Network:   ipaddr.Addr(row.Network),
			PrefixLen: prefixLen,
			Interface: row.Interface,
			Static:    false,
		}
	}
	last := len(t.routes) - 1
	t.routes[last].Static = true
	t.initialGateway = t.routes[last].Interface
	return t, nil
}
