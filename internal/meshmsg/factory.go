package meshmsg

import (
	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/routing"
)

// NewOnConnected builds a peer ON_CONNECTED message.
func NewOnConnected(network, mask ipaddr.Addr) Peer {
	return Peer{Kind: PeerOnConnected, Network: uint32(network), Mask: uint32(mask)}
}

// NewHandshake builds a peer HANDSHAKE message.
func NewHandshake(extNetwork, extMask, provNetwork, provMask ipaddr.Addr, dtr uint32) Peer {
	return Peer{
		Kind:        PeerHandshake,
		ExtNetwork:  uint32(extNetwork),
		ExtMask:     uint32(extMask),
		ProvNetwork: uint32(provNetwork),
		ProvMask:    uint32(provMask),
		DTR:         dtr,
	}
}

// NewPeerDTRUpdate builds a peer DTR_UPDATE message.
func NewPeerDTRUpdate(dtr uint32) Peer {
	return Peer{Kind: PeerDTRUpdate, DTR: dtr}
}

// NewGtwRequest builds a peer NEW_GTW_REQUEST message.
func NewGtwRequest(hagIPs string) Peer {
	return Peer{Kind: PeerNewGtwRequest, HagIPs: hagIPs}
}

// NewGtwResponse builds a peer NEW_GTW_RESPONSE message.
func NewGtwResponse(extNetwork, extMask ipaddr.Addr, dtr uint32) Peer {
	return Peer{Kind: PeerNewGtwResponse, ExtNetwork: uint32(extNetwork), ExtMask: uint32(extMask), DTR: dtr}
}

// NewPeerLost builds a peer PEER_LOST message.
func NewPeerLost(network, mask ipaddr.Addr) Peer {
	return Peer{Kind: PeerLost, Network: uint32(network), Mask: uint32(mask)}
}

// NewProvision builds a sibling PROVISION message.
func NewProvision(providerID int, network, mask ipaddr.Addr) Sibling {
	return Sibling{Kind: SiblingProvision, ProviderID: providerID, Network: uint32(network), Mask: uint32(mask)}
}

// NewRouteLost builds a sibling ROUTE_LOST message.
func NewRouteLost(routes []routing.Hop) Sibling {
	refs := make([]RouteRef, len(routes))
	for i, r := range routes {
		refs[i] = RouteRef{Network: uint32(r.Network), Mask: uint32(ipaddr.MaskFromPrefixLen(r.PrefixLen))}
	}
	return Sibling{Kind: SiblingRouteLost, Routes: refs}
}

// NewSiblingDTRUpdate builds a sibling DTR_UPDATE message.
func NewSiblingDTRUpdate(dtr uint32) Sibling {
	return Sibling{Kind: SiblingDTRUpdate, DTR: dtr}
}

// NewSendNewGtwRequest builds a sibling SEND_NEW_GTW_REQUEST message.
func NewSendNewGtwRequest(hagIPs string) Sibling {
	return Sibling{Kind: SiblingSendNewGtwRequest, HagIPs: hagIPs}
}

// NewNewGtwWinner builds a sibling NEW_GTW_WINNER message.
func NewNewGtwWinner(network, mask ipaddr.Addr, dtr uint32) Sibling {
	return Sibling{Kind: SiblingNewGtwWinner, Network: uint32(network), Mask: uint32(mask), DTR: dtr}
}

// NewUpdateNodeTable builds a sibling UPDATE_NODE_TABLE message carrying a
// full serialized routing table.
func NewUpdateNodeTable(t *routing.Table) Sibling {
	rows := t.Serialize()
	out := make([]TableRow, len(rows))
	for i, r := range rows {
		out[i] = TableRow{Network: r.Network, Mask: r.Mask, Interface: r.Interface}
	}
	return Sibling{Kind: SiblingUpdateNodeTable, Table: out}
}

// RoutingTable reconstructs the routing.Table carried by an
// UPDATE_NODE_TABLE message.
func (s Sibling) RoutingTable() (*routing.Table, error) {
	rows := make([]routing.SerializedHop, len(s.Table))
	for i, r := range s.Table {
		rows[i] = routing.SerializedHop{Network: r.Network, Mask: r.Mask, Interface: r.Interface}
	}
	return routing.Deserialize(rows)
}

// NewRequestToken builds the sync core's request-token sibling control
// message.
func NewRequestToken() Sibling {
	return Sibling{Kind: SiblingRequestToken}
}

// NewTokenGrant builds the sync core's token-grant sibling control message,
// naming the next slot (1..5) permitted to enter its critical section.
func NewTokenGrant(destinationSlot int) Sibling {
	return Sibling{Kind: SiblingTokenGrant, Destination: destinationSlot}
}
