// Package meshmsg defines the two tagged-union message planes: peer
// messages (wireless, unicast) and sibling messages (SPI ring, broadcast),
// plus the token-ring control messages. Dispatch is tagged by a Kind
// string field, the same style as api.UserType's tagged dispatch in
// client/doublezerod/internal/manager/manager.go. Any self-describing
// encoding would do; this module uses encoding/json throughout.
package meshmsg

// PeerKind identifies a peer-plane (wireless, unicast) message.
type PeerKind string

const (
	PeerOnConnected    PeerKind = "ON_CONNECTED"
	PeerHandshake      PeerKind = "HANDSHAKE"
	PeerDTRUpdate      PeerKind = "DTR_UPDATE"
	PeerNewGtwRequest  PeerKind = "NEW_GTW_REQUEST"
	PeerNewGtwResponse PeerKind = "NEW_GTW_RESPONSE"
	PeerLost           PeerKind = "PEER_LOST"
)

// SiblingKind identifies a sibling-plane (SPI ring, broadcast) message.
type SiblingKind string

const (
	SiblingProvision          SiblingKind = "PROVISION"
	SiblingRouteLost          SiblingKind = "ROUTE_LOST"
	SiblingDTRUpdate          SiblingKind = "DTR_UPDATE"
	SiblingSendNewGtwRequest  SiblingKind = "SEND_NEW_GTW_REQUEST"
	SiblingNewGtwWinner       SiblingKind = "NEW_GTW_WINNER"
	SiblingUpdateNodeTable    SiblingKind = "UPDATE_NODE_TABLE"
	SiblingRequestToken       SiblingKind = "request-token"
	SiblingTokenGrant         SiblingKind = "token-grant"
)

// Peer is the envelope for every peer-plane message. Only the fields
// relevant to Kind are populated; see the per-kind constructors below.
type Peer struct {
	Kind PeerKind `json:"id"`

	Network uint32 `json:"network,omitempty"`
	Mask    uint32 `json:"mask,omitempty"`

	ExtNetwork  uint32 `json:"ext_network,omitempty"`
	ExtMask     uint32 `json:"ext_mask,omitempty"`
	ProvNetwork uint32 `json:"prov_network,omitempty"`
	ProvMask    uint32 `json:"prov_mask,omitempty"`

	DTR    uint32 `json:"dtr,omitempty"`
	HagIPs string `json:"hag_ips,omitempty"`
}

// Sibling is the envelope for every sibling-plane message, plus the two
// token-ring control variants (request-token, token-grant).
type Sibling struct {
	Kind SiblingKind `json:"id"`

	ProviderID int    `json:"provider_id,omitempty"`
	Network    uint32 `json:"network,omitempty"`
	Mask       uint32 `json:"mask,omitempty"`

	Routes []RouteRef `json:"routes,omitempty"`

	DTR    uint32 `json:"dtr,omitempty"`
	HagIPs string `json:"hag_ips,omitempty"`

	Table []TableRow `json:"table,omitempty"`

	// Destination is used only by the token-ring control kinds, naming the
	// next slot (1..5) permitted to enter its critical section.
	Destination int `json:"destination,omitempty"`
}

// RouteRef is a (network, mask) pair as carried by ROUTE_LOST.
type RouteRef struct {
	Network uint32 `json:"network"`
	Mask    uint32 `json:"mask"`
}

// TableRow mirrors routing.SerializedHop for UPDATE_NODE_TABLE's payload,
// defined locally so this package does not need to import routing just to
// shuttle bytes across the wire.
type TableRow struct {
	Network   uint32 `json:"network"`
	Mask      uint32 `json:"mask"`
	Interface string `json:"interface"`
}

// IsTokenControl reports whether kind is one of the two token-ring control
// messages that the sync core claims for itself.
func (k SiblingKind) IsTokenControl() bool {
	return k == SiblingRequestToken || k == SiblingTokenGrant
}
