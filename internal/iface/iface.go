// Package iface defines the narrow interfaces the device loop speaks to
// the two external transports: the SPI sibling ring and the WLAN peer
// link. Concrete implementations are spi.go (loopback UDP ring), peer.go
// (ICMP type-2 over WLAN) and sim.go (a pysim-driven WLAN stand-in). The
// shape follows the Netlinker interface in
// client/doublezerod/internal/routing/netlink.go, which narrows "talk to
// the kernel" down to the handful of methods callers actually need.
package iface

import (
	"context"

	"github.com/pentaring/meshcore/internal/ipaddr"
)

// SPI is the sibling-ring transport for one sub-device. Send forwards a
// raw ring frame (orientation byte + body) to the next hop; Recv blocks
// until a frame arrives addressed to this sub-device.
type SPI interface {
	IP() ipaddr.Addr
	Send(frame []byte) error
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// WLAN is the peer-plane transport for one sub-device: either a station
// dialed to a neighbour AP, an AP itself, or (for the root) an Internet
// uplink. OnPeerConnected/OnPeerLost are delivered as device-loop events,
// not returned from Connect, since the link may come and go for reasons
// outside the caller's control.
type WLAN interface {
	Connect(ctx context.Context) error
	Send(frame []byte) error
	Recv(ctx context.Context) ([]byte, error)
	// IP reports this sub-device's WLAN address, if currently connected.
	IP() (addr ipaddr.Addr, ok bool)
	// SetAPMode switches the interface into access-point mode advertising
	// network/mask, used once a sub-device claims a subnet block.
	SetAPMode(network, mask ipaddr.Addr) error
	Close() error
}
