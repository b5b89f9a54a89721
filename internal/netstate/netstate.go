// Package netstate holds the per-forwarder network state record, modeled
// on utils/routing/network.py's Network class.
package netstate

import (
	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/orientation"
	"github.com/pentaring/meshcore/internal/routing"
)

// LocalState tracks whether the WLAN peer link is up.
type LocalState int

const (
	NotConnected LocalState = iota
	Connected
)

func (s LocalState) String() string {
	if s == Connected {
		return "connected"
	}
	return "not_connected"
}

// GlobalState tracks provisioning / gateway-election progress.
type GlobalState int

const (
	WithoutNetwork GlobalState = iota
	WithNetwork
	OnGtwReq
)

func (s GlobalState) String() string {
	switch s {
	case WithNetwork:
		return "with_network"
	case OnGtwReq:
		return "on_gtw_req"
	default:
		return "without_network"
	}
}

// Network is the per-forwarder state record.
type Network struct {
	Orientation orientation.Orientation

	NodeNetwork     ipaddr.Addr
	NodeNetworkMask ipaddr.Addr
	MyNetwork       ipaddr.Addr
	MyNetworkMask   ipaddr.Addr
	MyWLANIP        ipaddr.Addr
	HasMyWLANIP     bool

	IsLocalRoot bool
	DTR         uint32

	LocalState  LocalState
	GlobalState GlobalState

	NodeRoutingTable *routing.Table
}

// New builds a fresh Network record for o, with a node-global routing
// table whose initial default gateway is the center ("c"), matching
// RoutingTable("c") in network.py.
func New(o orientation.Orientation) *Network {
	return &Network{
		Orientation:      o,
		GlobalState:      WithoutNetwork,
		LocalState:       NotConnected,
		NodeRoutingTable: routing.New("c"),
	}
}
