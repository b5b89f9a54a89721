// Package routingcore implements the four pluggable routing state machines:
// ForwarderCore, RootForwarderCore, HomeCore and RootCore, plus the
// internal (sibling-facing) and external (peer-facing) forwarder logic
// they share. Modeled on nodo/routing/* and
// .../utils/routing/{internal,external}_forwarder.py, restructured around
// an explicit Output interface the same way Provisioner implementations
// sit behind the NetlinkManager that drives them
// (client/doublezerod/internal/manager/manager.go).
package routingcore

import (
	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
	"github.com/pentaring/meshcore/internal/routing"
)

// Output is the device-provided sink for every side effect a routing core
// may cause. Forwarder and home cores call it only from within their
// OnCriticalSection (their on_peer_*/on_sibling_message handlers only
// enqueue); RootCore calls it directly from OnStart and OnTick.
type Output interface {
	SendPeerMessage(msg meshmsg.Peer)
	BroadcastSibling(msg meshmsg.Sibling)
	SwitchDefaultGateway(iface string)
	AddRoute(network, mask ipaddr.Addr, iface string)
	RemoveRoute(network, mask ipaddr.Addr)
	RemoveRoutesForInterface(iface string) []routing.Hop
	EnableAPMode(network, mask ipaddr.Addr)
	Event(name string, fields map[string]any)
}

// Core is the shared event interface every routing core exposes to the
// device loop.
type Core interface {
	OnStart()
	OnPeerConnected(network, mask ipaddr.Addr)
	OnPeerLost(network, mask ipaddr.Addr)
	OnPeerMessage(msg meshmsg.Peer)
	OnSiblingMessage(msg meshmsg.Sibling)
	OnTick()
	OnCriticalSection()
	OnForward(src, dst ipaddr.Addr)
	// DoForward returns the hop's interface and true if the node-global
	// table has an opinion; false means "fall back to the legacy table".
	DoForward(dst ipaddr.Addr) (iface string, ok bool)
	OnChangeDefaultGateway(iface string)
	Status() string
}

// Base provides no-op defaults for every Core method, matching
// routing/device_core.py's DeviceCore base class. Routing cores embed Base
// and override only what they need.
type Base struct {
	Output Output
}

func (Base) OnStart()                                    {}
func (Base) OnPeerConnected(network, mask ipaddr.Addr)    {}
func (Base) OnPeerLost(network, mask ipaddr.Addr)         {}
func (Base) OnPeerMessage(msg meshmsg.Peer)               {}
func (Base) OnSiblingMessage(msg meshmsg.Sibling)         {}
func (Base) OnTick()                                      {}
func (Base) OnCriticalSection()                           {}
func (Base) OnForward(src, dst ipaddr.Addr)               {}
func (Base) OnChangeDefaultGateway(iface string)          {}
func (Base) Status() string                               { return "" }
func (Base) DoForward(dst ipaddr.Addr) (string, bool)     { return "", false }
