// Package device implements the shared device loop: a single-threaded,
// bounded-queue event dispatcher that classifies incoming IP packets
// (to-self / to-sibling / forward) and drives a pluggable routing core and
// sync core. Modeled on nodo/device.py's Device class and on the
// config/constructor style in client/doublezerod/internal/probing/manager.go.
package device

import "github.com/pentaring/meshcore/internal/ipaddr"

// EventKind discriminates the three externally-triggered event kinds, plus
// an internal shutdown sentinel: injecting it lets the device loop exit
// after draining pending events.
type EventKind int

const (
	EventPacketReceived EventKind = iota
	EventPeerConnected
	EventPeerLost
	EventShutdown
)

// sourceIface names which transport an EventPacketReceived arrived on. The
// forward step receives it but chooses the send path from the routing
// decision and the packet's source address alone.
type sourceIface int

const (
	fromWLAN sourceIface = iota
	fromSPI
)

// Event is one entry in the device's bounded event queue.
type Event struct {
	Kind EventKind

	Packet []byte
	Source sourceIface

	Network ipaddr.Addr
	Mask    ipaddr.Addr
}
