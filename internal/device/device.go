package device

import (
	"context"
	"log/slog"
	"time"

	"github.com/pentaring/meshcore/internal/iface"
	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
	"github.com/pentaring/meshcore/internal/orientation"
	"github.com/pentaring/meshcore/internal/routing"
	"github.com/pentaring/meshcore/internal/routingcore"
)

// eventQueueDepth bounds the device's event channel; a full queue drops
// the newest event and logs.
const eventQueueDepth = 64

// tickPeriod is the device loop's suspension budget between event-queue
// checks: a fixed ~1 second budget.
const tickPeriod = time.Second

// SyncCore is the subset of syncring.CenterSync/ForwarderSync the device
// loop drives: both already implement this method set.
type SyncCore interface {
	RequestCriticalSection()
	OnSiblingMessage(msg meshmsg.Sibling) bool
}

// Observer is the external collaborator contract: every externally visible
// action is preceded by an Event call, and the device's critical-section
// lifecycle is recorded as events too.
type Observer interface {
	Event(name string, fields map[string]any)
	RequestCriticalSection()
	EnterCriticalSection()
	ExitCriticalSection()
}

// noopObserver discards every event; used when a Device is built without
// one, e.g. in package-local tests.
type noopObserver struct{}

func (noopObserver) Event(string, map[string]any) {}
func (noopObserver) RequestCriticalSection()       {}
func (noopObserver) EnterCriticalSection()         {}
func (noopObserver) ExitCriticalSection()           {}

// Device is the single-threaded event loop for one sub-device. It owns the
// legacy per-device routing table (the fallback path when the routing
// core's DoForward has no opinion) and the two interface transports.
type Device struct {
	Orientation orientation.Orientation
	RoutingCore routingcore.Core
	SyncCore    SyncCore

	WLAN iface.WLAN
	SPI  iface.SPI

	LegacyTable *routing.Table

	Observer Observer
	Metrics  *Metrics

	events chan Event
}

// New constructs a Device. legacyDefaultGateway names the interface the
// device-local table's initial default route points at (the entrypoint
// passes "spi" for every sub-device), matching routing_table.py's
// RoutingTable(default_gateway) construction pattern.
func New(o orientation.Orientation, core routingcore.Core, sync SyncCore, wlan iface.WLAN, spi iface.SPI, legacyDefaultGateway string) *Device {
	return &Device{
		Orientation: o,
		RoutingCore: core,
		SyncCore:    sync,
		WLAN:        wlan,
		SPI:         spi,
		LegacyTable: routing.New(legacyDefaultGateway),
		Observer:    noopObserver{},
		Metrics:     NewMetrics(o.String()),
		events:      make(chan Event, eventQueueDepth),
	}
}

// enqueue attempts a non-blocking send; a full queue drops the event and
// logs.
func (d *Device) enqueue(ev Event) {
	select {
	case d.events <- ev:
	default:
		slog.Warn("device: event queue full, dropping event", "orientation", d.Orientation, "kind", ev.Kind)
		d.Metrics.EventsDropped.Inc()
	}
}

// requestCriticalSection notifies both the sync core (which actually owns
// the token-ring state machine) and the observer (which only records the
// lifecycle as an event).
func (d *Device) requestCriticalSection() {
	d.Observer.RequestCriticalSection()
	d.SyncCore.RequestCriticalSection()
}

// Shutdown injects the sentinel that lets Run drain and exit.
func (d *Device) Shutdown() {
	d.enqueue(Event{Kind: EventShutdown})
}

// NotifyPeerConnected injects a peer-connected event, called by whatever
// drives the WLAN transport once it has a reachable peer address: either
// straight after Connect succeeds (the simulated link) or once the first
// frame arrives from an address the transport hadn't seen before (the raw
// ICMP link, where Connect itself never learns the peer).
func (d *Device) NotifyPeerConnected(network, mask ipaddr.Addr) {
	d.enqueue(Event{Kind: EventPeerConnected, Network: network, Mask: mask})
}

// NotifyPeerLost injects a peer-lost event, called once the WLAN transport
// stops hearing from a peer it previously had.
func (d *Device) NotifyPeerLost(network, mask ipaddr.Addr) {
	d.enqueue(Event{Kind: EventPeerLost, Network: network, Mask: mask})
}

// Run starts the read loops for both transports and then owns the device
// loop until ctx is cancelled or a shutdown event is drained.
func (d *Device) Run(ctx context.Context) error {
	d.RoutingCore.OnStart()

	go d.spiReadLoop(ctx)
	if d.WLAN != nil {
		go d.wlanReadLoop(ctx)
	}

	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-d.events:
			if ev.Kind == EventShutdown {
				return nil
			}
			d.handleEvent(ev)
		case <-ticker.C:
			d.RoutingCore.OnTick()
		}
	}
}

func (d *Device) handleEvent(ev Event) {
	switch ev.Kind {
	case EventPacketReceived:
		d.classify(ev.Packet, ev.Source)
	case EventPeerConnected:
		d.Observer.Event("peer_connected", map[string]any{"network": ev.Network, "mask": ev.Mask})
		d.LegacyTable.AddRoute(ev.Network, ev.Mask.PrefixLen(), "wlan", false)
		d.RoutingCore.OnPeerConnected(ev.Network, ev.Mask)
		d.requestCriticalSection()
	case EventPeerLost:
		d.Observer.Event("peer_lost", map[string]any{"network": ev.Network, "mask": ev.Mask})
		d.LegacyTable.RemoveRoute(ev.Network, ev.Mask.PrefixLen())
		d.RoutingCore.OnPeerLost(ev.Network, ev.Mask)
		d.requestCriticalSection()
	}
}

func (d *Device) spiReadLoop(ctx context.Context) {
	for {
		frame, err := d.SPI.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("device: spi recv", "orientation", d.Orientation, "err", err)
			continue
		}
		d.enqueue(Event{Kind: EventPacketReceived, Packet: frame, Source: fromSPI})
	}
}

// wlanReadLoop also owns peer-connect/peer-lost detection for transports
// that don't already know the peer at Connect time (the raw ICMP link
// learns it from the first frame it ever receives). It tracks the
// transition itself via WLAN.IP(), rather than requiring every transport to
// push its own event, so a transport only has to keep IP() honest.
func (d *Device) wlanReadLoop(ctx context.Context) {
	_, peerUp := d.WLAN.IP()
	for {
		frame, err := d.WLAN.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("device: wlan recv", "orientation", d.Orientation, "err", err)
			if peerUp {
				peerUp = false
				if ip, ok := d.WLAN.IP(); ok {
					d.NotifyPeerLost(ip, ipaddr.MaskFromPrefixLen(32))
				}
			}
			continue
		}
		if !peerUp {
			if ip, ok := d.WLAN.IP(); ok {
				peerUp = true
				d.NotifyPeerConnected(ip, ipaddr.MaskFromPrefixLen(32))
			}
		}
		d.enqueue(Event{Kind: EventPacketReceived, Packet: frame, Source: fromWLAN})
	}
}
