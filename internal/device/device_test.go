package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/pentaring/meshcore/internal/ipaddr"
)

var errBoom = errors.New("boom")

func TestHandleEventPeerConnectedDrivesCoreAndRequestsCriticalSection(t *testing.T) {
	d, core, sync, _, _ := newTestDevice()
	network := ipaddr.MustParse("10.0.0.0")
	mask := ipaddr.MustParse("255.255.255.0")

	d.handleEvent(Event{Kind: EventPeerConnected, Network: network, Mask: mask})

	if len(core.peerConnected) != 1 || core.peerConnected[0] != network {
		t.Fatalf("expected OnPeerConnected called with %v, got %+v", network, core.peerConnected)
	}
	if sync.requested != 1 {
		t.Fatalf("expected requestCriticalSection called once, got %d", sync.requested)
	}
	if hop := d.LegacyTable.Route(ipaddr.MustParse("10.0.0.5")); hop.Interface != "wlan" {
		t.Fatalf("expected the legacy table to route the peer network over wlan, got %+v", hop)
	}
}

func TestHandleEventPeerLostDrivesCoreAndRequestsCriticalSection(t *testing.T) {
	d, core, sync, _, _ := newTestDevice()
	network := ipaddr.MustParse("10.0.0.0")
	mask := ipaddr.MustParse("255.255.255.0")

	d.handleEvent(Event{Kind: EventPeerConnected, Network: network, Mask: mask})
	d.handleEvent(Event{Kind: EventPeerLost, Network: network, Mask: mask})

	if len(core.peerLost) != 1 || core.peerLost[0] != network {
		t.Fatalf("expected OnPeerLost called with %v, got %+v", network, core.peerLost)
	}
	if sync.requested != 2 {
		t.Fatalf("expected requestCriticalSection called twice, got %d", sync.requested)
	}
	if hop := d.LegacyTable.Route(ipaddr.MustParse("10.0.0.5")); hop.Interface == "wlan" {
		t.Fatalf("expected the peer route to be removed from the legacy table, got %+v", hop)
	}
}

func TestNotifyPeerConnectedAndLostEnqueueEvents(t *testing.T) {
	d, _, _, _, _ := newTestDevice()
	network := ipaddr.MustParse("10.0.0.0")
	mask := ipaddr.MustParse("255.255.255.0")

	d.NotifyPeerConnected(network, mask)
	ev := <-d.events
	if ev.Kind != EventPeerConnected || ev.Network != network || ev.Mask != mask {
		t.Fatalf("expected a queued EventPeerConnected{%v,%v}, got %+v", network, mask, ev)
	}

	d.NotifyPeerLost(network, mask)
	ev = <-d.events
	if ev.Kind != EventPeerLost || ev.Network != network || ev.Mask != mask {
		t.Fatalf("expected a queued EventPeerLost{%v,%v}, got %+v", network, mask, ev)
	}
}

func TestWLANReadLoopNotifiesPeerConnectedThenLost(t *testing.T) {
	d, _, _, _, wlan := newTestDevice()
	wlan.has = false // peer not yet known, unlike the simulated-link default

	frames := make(chan []byte, 1)
	fails := make(chan struct{})
	wlan.recv = func(ctx context.Context) ([]byte, error) {
		select {
		case f := <-frames:
			wlan.ip, wlan.has = ipaddr.MustParse("10.0.0.9"), true
			return f, nil
		case <-fails:
			return nil, errBoom
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.wlanReadLoop(ctx)

	frames <- []byte{0x01}
	connected := <-d.events
	if connected.Kind != EventPeerConnected || connected.Network != ipaddr.MustParse("10.0.0.9") {
		t.Fatalf("expected EventPeerConnected for the newly seen peer, got %+v", connected)
	}
	ev := <-d.events
	if ev.Kind != EventPacketReceived {
		t.Fatalf("expected the frame to still be delivered as EventPacketReceived, got %+v", ev)
	}

	close(fails)
	lost := <-d.events
	if lost.Kind != EventPeerLost || lost.Network != ipaddr.MustParse("10.0.0.9") {
		t.Fatalf("expected EventPeerLost once Recv starts failing, got %+v", lost)
	}
}

func TestEnqueueDropsWhenQueueIsFull(t *testing.T) {
	d, _, _, _, _ := newTestDevice()
	// Fill the bounded queue without draining it (no Run loop consuming).
	for i := 0; i < eventQueueDepth; i++ {
		d.enqueue(Event{Kind: EventPeerLost})
	}
	if got := testutil.ToFloat64(d.Metrics.EventsDropped); got != 0 {
		t.Fatalf("expected no drops while the queue still has room, got %v", got)
	}

	d.enqueue(Event{Kind: EventPeerLost})

	if got := testutil.ToFloat64(d.Metrics.EventsDropped); got != 1 {
		t.Fatalf("expected the event past capacity to be dropped and counted, got %v", got)
	}
}

func TestRunExitsOnShutdown(t *testing.T) {
	d, core, _, _, _ := newTestDevice()
	d.WLAN = nil // avoid spawning a wlanReadLoop against the fake (its Recv blocks on ctx)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	d.Shutdown()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected a clean shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after Shutdown")
	}
	if core.starts != 1 {
		t.Fatalf("expected OnStart called once, got %d", core.starts)
	}
}

func TestRunExitsOnContextCancellation(t *testing.T) {
	d, _, _, _, _ := newTestDevice()
	d.WLAN = nil

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected Run to return ctx.Err() on cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}
