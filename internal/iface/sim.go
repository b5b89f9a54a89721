package iface

import (
	"context"
	"time"

	"github.com/pentaring/meshcore/internal/ipaddr"
)

// PysimLink is the thin boundary to the simulation controller's own
// transport for one sub-device's WLAN link: pysim owns connect timing,
// framing across the simulated radio, and peer discovery; this module only
// needs to send/receive already-framed peer messages. Implementations live
// in internal/simclient.
type PysimLink interface {
	Connect(ctx context.Context) (peerWLANIP ipaddr.Addr, err error)
	Send(frame []byte) error
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// simWLAN adapts a PysimLink to the WLAN interface, reproducing the
// original's `connect_delay` pacing (original_source/nodo/src/nodo/
// device_main.py's WirelessStation construction) before handing off to the
// simulated link.
type simWLAN struct {
	link         PysimLink
	connectDelay time.Duration

	ip        ipaddr.Addr
	connected bool
}

// NewSimWLAN builds a WLAN backed by link, waiting connectDelay before
// dialing on Connect.
func NewSimWLAN(link PysimLink, connectDelay time.Duration) WLAN {
	return &simWLAN{link: link, connectDelay: connectDelay}
}

func (s *simWLAN) Connect(ctx context.Context) error {
	if s.connectDelay > 0 {
		select {
		case <-time.After(s.connectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	ip, err := s.link.Connect(ctx)
	if err != nil {
		return err
	}
	s.ip = ip
	s.connected = true
	return nil
}

func (s *simWLAN) Send(frame []byte) error { return s.link.Send(frame) }

func (s *simWLAN) Recv(ctx context.Context) ([]byte, error) { return s.link.Recv(ctx) }

func (s *simWLAN) IP() (ipaddr.Addr, bool) { return s.ip, s.connected }

// SetAPMode is a no-op: pysim observes AP/station role through events this
// module emits, not through a real radio mode switch.
func (s *simWLAN) SetAPMode(network, mask ipaddr.Addr) error { return nil }

func (s *simWLAN) Close() error { return s.link.Close() }
