package iface

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/pentaring/meshcore/internal/ipaddr"
)

// peerICMPType is the wire-level ICMP type peer messages travel under:
// ICMP type 2 frames. This is a protocol-local convention, not a standard
// ICMP message kind; it only needs to round-trip between two meshcore
// peers.
const peerICMPType = 2

// EncodePeerFrame wraps body in an ICMP type-2 message, ready to hand to a
// WLAN transport's Send.
func EncodePeerFrame(body []byte) ([]byte, error) {
	msg := icmp.Message{
		Type: ipv4.ICMPType(peerICMPType),
		Code: 0,
		Body: &icmp.RawBody{Data: body},
	}
	return msg.Marshal(nil)
}

// DecodePeerFrame extracts the body from an ICMP type-2 frame, returning
// ok=false for any other ICMP type so callers can ignore unrelated traffic
// on the same socket.
func DecodePeerFrame(frame []byte) (body []byte, ok bool, err error) {
	msg, err := icmp.ParseMessage(ipv4.ICMPType(peerICMPType).Protocol(), frame)
	if err != nil {
		return nil, false, fmt.Errorf("iface: parse peer frame: %w", err)
	}
	if msg.Type != ipv4.ICMPType(peerICMPType) {
		return nil, false, nil
	}
	raw, ok := msg.Body.(*icmp.RawBody)
	if !ok {
		return nil, false, fmt.Errorf("iface: unexpected peer frame body type %T", msg.Body)
	}
	return raw.Data, true, nil
}

// peerWLAN is a WLAN implementation that speaks real ICMP type-2 frames
// over a raw IPv4 socket, for the native (non-simulated) wiring, using
// golang.org/x/net/icmp + golang.org/x/net/ipv4.
type peerWLAN struct {
	conn     *icmp.PacketConn
	localIP  ipaddr.Addr
	peerAddr net.Addr
	peerIP   ipaddr.Addr
	hasPeer  bool
}

// NewPeerWLAN opens a raw ICMP socket bound to localIP.
func NewPeerWLAN(localIP ipaddr.Addr) (WLAN, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", localIP.String())
	if err != nil {
		return nil, fmt.Errorf("iface: listen icmp: %w", err)
	}
	return &peerWLAN{conn: conn, localIP: localIP}, nil
}

// Connect is a no-op for the raw-socket transport: link establishment is
// handled by the station/AP layer this type stands in for; meshcore's own
// peer handshake is what actually negotiates a peer.
func (p *peerWLAN) Connect(ctx context.Context) error { return nil }

func (p *peerWLAN) Send(frame []byte) error {
	if !p.hasPeer {
		return fmt.Errorf("iface: no peer address set")
	}
	_, err := p.conn.WriteTo(frame, p.peerAddr)
	return err
}

func (p *peerWLAN) Recv(ctx context.Context) ([]byte, error) {
	type result struct {
		buf  []byte
		addr net.Addr
		err  error
	}
	out := make(chan result, 1)
	go func() {
		buf := make([]byte, 65535)
		n, addr, err := p.conn.ReadFrom(buf)
		out <- result{buf[:n], addr, err}
	}()

	select {
	case <-ctx.Done():
		p.conn.SetReadDeadline(time.Now())
		return nil, ctx.Err()
	case r := <-out:
		if r.err != nil {
			return nil, r.err
		}
		p.peerAddr = r.addr
		p.hasPeer = true
		return r.buf, nil
	}
}

func (p *peerWLAN) IP() (ipaddr.Addr, bool) {
	if !p.hasPeer {
		return 0, false
	}
	return p.localIP, true
}

// SetAPMode has no effect on a raw ICMP socket; AP/station mode is a
// link-layer concern owned by the NIC driver, out of scope here.
func (p *peerWLAN) SetAPMode(network, mask ipaddr.Addr) error { return nil }

func (p *peerWLAN) Close() error { return p.conn.Close() }
