package iface

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/pentaring/meshcore/internal/ipaddr"
)

// SiblingsUDPPort is the fixed port the SPI ring communicates on.
const SiblingsUDPPort = 39999

// spiTransport is a loopback-UDP implementation of SPI: each slot listens
// on 127.0.0.{slot}:39999 and sends to its ring successor,
// 127.0.0.{(slot%5)+1}:39999 — speaking directly to a socket rather than
// the kernel route table, since the SPI ring has no kernel surface to
// touch at all (client/doublezerod's Netlinker is the kernel analog for a
// real NIC).
type spiTransport struct {
	slot int
	conn *net.UDPConn
	next *net.UDPAddr
}

// NewSPI binds a loopback UDP socket for ring slot (1..5) and resolves its
// successor's address.
func NewSPI(slot int) (SPI, error) {
	laddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("127.0.0.%d:%d", slot, SiblingsUDPPort))
	if err != nil {
		return nil, fmt.Errorf("iface: resolve spi listen addr: %w", err)
	}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("iface: listen spi: %w", err)
	}

	nextSlot := (slot % 5) + 1
	next, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("127.0.0.%d:%d", nextSlot, SiblingsUDPPort))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("iface: resolve spi next-hop addr: %w", err)
	}

	return &spiTransport{slot: slot, conn: conn, next: next}, nil
}

func (s *spiTransport) IP() ipaddr.Addr {
	return ipaddr.MustParse(fmt.Sprintf("127.0.0.%d", s.slot))
}

// Send forwards frame to the ring's next hop, unchanged.
func (s *spiTransport) Send(frame []byte) error {
	_, err := s.conn.WriteToUDP(frame, s.next)
	return err
}

// Recv blocks for the next ring frame addressed to this slot, or returns
// ctx.Err() if ctx is cancelled first.
func (s *spiTransport) Recv(ctx context.Context) ([]byte, error) {
	type result struct {
		buf []byte
		err error
	}
	out := make(chan result, 1)
	go func() {
		buf := make([]byte, 65535)
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			out <- result{nil, err}
			return
		}
		out <- result{buf[:n], nil}
	}()

	select {
	case <-ctx.Done():
		s.conn.SetReadDeadline(time.Now())
		return nil, ctx.Err()
	case r := <-out:
		return r.buf, r.err
	}
}

func (s *spiTransport) Close() error { return s.conn.Close() }
