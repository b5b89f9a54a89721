package device

import (
	"encoding/binary"
	"encoding/json"
	"log/slog"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/pentaring/meshcore/internal/iface"
	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
)

// udpHeaderLen is the fixed length of a UDP header (no options).
const udpHeaderLen = 8

// classify verifies the IPv4 header checksum, then decides between "to
// self" (peer), "to self" (sibling ring), and "forward".
func (d *Device) classify(packet []byte, src sourceIface) {
	if !verifyIPv4Checksum(packet) {
		d.Metrics.PacketsDropped.WithLabelValues("bad_checksum").Inc()
		return
	}

	var ip4 layers.IPv4
	if err := ip4.DecodeFromBytes(packet, gopacket.NilDecodeFeedback); err != nil {
		d.Metrics.PacketsDropped.WithLabelValues("malformed").Inc()
		return
	}
	dst := ipaddr.Addr(binary.BigEndian.Uint32(ip4.DstIP.To4()))
	srcAddr := ipaddr.Addr(binary.BigEndian.Uint32(ip4.SrcIP.To4()))

	if d.WLAN != nil {
		if wlanIP, ok := d.WLAN.IP(); ok && dst == wlanIP && ip4.Protocol == layers.IPProtocolICMPv4 {
			d.handlePeerPacket(ip4.Payload)
			return
		}
	}
	if dst == d.SPI.IP() && ip4.Protocol == layers.IPProtocolUDP && udpDstPort(ip4.Payload) == iface.SiblingsUDPPort {
		d.handleSiblingFrame(ip4.Payload[udpHeaderLen:])
		return
	}
	d.forward(packet, &ip4, srcAddr, dst, src)
}

func udpDstPort(payload []byte) int {
	if len(payload) < udpHeaderLen {
		return -1
	}
	return int(binary.BigEndian.Uint16(payload[2:4]))
}

// handlePeerPacket decodes an ICMP type-2 body and hands it to the routing
// core.
func (d *Device) handlePeerPacket(icmpFrame []byte) {
	body, ok, err := iface.DecodePeerFrame(icmpFrame)
	if err != nil || !ok {
		if err != nil {
			slog.Error("device: decode peer frame", "orientation", d.Orientation, "err", err)
		}
		d.Metrics.PacketsDropped.WithLabelValues("not_peer_message").Inc()
		return
	}
	var msg meshmsg.Peer
	if err := json.Unmarshal(body, &msg); err != nil {
		d.Metrics.PacketsDropped.WithLabelValues("malformed_peer_message").Inc()
		return
	}
	d.Observer.Event("peer_message_received", map[string]any{"kind": msg.Kind})
	d.RoutingCore.OnPeerMessage(msg)
	d.requestCriticalSection()
}

// handleSiblingFrame drops on ring termination, else forwards unchanged
// then delivers locally (sync core first, routing core only if unclaimed).
func (d *Device) handleSiblingFrame(frame []byte) {
	if len(frame) == 0 {
		return
	}
	if frame[0] == byte(d.Orientation) {
		return
	}
	if err := d.SPI.Send(frame); err != nil {
		slog.Error("device: forward sibling frame", "orientation", d.Orientation, "err", err)
	}

	var msg meshmsg.Sibling
	if err := json.Unmarshal(frame[1:], &msg); err != nil {
		d.Metrics.PacketsDropped.WithLabelValues("malformed_sibling_message").Inc()
		return
	}
	d.Observer.Event("sibling_message_received", map[string]any{"kind": msg.Kind})
	if d.SyncCore.OnSiblingMessage(msg) {
		return
	}
	d.RoutingCore.OnSiblingMessage(msg)
	d.requestCriticalSection()
}

// forward performs TTL decrement, checksum nulling, and routing-core
// consultation with a legacy-table fallback.
func (d *Device) forward(packet []byte, ip4 *layers.IPv4, srcAddr, dst ipaddr.Addr, src sourceIface) {
	d.RoutingCore.OnForward(srcAddr, dst)

	ttl := packet[8]
	if ttl <= 1 {
		slog.Info("[FORWARD] dropping, TTL=0", "orientation", d.Orientation, "dst", dst)
		d.Metrics.PacketsDropped.WithLabelValues("ttl_expired").Inc()
		return
	}
	packet[8] = ttl - 1
	packet[10] = 0
	packet[11] = 0

	if o, ok := d.RoutingCore.DoForward(dst); ok {
		d.sendForwardedPacket(packet, o, srcAddr)
		return
	}

	hop := d.LegacyTable.Route(dst)
	if hop.PrefixLen == 0 && hop.Interface == "" {
		slog.Info("[FORWARD] no route", "orientation", d.Orientation, "dst", dst)
		d.Metrics.PacketsDropped.WithLabelValues("no_route").Inc()
		return
	}
	d.sendForwardedPacket(packet, hop.Interface, srcAddr)
}

// sendForwardedPacket sends packet out over WLAN when the destination
// orientation o matches this device's own orientation and the source isn't
// loopback; otherwise it goes out the SPI ring.
func (d *Device) sendForwardedPacket(packet []byte, o string, srcAddr ipaddr.Addr) {
	if o == d.Orientation.String() && !ipaddr.IsLoopback(srcAddr) {
		if d.WLAN == nil {
			return
		}
		if err := d.WLAN.Send(packet); err != nil {
			slog.Error("device: forward over wlan", "orientation", d.Orientation, "err", err)
			return
		}
	} else {
		if err := d.SPI.Send(packet); err != nil {
			slog.Error("device: forward over spi", "orientation", d.Orientation, "err", err)
			return
		}
	}
	d.Metrics.PacketsForwarded.Inc()
}

// verifyIPv4Checksum recomputes the IPv4 header's internet checksum (RFC
// 791 §3.1) and compares it against the header's own checksum field.
// gopacket decodes fields but does not verify checksums for us.
func verifyIPv4Checksum(packet []byte) bool {
	if len(packet) < 20 {
		return false
	}
	ihl := int(packet[0]&0x0F) * 4
	if ihl < 20 || len(packet) < ihl {
		return false
	}
	return internetChecksum(packet[:ihl]) == 0
}

// internetChecksum computes the ones'-complement sum of 16-bit words over
// data, folding carries back in, per RFC 791 §3.1. A correct checksum
// field yields a result of 0 when included in the sum.
func internetChecksum(data []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(data); i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if len(data)%2 == 1 {
		sum += uint32(data[len(data)-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}
