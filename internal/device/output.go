package device

import (
	"encoding/json"
	"log/slog"

	"github.com/pentaring/meshcore/internal/iface"
	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
	"github.com/pentaring/meshcore/internal/routing"
)

// Device implements both routingcore.Output and syncring.Output: every
// side effect a routing core or sync core produces funnels through these
// methods, which is also the only place wire encoding happens.

// SendPeerMessage encodes msg as an ICMP type-2 frame and sends it over
// the WLAN transport.
func (d *Device) SendPeerMessage(msg meshmsg.Peer) {
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Error("device: marshal peer message", "orientation", d.Orientation, "err", err)
		return
	}
	frame, err := iface.EncodePeerFrame(body)
	if err != nil {
		slog.Error("device: encode peer frame", "orientation", d.Orientation, "err", err)
		return
	}
	if d.WLAN == nil {
		return
	}
	if err := d.WLAN.Send(frame); err != nil {
		slog.Error("device: send peer message", "orientation", d.Orientation, "kind", msg.Kind, "err", err)
		return
	}
	d.Metrics.PeerMessagesSent.Inc()
}

// BroadcastSibling frames msg as [orientation-byte][json] and sends it to
// the SPI ring's next hop only: the originating node does not redeliver
// the message to itself.
func (d *Device) BroadcastSibling(msg meshmsg.Sibling) {
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Error("device: marshal sibling message", "orientation", d.Orientation, "err", err)
		return
	}
	frame := append([]byte{byte(d.Orientation)}, body...)
	if err := d.SPI.Send(frame); err != nil {
		slog.Error("device: broadcast sibling message", "orientation", d.Orientation, "kind", msg.Kind, "err", err)
		return
	}
	d.Metrics.SiblingBroadcasts.Inc()
}

// SwitchDefaultGateway mutates the legacy table's default route in place.
func (d *Device) SwitchDefaultGateway(iface string) {
	d.LegacyTable.SwitchDefaultGateway(iface)
	d.Event("switch_default_gateway", map[string]any{"interface": iface})
}

// AddRoute inserts a non-static route into the legacy table.
func (d *Device) AddRoute(network, mask ipaddr.Addr, iface string) {
	d.LegacyTable.AddRoute(network, mask.PrefixLen(), iface, false)
}

// RemoveRoute deletes a route from the legacy table by (network, mask).
func (d *Device) RemoveRoute(network, mask ipaddr.Addr) {
	d.LegacyTable.RemoveRoute(network, mask.PrefixLen())
}

// RemoveRoutesForInterface deletes every non-static legacy route through
// iface and returns what was lost, so the caller (a routing core reacting
// to a lost peer) can announce ROUTE_LOST for them.
func (d *Device) RemoveRoutesForInterface(iface string) []routing.Hop {
	return d.LegacyTable.RemoveRoutesForInterface(iface)
}

// EnableAPMode switches the WLAN transport into access-point mode serving
// network/mask, the provisioning step of HomeCore and of the forwarders.
func (d *Device) EnableAPMode(network, mask ipaddr.Addr) {
	if d.WLAN == nil {
		return
	}
	if err := d.WLAN.SetAPMode(network, mask); err != nil {
		slog.Error("device: enable ap mode", "orientation", d.Orientation, "err", err)
		return
	}
	d.Event("ap_mode_enabled", map[string]any{"network": network, "mask": mask})
}

// Event forwards to the device's Observer.
func (d *Device) Event(name string, fields map[string]any) {
	d.Observer.Event(name, fields)
}

// OnCriticalSection is syncring.Output's hook: once a sync core grants this
// device the token, it runs the routing core's queued reactions.
func (d *Device) OnCriticalSection() {
	d.Metrics.CriticalSectionsEntered.Inc()
	d.Observer.EnterCriticalSection()
	d.RoutingCore.OnCriticalSection()
	d.Observer.ExitCriticalSection()
}
