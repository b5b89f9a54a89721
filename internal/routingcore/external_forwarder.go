package routingcore

import (
	"log/slog"
	"strings"

	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
	"github.com/pentaring/meshcore/internal/netstate"
)

// externalForwarder handles peer-plane (WLAN) messages and locally
// synthesized peer-connect/lost events for a forwarder, grounded on
// utils/routing/external_forwarder.py's ExternalFordwarder.
type externalForwarder struct {
	ntw *netstate.Network
	out Output
}

func newExternalForwarder(ntw *netstate.Network, out Output) *externalForwarder {
	return &externalForwarder{ntw: ntw, out: out}
}

func (f *externalForwarder) onPeerConnected(network, mask ipaddr.Addr) {
	f.ntw.LocalState = netstate.Connected

	f.out.SendPeerMessage(meshmsg.NewHandshake(f.ntw.NodeNetwork, f.ntw.NodeNetworkMask, f.ntw.MyNetwork, f.ntw.MyNetworkMask, f.ntw.DTR))

	f.ntw.NodeRoutingTable.AddRoute(network, mask.PrefixLen(), f.ntw.Orientation.String(), false)
	f.out.BroadcastSibling(meshmsg.NewUpdateNodeTable(f.ntw.NodeRoutingTable))
}

func (f *externalForwarder) onPeerHandshake(msg meshmsg.Peer) {
	extNetwork := ipaddr.Addr(msg.ExtNetwork)
	extMask := ipaddr.Addr(msg.ExtMask)
	provNetwork := ipaddr.Addr(msg.ProvNetwork)
	provMask := ipaddr.Addr(msg.ProvMask)

	slog.Info("routingcore: handshake received", "ext_network", extNetwork, "ext_mask", extMask)

	switch {
	case f.ntw.GlobalState == netstate.WithoutNetwork && f.ntw.LocalState == netstate.Connected:
		f.ntw.IsLocalRoot = true
		blocks, newMask := nodeSubnets(provNetwork, provMask)
		newNetwork := blocks[f.ntw.Orientation.Slot()]

		f.ntw.NodeNetwork = provNetwork
		f.ntw.NodeNetworkMask = provMask
		f.ntw.MyNetwork = newNetwork
		f.ntw.MyNetworkMask = newMask

		f.out.AddRoute(f.ntw.NodeNetwork, f.ntw.NodeNetworkMask, "spi")
		f.out.AddRoute(extNetwork, extMask, "wlan")

		f.out.BroadcastSibling(meshmsg.NewProvision(f.ntw.Orientation.Slot(), provNetwork, provMask))
		slog.Info("routingcore: node has been provisioned, notifying siblings")
		f.ntw.GlobalState = netstate.WithNetwork

	case extNetwork != 0 && extMask != 0:
		slog.Info("routingcore: new wlan route found", "network", ipaddr.CIDR(extNetwork, extMask.PrefixLen()))
		f.out.AddRoute(extNetwork, extMask, "wlan")
	}

	f.onUpdateDTR(msg.DTR)
}

func (f *externalForwarder) onUpdateDTR(peerDTR uint32) {
	if peerDTR == 0 {
		return // peer is not connected to the network yet
	}
	dtr := f.ntw.DTR
	if dtr == 0 || peerDTR+1 < dtr {
		f.ntw.DTR = peerDTR + 1
		f.out.BroadcastSibling(meshmsg.NewSiblingDTRUpdate(f.ntw.DTR))
		f.out.SwitchDefaultGateway("wlan")
		f.ntw.IsLocalRoot = true
	}
}

func (f *externalForwarder) onPeerGtwReq(msg meshmsg.Peer) {
	hagIPs := msg.HagIPs
	myOrientation := f.ntw.Orientation.String()

	for _, token := range strings.Fields(hagIPs) {
		network, prefixLen, err := ipaddr.ParseCIDR(token)
		if err != nil {
			slog.Error("routingcore: malformed hag_ips entry", "token", token, "err", err)
			continue
		}
		slog.Warn("routingcore: adding hag route to node table", "network", ipaddr.CIDR(network, prefixLen), "iface", myOrientation)
		f.ntw.NodeRoutingTable.AddRoute(network, prefixLen, myOrientation, false)
	}

	if hagIPs != "" {
		f.out.BroadcastSibling(meshmsg.NewUpdateNodeTable(f.ntw.NodeRoutingTable))
	}

	sendGtwReq := meshmsg.NewSendNewGtwRequest(hagIPs)
	if f.ntw.DTR == 1 {
		f.out.BroadcastSibling(sendGtwReq) // I am root.
		return
	}
	if f.ntw.GlobalState == netstate.OnGtwReq {
		return
	}
	f.ntw.GlobalState = netstate.OnGtwReq
	f.ntw.DTR = 0
	f.out.BroadcastSibling(sendGtwReq)
}

func (f *externalForwarder) onNewGtwRes(msg meshmsg.Peer) {
	extNetwork := ipaddr.Addr(msg.ExtNetwork)
	extMask := ipaddr.Addr(msg.ExtMask)
	peerDTR := msg.DTR

	if f.ntw.DTR != 0 && f.ntw.DTR <= peerDTR {
		slog.Info("routingcore: rejecting gateway response, worse DTR", "peer_dtr", peerDTR)
		return
	}

	f.ntw.GlobalState = netstate.WithNetwork
	f.out.SwitchDefaultGateway("wlan")
	f.ntw.IsLocalRoot = true
	f.ntw.DTR = peerDTR + 1

	f.out.BroadcastSibling(meshmsg.NewNewGtwWinner(extNetwork, extMask, peerDTR))
}

func (f *externalForwarder) onPeerLost(network, mask ipaddr.Addr) {
	slog.Info("routingcore: peer lost", "network", ipaddr.CIDR(network, mask.PrefixLen()), "iface", "wlan-"+f.ntw.Orientation.String())

	f.ntw.HasMyWLANIP = false
	f.ntw.LocalState = netstate.NotConnected
	f.out.SwitchDefaultGateway("spi")

	lost := f.out.RemoveRoutesForInterface("wlan")
	f.out.BroadcastSibling(meshmsg.NewRouteLost(lost))

	if f.ntw.IsLocalRoot {
		f.ntw.IsLocalRoot = false
		f.ntw.DTR = 0
		f.ntw.GlobalState = netstate.OnGtwReq
		slog.Info("routingcore: connection to root lost")
		f.out.BroadcastSibling(meshmsg.NewSendNewGtwRequest(""))
	}
}

// processMessage dispatches a received peer message.
func (f *externalForwarder) processMessage(msg meshmsg.Peer) {
	switch msg.Kind {
	case meshmsg.PeerHandshake:
		f.onPeerHandshake(msg)
	case meshmsg.PeerDTRUpdate:
		f.onUpdateDTR(msg.DTR)
	case meshmsg.PeerNewGtwRequest:
		f.onPeerGtwReq(msg)
	case meshmsg.PeerNewGtwResponse:
		f.onNewGtwRes(msg)
	default:
		slog.Error("routingcore: unknown peer message", "kind", msg.Kind)
	}
}
