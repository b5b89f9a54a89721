package routingcore

import (
	"log/slog"

	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
	"github.com/pentaring/meshcore/internal/netstate"
)

// rootProvisionNetwork is the well-known network the root broadcasts in its
// initial PROVISION, 10.0.0.0. A forwarder provisioned directly off this
// network is one hop from the root, so it starts at DTR 1 without waiting
// for a DTR_UPDATE round trip, grounded on internal_forwarder.py's
// `if network == 167772160: self.ntw.dtr = 1`.
var rootProvisionNetwork = ipaddr.MustParse("10.0.0.0")

// internalForwarder handles sibling-plane (SPI ring) messages for a
// forwarder, grounded on utils/routing/internal_forwarder.py's
// IternalFordwarder.
type internalForwarder struct {
	ntw *netstate.Network
	out Output
}

func newInternalForwarder(ntw *netstate.Network, out Output) *internalForwarder {
	return &internalForwarder{ntw: ntw, out: out}
}

func (f *internalForwarder) onProvision(msg meshmsg.Sibling) {
	if f.ntw.GlobalState == netstate.WithNetwork {
		slog.Info("routingcore: already provisioned, skipping PROVISION")
		return
	}

	network := ipaddr.Addr(msg.Network)
	mask := ipaddr.Addr(msg.Mask)
	slog.Info("routingcore: provisioned", "network", ipaddr.CIDR(network, mask.PrefixLen()), "provider", msg.ProviderID)

	if network == rootProvisionNetwork {
		f.ntw.DTR = 1
	}

	blocks, newMask := nodeSubnets(network, mask)
	mySlot := f.ntw.Orientation.Slot()
	newNetwork := blocks[mySlot]

	f.ntw.NodeNetwork = network
	f.ntw.NodeNetworkMask = mask
	f.ntw.MyNetwork = newNetwork
	f.ntw.MyNetworkMask = newMask

	for slot, blockNetwork := range blocks {
		switch {
		case slot == mySlot:
			f.out.AddRoute(newNetwork, newMask, "wlan")
		case slot == msg.ProviderID:
			continue
		default:
			f.out.AddRoute(blockNetwork, newMask, "spi")
		}
	}
	f.out.EnableAPMode(f.ntw.MyNetwork, f.ntw.MyNetworkMask)
	f.ntw.GlobalState = netstate.WithNetwork
}

func (f *internalForwarder) onRouteLost(msg meshmsg.Sibling) {
	for _, r := range msg.Routes {
		mask := ipaddr.Addr(r.Mask)
		slog.Info("routingcore: route lost", "network", ipaddr.CIDR(ipaddr.Addr(r.Network), mask.PrefixLen()))
		f.out.RemoveRoute(ipaddr.Addr(r.Network), mask)
	}
}

func (f *internalForwarder) onSendGtwReq(msg meshmsg.Sibling) {
	if f.ntw.DTR == 1 {
		return // I am root, nothing to request.
	}
	if f.ntw.GlobalState == netstate.OnGtwReq {
		return
	}

	f.ntw.GlobalState = netstate.OnGtwReq
	f.ntw.DTR = 0

	mine := ipaddr.CIDR(f.ntw.NodeNetwork, f.ntw.NodeNetworkMask.PrefixLen())
	hagIPs := mine
	if msg.HagIPs != "" {
		hagIPs = msg.HagIPs + " " + mine
	}
	f.out.SendPeerMessage(meshmsg.NewGtwRequest(hagIPs))
}

func (f *internalForwarder) onNewGtwWinner(msg meshmsg.Sibling) {
	if f.ntw.DTR == 1 {
		f.out.SendPeerMessage(meshmsg.NewGtwResponse(f.ntw.NodeNetwork, f.ntw.NodeNetworkMask, f.ntw.DTR))
		return
	}

	f.ntw.GlobalState = netstate.WithNetwork
	f.out.SwitchDefaultGateway("spi")
	f.ntw.IsLocalRoot = false
	f.ntw.DTR = msg.DTR + 1

	f.out.SendPeerMessage(meshmsg.NewGtwResponse(f.ntw.NodeNetwork, f.ntw.NodeNetworkMask, f.ntw.DTR))
}

func (f *internalForwarder) onSiblingDTRUpdate(msg meshmsg.Sibling) {
	peerDTR := msg.DTR
	switch {
	case peerDTR == 0:
		slog.Error("routingcore: impossible DTR_UPDATE with dtr=0")
	case f.ntw.DTR == 0 || peerDTR < f.ntw.DTR:
		f.ntw.DTR = peerDTR
		f.out.SwitchDefaultGateway("spi")
		f.ntw.IsLocalRoot = false
		if f.ntw.LocalState == netstate.Connected {
			f.out.SendPeerMessage(meshmsg.NewPeerDTRUpdate(f.ntw.DTR))
		}
	default:
		slog.Error("routingcore: worse DTR received", "dtr", peerDTR)
	}
}

func (f *internalForwarder) onNodeTableUpdate(msg meshmsg.Sibling) {
	table, err := msg.RoutingTable()
	if err != nil {
		slog.Error("routingcore: malformed UPDATE_NODE_TABLE", "err", err)
		return
	}
	f.ntw.NodeRoutingTable = table
}

// process dispatches a sibling message to the matching handler. Token-ring
// control messages never reach here: the sync core claims them first.
func (f *internalForwarder) process(msg meshmsg.Sibling) {
	switch msg.Kind {
	case meshmsg.SiblingProvision:
		f.onProvision(msg)
	case meshmsg.SiblingRouteLost:
		f.onRouteLost(msg)
	case meshmsg.SiblingDTRUpdate:
		f.onSiblingDTRUpdate(msg)
	case meshmsg.SiblingSendNewGtwRequest:
		f.onSendGtwReq(msg)
	case meshmsg.SiblingNewGtwWinner:
		f.onNewGtwWinner(msg)
	case meshmsg.SiblingUpdateNodeTable:
		f.onNodeTableUpdate(msg)
	default:
		slog.Error("routingcore: unknown sibling message", "kind", msg.Kind)
	}
}
