package routingcore

import (
	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
	"github.com/pentaring/meshcore/internal/routing"
)

type routeCall struct {
	network, mask ipaddr.Addr
	iface         string
}

// fakeOutput is a recording double for the Output interface shared by every
// routingcore test.
type fakeOutput struct {
	peerMessages  []meshmsg.Peer
	siblingMsgs   []meshmsg.Sibling
	defaultGWs    []string
	addedRoutes   []routeCall
	removedRoutes []routeCall
	apEnabled     []routeCall
	events        []string
}

func (f *fakeOutput) SendPeerMessage(msg meshmsg.Peer)    { f.peerMessages = append(f.peerMessages, msg) }
func (f *fakeOutput) BroadcastSibling(msg meshmsg.Sibling) { f.siblingMsgs = append(f.siblingMsgs, msg) }
func (f *fakeOutput) SwitchDefaultGateway(iface string)   { f.defaultGWs = append(f.defaultGWs, iface) }

func (f *fakeOutput) AddRoute(network, mask ipaddr.Addr, iface string) {
	f.addedRoutes = append(f.addedRoutes, routeCall{network, mask, iface})
}

func (f *fakeOutput) RemoveRoute(network, mask ipaddr.Addr) {
	f.removedRoutes = append(f.removedRoutes, routeCall{network: network, mask: mask})
}

func (f *fakeOutput) RemoveRoutesForInterface(iface string) []routing.Hop { return nil }

func (f *fakeOutput) EnableAPMode(network, mask ipaddr.Addr) {
	f.apEnabled = append(f.apEnabled, routeCall{network: network, mask: mask})
}

func (f *fakeOutput) Event(name string, fields map[string]any) {
	f.events = append(f.events, name)
}
