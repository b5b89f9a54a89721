package routingcore

import (
	"testing"

	"github.com/pentaring/meshcore/internal/ipaddr"
	"github.com/pentaring/meshcore/internal/meshmsg"
)

func TestHomeCoreClaimsFifthBlockOnProvision(t *testing.T) {
	out := &fakeOutput{}
	c := NewHomeCore(out)

	network := ipaddr.MustParse("10.0.0.0")
	mask := ipaddr.MustParse("255.0.0.0")
	c.OnSiblingMessage(meshmsg.NewProvision(1, network, mask))
	c.OnCriticalSection()

	if !c.isProvisioned {
		t.Fatal("expected home to be provisioned")
	}
	if len(out.apEnabled) != 1 {
		t.Fatalf("expected AP mode enabled once, got %d", len(out.apEnabled))
	}

	var wlanRoutes, spiRoutes int
	for _, r := range out.addedRoutes {
		switch r.iface {
		case "wlan":
			wlanRoutes++
		case "spi":
			spiRoutes++
		}
	}
	// Provider is slot 1, home is slot 5: routes for 2,3,4 over spi, one
	// wlan route for home's own block.
	if wlanRoutes != 1 || spiRoutes != 3 {
		t.Fatalf("expected 1 wlan + 3 spi routes, got %d wlan, %d spi", wlanRoutes, spiRoutes)
	}

	var sawTableUpdate bool
	for _, m := range out.siblingMsgs {
		if m.Kind == meshmsg.SiblingUpdateNodeTable {
			sawTableUpdate = true
		}
	}
	if !sawTableUpdate {
		t.Fatal("expected an UPDATE_NODE_TABLE broadcast after provisioning")
	}
}

func TestHomeCoreIgnoresSecondProvision(t *testing.T) {
	out := &fakeOutput{}
	c := NewHomeCore(out)
	network := ipaddr.MustParse("10.0.0.0")
	mask := ipaddr.MustParse("255.0.0.0")

	c.OnSiblingMessage(meshmsg.NewProvision(1, network, mask))
	c.OnCriticalSection()
	first := len(out.addedRoutes)

	c.OnSiblingMessage(meshmsg.NewProvision(2, network, mask))
	c.OnCriticalSection()

	if len(out.addedRoutes) != first {
		t.Fatal("a second PROVISION must not re-add routes")
	}
}
