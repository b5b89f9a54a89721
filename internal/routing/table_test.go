package routing

import (
	"testing"

	"github.com/pentaring/meshcore/internal/ipaddr"
)

func TestNewTableInvariants(t *testing.T) {
	tbl := New("c")
	routes := tbl.Routes()
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	if !routes[0].Static || routes[0].PrefixLen != 0 {
		t.Fatalf("default gateway must be static with prefix 0, got %+v", routes[0])
	}
}

func TestAddRouteSortedDescendingAndDefaultLast(t *testing.T) {
	tbl := New("c")
	tbl.AddRoute(ipaddr.MustParse("10.0.0.0"), 8, "spi", false)
	tbl.AddRoute(ipaddr.MustParse("10.32.0.0"), 11, "n", false)

	routes := tbl.Routes()
	if len(routes) != 3 {
		t.Fatalf("expected 3 routes, got %d", len(routes))
	}
	for i := 1; i < len(routes); i++ {
		if routes[i-1].PrefixLen < routes[i].PrefixLen {
			t.Fatalf("routes not sorted descending by prefix len: %+v", routes)
		}
	}
	if routes[len(routes)-1].PrefixLen != 0 || !routes[len(routes)-1].Static {
		t.Fatalf("default gateway must remain last and static: %+v", routes[len(routes)-1])
	}
}

func TestAddRouteAppendsBeforeDefaultWhenShortestPrefix(t *testing.T) {
	tbl := New("c")
	tbl.AddRoute(ipaddr.MustParse("10.32.0.0"), 11, "n", false)
	// Inserting a shorter-or-equal-than-everything-but-default prefix should
	// land right before the default gateway (documented open question).
	tbl.AddRoute(ipaddr.MustParse("0.0.0.0"), 1, "w", false)

	routes := tbl.Routes()
	if routes[len(routes)-2].Interface != "w" {
		t.Fatalf("expected shortest non-default route just before default gateway, got %+v", routes)
	}
	if routes[len(routes)-1].PrefixLen != 0 {
		t.Fatalf("default gateway displaced: %+v", routes)
	}
}

func TestRouteLongestPrefixMatch(t *testing.T) {
	tbl := New("c")
	tbl.AddRoute(ipaddr.MustParse("10.0.0.0"), 8, "spi", false)
	tbl.AddRoute(ipaddr.MustParse("10.32.0.0"), 11, "n", false)

	if got := tbl.Route(ipaddr.MustParse("10.32.0.1")); got.Interface != "n" || got.PrefixLen != 11 {
		t.Fatalf("expected /11 hop via n, got %+v", got)
	}
	if got := tbl.Route(ipaddr.MustParse("10.64.0.1")); got.Interface != "spi" || got.PrefixLen != 8 {
		t.Fatalf("expected /8 hop via spi, got %+v", got)
	}
	if got := tbl.Route(ipaddr.MustParse("192.168.1.1")); got.PrefixLen != 0 {
		t.Fatalf("expected default gateway for unrelated address, got %+v", got)
	}
}

func TestSwitchDefaultGatewayAndRemoveRoutesForInterface(t *testing.T) {
	tbl := New("spi")
	tbl.AddRoute(ipaddr.MustParse("10.0.0.0"), 8, "wlan", false)
	tbl.AddRoute(ipaddr.MustParse("127.0.0.0"), 24, "spi", true)

	tbl.SwitchDefaultGateway("n")
	if dg := tbl.DefaultGateway(); dg.Interface != "n" {
		t.Fatalf("expected default gateway switched to n, got %+v", dg)
	}

	lost := tbl.RemoveRoutesForInterface("wlan")
	if len(lost) != 1 || lost[0].Interface != "wlan" {
		t.Fatalf("expected to remove the one non-static wlan route, got %+v", lost)
	}
	for _, r := range tbl.Routes() {
		if r.Interface == "wlan" {
			t.Fatalf("wlan route should have been removed: %+v", tbl.Routes())
		}
	}
	// Static route through spi survives.
	foundStatic := false
	for _, r := range tbl.Routes() {
		if r.Interface == "spi" && r.Static {
			foundStatic = true
		}
	}
	if !foundStatic {
		t.Fatalf("expected static spi route to survive: %+v", tbl.Routes())
	}
}

func TestResetReinstallsOnlyInitialGateway(t *testing.T) {
	tbl := New("spi")
	tbl.AddRoute(ipaddr.MustParse("10.0.0.0"), 8, "wlan", false)
	tbl.Reset()
	routes := tbl.Routes()
	if len(routes) != 1 || routes[0].Interface != "spi" || routes[0].PrefixLen != 0 {
		t.Fatalf("expected reset table to hold only the initial gateway, got %+v", routes)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	tbl := New("c")
	tbl.AddRoute(ipaddr.MustParse("10.0.0.0"), 8, "spi", false)
	tbl.AddRoute(ipaddr.MustParse("10.32.0.0"), 11, "n", false)

	rows := tbl.Serialize()
	restored, err := Deserialize(rows)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if restored.Serialize()[0] != rows[0] {
		t.Fatalf("round trip mismatch: %+v vs %+v", restored.Serialize(), rows)
	}
	if len(restored.Routes()) != len(tbl.Routes()) {
		t.Fatalf("round trip changed route count")
	}
}

func TestHopMatchesInvariant(t *testing.T) {
	h := Hop{Network: ipaddr.MustParse("10.32.0.0"), PrefixLen: 11, Interface: "n"}
	if h.Network != h.Network.Mask(ipaddr.MaskFromPrefixLen(h.PrefixLen)) {
		t.Fatalf("hop network not pre-masked to its own prefix length")
	}
}
