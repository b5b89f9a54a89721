package ipaddr

import "testing"

func TestParseAndString(t *testing.T) {
	a, err := Parse("10.32.0.1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := a.String(); got != "10.32.0.1" {
		t.Fatalf("String() = %q, want 10.32.0.1", got)
	}
}

func TestPrefixLenRoundTrip(t *testing.T) {
	for _, prefixLen := range []int{0, 1, 8, 11, 24, 32} {
		mask := MaskFromPrefixLen(prefixLen)
		if got := mask.PrefixLen(); got != prefixLen {
			t.Fatalf("prefixLen=%d -> mask=%v -> PrefixLen()=%d", prefixLen, mask, got)
		}
	}
}

func TestMatches(t *testing.T) {
	net10 := MustParse("10.0.0.0")
	addr := MustParse("10.32.0.1")
	if !Matches(addr, net10, 8) {
		t.Fatal("expected 10.32.0.1 to match 10.0.0.0/8")
	}
	net1032 := MustParse("10.32.0.0")
	if !Matches(addr, net1032, 11) {
		t.Fatal("expected 10.32.0.1 to match 10.32.0.0/11")
	}
	if Matches(addr, MustParse("192.168.0.0"), 16) {
		t.Fatal("did not expect match against unrelated network")
	}
}

func TestIsLoopback(t *testing.T) {
	if !IsLoopback(MustParse("127.0.0.2")) {
		t.Fatal("expected 127.0.0.2 to be loopback")
	}
	if IsLoopback(MustParse("10.0.0.2")) {
		t.Fatal("did not expect 10.0.0.2 to be loopback")
	}
}

func TestParseCIDR(t *testing.T) {
	net, prefixLen, err := ParseCIDR("10.32.0.0/11")
	if err != nil {
		t.Fatalf("ParseCIDR: %v", err)
	}
	if net.String() != "10.32.0.0" || prefixLen != 11 {
		t.Fatalf("got (%s, %d)", net, prefixLen)
	}
}
