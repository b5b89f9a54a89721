package value

import "testing"

func TestRenderIPKey(t *testing.T) {
	got := Render("network", uint32(0x0A000001)) // 10.0.0.1
	if got != "10.0.0.1" {
		t.Fatalf("Render(network) = %q, want 10.0.0.1", got)
	}
}

func TestRenderMaskKeyRendersPrefixLen(t *testing.T) {
	got := Render("mask", uint32(0xFFFFFF00)) // /24
	if got != "24" {
		t.Fatalf("Render(mask) = %q, want 24", got)
	}
}

func TestRenderBytesKeyGroupsHex(t *testing.T) {
	// base64 of []byte{0xDE, 0xAD, 0xBE, 0xEF}
	got := Render("message", "3q2+7w==")
	if got != "de ad be ef" {
		t.Fatalf("Render(message) = %q, want \"de ad be ef\"", got)
	}
}

func TestRenderUnknownKeyFallsBackToSprint(t *testing.T) {
	got := Render("dtr", 7)
	if got != "7" {
		t.Fatalf("Render(dtr) = %q, want 7", got)
	}
}

func TestCIDRPairMergesNetworkAndMask(t *testing.T) {
	fields := map[string]any{
		"network": uint32(0x0A000000), // 10.0.0.0
		"mask":    uint32(0xFFFFFF00), // /24
	}
	cidr, ok := CIDRPair(fields, "")
	if !ok {
		t.Fatal("expected a merged CIDR pair")
	}
	if cidr != "10.0.0.0/24" {
		t.Fatalf("CIDRPair = %q, want 10.0.0.0/24", cidr)
	}
}

func TestCIDRPairHonoursPrefix(t *testing.T) {
	fields := map[string]any{
		"ext_network": uint32(0xC0A80000), // 192.168.0.0
		"ext_mask":    uint32(0xFFFF0000), // /16
	}
	cidr, ok := CIDRPair(fields, "ext_")
	if !ok {
		t.Fatal("expected a merged ext_ CIDR pair")
	}
	if cidr != "192.168.0.0/16" {
		t.Fatalf("CIDRPair(ext_) = %q, want 192.168.0.0/16", cidr)
	}
}

func TestCIDRPairMissingFieldsReturnsFalse(t *testing.T) {
	if _, ok := CIDRPair(map[string]any{"network": uint32(1)}, ""); ok {
		t.Fatal("expected false when mask is absent")
	}
}
