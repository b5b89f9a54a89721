package observer

import (
	"strings"
	"testing"
	"time"
)

func TestFormatLineEventsMergesNetworkAndMask(t *testing.T) {
	r := Record{
		Timestamp: time.Unix(0, 0).UTC(),
		Source:    "north",
		Name:      "peer_connected",
		Data: map[string]any{
			"network":          uint32(0x0A000000), // 10.0.0.0
			"mask":             uint32(0xFFFFFF00), // /24
			"critical_section": false,
		},
	}
	line := FormatLine(r, StreamEvents)
	if !strings.Contains(line, "network=10.0.0.0/24") {
		t.Fatalf("expected a merged network/mask CIDR pair, got %q", line)
	}
	if strings.Contains(line, "mask=") {
		t.Fatalf("mask must be consumed into the CIDR pair, not rendered separately: %q", line)
	}
}

func TestFormatLineLogsExtractsEventName(t *testing.T) {
	r := Record{
		Timestamp: time.Unix(0, 0).UTC(),
		Source:    "north",
		Name:      "sibling_message_received",
		Data:      map[string]any{"kind": "PROVISION"},
	}
	line := FormatLine(r, StreamLogs)
	if !strings.Contains(line, "sibling_message_received") {
		t.Fatalf("expected the logs line to name the event, got %q", line)
	}
	if strings.Contains(line, "kind=") {
		t.Fatal("logs rendering must not include raw event fields")
	}
}

func TestFormatLineStatusPrefersTextField(t *testing.T) {
	r := Record{Name: "status", Data: map[string]any{"text": "forwarding n->e"}}
	if got := FormatLine(r, StreamStatus); got != "forwarding n->e" {
		t.Fatalf("FormatLine(status) = %q, want the raw text", got)
	}
}

func TestFormatLineStatusRendersEachAttributeOnItsOwnParagraph(t *testing.T) {
	r := Record{Name: "status", Data: map[string]any{"dtr": 3, "hag_ips": "10.0.0.1/32"}}
	got := FormatLine(r, StreamStatus)
	if !strings.Contains(got, "dtr: 3") || !strings.Contains(got, "hag_ips: 10.0.0.1/32") {
		t.Fatalf("expected both attributes rendered, got %q", got)
	}
	if !strings.Contains(got, "\n\n") {
		t.Fatal("expected attributes separated into paragraphs")
	}
}
