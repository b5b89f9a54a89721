// Package value implements the typed observability attribute model
// recovered from original_source/i4a-ui/src/i4a_ui/services/events/model/*:
// well-known event attribute names render under a fixed type rather than
// their raw wire representation, so the observer's events/logs/status
// streams can print `network=10.32.0.0` instead of a bare uint32.
package value

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pentaring/meshcore/internal/ipaddr"
)

// IPKeys are attribute names rendered as dotted-quad addresses.
var IPKeys = map[string]bool{
	"network": true, "ip": true, "ext_network": true, "prov_network": true,
}

// MaskKeys are attribute names rendered as a prefix length (popcount).
var MaskKeys = map[string]bool{
	"mask": true, "ext_mask": true, "prov_mask": true,
}

// BytesKeys are attribute names carrying base64-encoded bytes, rendered
// as space-grouped hex.
var BytesKeys = map[string]bool{
	"message": true,
}

// Render converts a raw attribute value to its display string, per the
// typed-value rules above. Unknown keys render with fmt.Sprint.
func Render(key string, v any) string {
	switch {
	case IPKeys[key]:
		return renderIP(v)
	case MaskKeys[key]:
		return renderMask(v)
	case BytesKeys[key]:
		return renderBytes(v)
	default:
		return fmt.Sprint(v)
	}
}

func renderIP(v any) string {
	a, ok := toAddr(v)
	if !ok {
		return fmt.Sprint(v)
	}
	return a.String()
}

func renderMask(v any) string {
	a, ok := toAddr(v)
	if !ok {
		return fmt.Sprint(v)
	}
	return fmt.Sprintf("%d", a.PrefixLen())
}

func renderBytes(v any) string {
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Sprint(v)
	}
	groups := make([]string, len(raw))
	for i, b := range raw {
		groups[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(groups, " ")
}

func toAddr(v any) (ipaddr.Addr, bool) {
	switch n := v.(type) {
	case ipaddr.Addr:
		return n, true
	case uint32:
		return ipaddr.Addr(n), true
	case int:
		return ipaddr.Addr(uint32(n)), true
	case float64:
		return ipaddr.Addr(uint32(n)), true
	default:
		return 0, false
	}
}

// CIDRPair renders a (network, mask) attribute pair merged into
// "a.b.c.d/len", the events-stream formatting rule. prefix is "" for the
// bare network/mask keys or "ext_"/"prov_" for their variants.
func CIDRPair(fields map[string]any, prefix string) (string, bool) {
	net, hasNet := fields[prefix+"network"]
	mask, hasMask := fields[prefix+"mask"]
	if !hasNet || !hasMask {
		return "", false
	}
	n, ok1 := toAddr(net)
	m, ok2 := toAddr(mask)
	if !ok1 || !ok2 {
		return "", false
	}
	return ipaddr.CIDR(n, m.PrefixLen()), true
}
