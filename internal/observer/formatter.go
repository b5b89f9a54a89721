package observer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pentaring/meshcore/internal/observer/value"
)

// FormatLine renders one record for stream:
//   - events: "k=v" pairs, network/mask (and ext_/prov_ variants) merged
//     into a single "a.b.c.d/len" pair.
//   - logs: the record's timestamp, source and Name only (no data fields).
//   - status: each attribute on its own paragraph.
func FormatLine(r Record, stream Stream) string {
	switch stream {
	case StreamLogs:
		return fmt.Sprintf("[%s] %s: %s", r.Timestamp.Format("15:04:05.000"), r.Source, r.Name)
	case StreamStatus:
		return formatStatus(r)
	default:
		return formatEvent(r)
	}
}

func formatEvent(r Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", r.Timestamp.Format("15:04:05.000"), r.Source, r.Name)

	consumed := map[string]bool{}
	for _, prefix := range []string{"", "ext_", "prov_"} {
		if cidr, ok := value.CIDRPair(r.Data, prefix); ok {
			fmt.Fprintf(&b, " %s%s=%s", prefix, "network", cidr)
			consumed[prefix+"network"] = true
			consumed[prefix+"mask"] = true
		}
	}

	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		if !consumed[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, value.Render(k, r.Data[k]))
	}
	return b.String()
}

func formatStatus(r Record) string {
	if text, ok := r.Data["text"].(string); ok {
		return text
	}
	var b strings.Builder
	keys := make([]string, 0, len(r.Data))
	for k := range r.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n\n", k, value.Render(k, r.Data[k]))
	}
	return b.String()
}
