// Package observer implements the external observability collaborator: the
// narrow per-sub-device contract (event/request_critical_section/
// enter_critical_section/exit_critical_section), a cost-bounded event
// backlog, and the HTTP surface that serves it. Built on internal/api's
// functional-options *http.Server wrapper, restructured around this
// module's node/device/stream keying.
package observer

import (
	"sync/atomic"

	"github.com/pentaring/meshcore/internal/clock"
)

// Observer is bound to one sub-device (node, device name) and implements
// device.Observer. It writes every call into the shared Cache so the HTTP
// surface can serve it across sub-devices and nodes.
type Observer struct {
	node   string
	device string
	clock  clock.Clock
	cache  *Cache

	inCriticalSection atomic.Bool
}

// New builds an Observer for one sub-device, backed by cache.
func New(node, device string, c clock.Clock, cache *Cache) *Observer {
	return &Observer{node: node, device: device, clock: c, cache: cache}
}

// Event records the event under both the events and logs streams: logs
// extracts the nested event field, so a logs record is the same data
// under a different rendering.
func (o *Observer) Event(name string, fields map[string]any) {
	r := Record{
		Timestamp: o.clock.Now(),
		Source:    o.device,
		Name:      name,
		Data:      cloneFields(fields, o.inCriticalSection.Load()),
	}
	o.cache.Append(o.node, o.device, StreamEvents, r)
	o.cache.Append(o.node, o.device, StreamLogs, r)
}

// RequestCriticalSection records the lifecycle transition as an event in the
// events and logs streams; it does not itself grant or deny anything (that's the sync
// core's job).
func (o *Observer) RequestCriticalSection() {
	o.Event("request_critical_section", nil)
}

func (o *Observer) EnterCriticalSection() {
	o.inCriticalSection.Store(true)
	o.Event("enter_critical_section", nil)
}

func (o *Observer) ExitCriticalSection() {
	o.Event("exit_critical_section", nil)
	o.inCriticalSection.Store(false)
}

// Status appends a freeform status snapshot string, for routing-core
// Status() output (GET /nodes/{id}/status).
func (o *Observer) Status(text string) {
	o.cache.Append(o.node, o.device, StreamStatus, Record{
		Timestamp: o.clock.Now(),
		Source:    o.device,
		Name:      "status",
		Data:      map[string]any{"text": text},
	})
}

// cloneFields attaches the current critical-section flag to a copy of
// fields so later stream rendering doesn't need side-channel state;
// fields may be nil for lifecycle-only events.
func cloneFields(fields map[string]any, inCS bool) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["critical_section"] = inCS
	return out
}
