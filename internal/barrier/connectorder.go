// Package barrier implements a deterministic startup ordering latch: an
// optional connect-order list names a linearization of the four forwarder
// slots, and each listed slot's WLAN Connect is gated until the previous
// slot's first PeerConnected event. Restructured around sync.Cond since
// many goroutines may wait on the same release rather than one consumer
// polling a channel.
package barrier

import (
	"sync"

	"github.com/pentaring/meshcore/internal/orientation"
)

// ConnectOrder gates each listed orientation's WLAN connect step behind the
// previous listed orientation's first peer connection. Orientations absent
// from the list start unlatched.
type ConnectOrder struct {
	mu          sync.Mutex
	cond        *sync.Cond
	released    map[orientation.Orientation]bool
	predecessor map[orientation.Orientation]orientation.Orientation
}

// New builds a ConnectOrder from an ordered slot linearization, e.g.
// []orientation.Orientation{North, East, South, West}. Orientations not
// present in order are left unlatched.
func New(order []orientation.Orientation) *ConnectOrder {
	c := &ConnectOrder{
		released:    make(map[orientation.Orientation]bool),
		predecessor: make(map[orientation.Orientation]orientation.Orientation),
	}
	c.cond = sync.NewCond(&c.mu)
	for i, o := range order {
		if i > 0 {
			c.predecessor[o] = order[i-1]
		}
	}
	return c
}

// Await blocks until o is permitted to connect: immediately if o has no
// predecessor in the linearization, otherwise until the predecessor's
// first peer connection releases it.
func (c *ConnectOrder) Await(o orientation.Orientation) {
	pred, gated := c.predecessor[o]
	if !gated {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for !c.released[pred] {
		c.cond.Wait()
	}
}

// Release records o's first peer connection, waking any slot gated behind
// it. Subsequent calls for the same o are no-ops.
func (c *ConnectOrder) Release(o orientation.Orientation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released[o] {
		return
	}
	c.released[o] = true
	c.cond.Broadcast()
}
