package observer

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Stream names the three rendering modes the observer HTTP surface
// supports.
type Stream string

const (
	StreamEvents Stream = "events"
	StreamLogs   Stream = "logs"
	StreamStatus Stream = "status"
)

// Record is one entry in a sub-device's event backlog.
type Record struct {
	Timestamp time.Time
	Source    string // device name, e.g. "north"
	Name      string
	Data      map[string]any
}

// bucketCap bounds how many records one (node, device, stream) bucket
// retains; the oldest entries are dropped once full, the cost-bounded
// eviction the original Python's plain list never had.
const bucketCap = 2000

// bucket is the value stored per cache key: a mutex-guarded ring of
// records. ristretto only key/evict whole buckets; ordering and capacity
// within a bucket are this module's own concern.
type bucket struct {
	mu      sync.Mutex
	records []Record
}

func (b *bucket) append(r Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, r)
	if len(b.records) > bucketCap {
		b.records = b.records[len(b.records)-bucketCap:]
	}
}

func (b *bucket) list() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Cache is the in-process, cost-bounded event backlog backing the
// observer HTTP surface, keyed by (node, device, stream). Built on
// github.com/dgraph-io/ristretto for a bounded event cache; it replaces
// the original UI's unbounded in-memory list.
type Cache struct {
	rc *ristretto.Cache

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewCache builds a Cache sized for a handful of nodes, each with five
// devices and three streams.
func NewCache() (*Cache, error) {
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("observer: new cache: %w", err)
	}
	return &Cache{rc: rc, buckets: make(map[string]*bucket)}, nil
}

func key(node, device string, stream Stream) string {
	return node + "/" + device + "/" + string(stream)
}

// Append records r under (node, device, stream), creating the bucket on
// first use.
func (c *Cache) Append(node, device string, stream Stream, r Record) {
	k := key(node, device, stream)
	b := c.bucketFor(k)
	b.append(r)
	c.rc.Set(k, b, 1)
}

// List returns a chronological snapshot of (node, device, stream).
func (c *Cache) List(node, device string, stream Stream) []Record {
	k := key(node, device, stream)
	c.mu.Lock()
	b, ok := c.buckets[k]
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return b.list()
}

// Clear empties every bucket, backing POST /clear.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets = make(map[string]*bucket)
	c.rc.Clear()
}

func (c *Cache) bucketFor(k string) *bucket {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.buckets[k]
	if !ok {
		b = &bucket{}
		c.buckets[k] = b
	}
	return b
}
