// Package snapshot holds the hub's latest record per node.
package snapshot

import (
	"sort"
	"sync"
	"time"

	"github.com/onflow/node-dashboard/model/telemetry"
)

// Entry is a cached node record together with the time the hub last received it.
// It encodes as the flattened record plus a lastSeen field.
type Entry struct {
	*telemetry.NodeRecord

	// LastSeen is the hub's receive time in Unix milliseconds.
	LastSeen int64 `json:"lastSeen"`
}

// Cache maps node names to the most recent record received for that node.
// Writes are last-writer-wins: a record always replaces the previous entry for its
// node, regardless of its content. Records are never mutated once cached.
//
// Cache is safe for concurrent use.
type Cache struct {
	sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

type Option func(*Cache)

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func NewCache(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
	for _, apply := range opts {
		apply(c)
	}
	return c
}

// Put stores the record under its node name, replacing any existing entry, and
// returns the stored entry.
func (c *Cache) Put(record *telemetry.NodeRecord) Entry {
	entry := Entry{
		NodeRecord: record,
		LastSeen:   c.now().UnixMilli(),
	}

	c.Lock()
	defer c.Unlock()
	c.entries[record.NodeName] = entry
	return entry
}

// Get returns the entry for the given node name.
func (c *Cache) Get(nodeName string) (Entry, bool) {
	c.RLock()
	defer c.RUnlock()
	entry, ok := c.entries[nodeName]
	return entry, ok
}

// All returns every cached entry, sorted by node name. The result is never nil.
func (c *Cache) All() []Entry {
	c.RLock()
	entries := make([]Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		entries = append(entries, entry)
	}
	c.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].NodeName < entries[j].NodeName
	})
	return entries
}

// Names returns the names of all cached nodes, sorted.
func (c *Cache) Names() []string {
	c.RLock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	c.RUnlock()

	sort.Strings(names)
	return names
}

// Reset removes all entries and returns how many were removed.
func (c *Cache) Reset() int {
	c.Lock()
	defer c.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]Entry)
	return n
}

// Size returns the number of cached nodes.
func (c *Cache) Size() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.entries)
}
