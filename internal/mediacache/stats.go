package mediacache

import "sync/atomic"

type counters struct {
	memory        atomic.Uint64
	objectStore   atomic.Uint64
	legacy        atomic.Uint64
	synthesized   atomic.Uint64
	misses        atomic.Uint64
	writeFailures atomic.Uint64
}

// Stats is a snapshot of cache activity since start.
type Stats struct {
	MemoryHits      uint64 `json:"memory_hits"`
	ObjectStoreHits uint64 `json:"object_store_hits"`
	LegacyHits      uint64 `json:"legacy_hits"`
	Synthesized     uint64 `json:"synthesized"`
	Misses          uint64 `json:"misses"`
	WriteFailures   uint64 `json:"write_failures"`
	MemoryEntries   int    `json:"memory_entries"`
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		MemoryHits:      c.stats.memory.Load(),
		ObjectStoreHits: c.stats.objectStore.Load(),
		LegacyHits:      c.stats.legacy.Load(),
		Synthesized:     c.stats.synthesized.Load(),
		Misses:          c.stats.misses.Load(),
		WriteFailures:   c.stats.writeFailures.Load(),
		MemoryEntries:   c.mem.Len(),
	}
}
