package workspace

import "sync"

// IDAllocator hands out monotonically increasing PluginIDs, recycling
// ids returned by Free onto a free-list before minting new ones.
type IDAllocator struct {
	mu      sync.Mutex
	next    PluginID
	freeIDs []PluginID
}

// NewIDAllocator returns an allocator that starts minting from 1 (0 is
// reserved as "no id").
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

// Allocate returns a free id if one was previously released, otherwise
// mints the next unused id.
func (a *IDAllocator) Allocate() PluginID {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.freeIDs); n > 0 {
		id := a.freeIDs[n-1]
		a.freeIDs = a.freeIDs[:n-1]
		return id
	}
	id := a.next
	a.next++
	return id
}

// Free returns id to the free-list for future reuse.
func (a *IDAllocator) Free(id PluginID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.freeIDs = append(a.freeIDs, id)
}

// Observe ensures subsequent Allocate calls never hand out an id <= the
// given one, without consuming it. Used when loading a workspace whose
// plugins already have ids assigned.
func (a *IDAllocator) Observe(id PluginID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id >= a.next {
		a.next = id + 1
	}
}
