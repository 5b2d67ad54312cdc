package engine

// Window is a fixed-capacity FIFO membership set. It prevents short-term
// repetition of a choice: recently used items are members and excluded
// from selection until enough newer insertions evict them.
//
// Eviction is strict FIFO by insertion time, not LRU: membership tests
// do not refresh an item. Duplicate insertions are kept as separate FIFO
// slots, so an item remains a member until its last insertion is
// evicted.
//
// Windows are process-local short-term memory: they start empty, are
// owned by the scheduler, and are passed to collaborators by parameter.
// Single-writer ownership means no locking.
type Window struct {
	capacity int
	order    []string
	count    map[string]int
}

// NewWindow creates an empty window with the given capacity.
// Capacity must be positive.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		panic("engine: window capacity must be positive")
	}
	return &Window{
		capacity: capacity,
		order:    make([]string, 0, capacity),
		count:    make(map[string]int),
	}
}

// Remember inserts item, evicting the oldest insertion if the window
// would exceed its capacity.
func (w *Window) Remember(item string) {
	w.order = append(w.order, item)
	w.count[item]++
	if len(w.order) > w.capacity {
		oldest := w.order[0]
		w.order[0] = "" // release the slot before reslicing
		w.order = w.order[1:]
		if w.count[oldest]--; w.count[oldest] == 0 {
			delete(w.count, oldest)
		}
	}
}

// Contains reports whether item is currently in the window.
func (w *Window) Contains(item string) bool {
	return w.count[item] > 0
}

// Len returns the number of occupied slots, duplicates included.
func (w *Window) Len() int {
	return len(w.order)
}
