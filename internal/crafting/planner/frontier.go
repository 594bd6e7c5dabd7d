package planner

import "container/heap"

// entry is one frontier element. The same state may be pushed several times
// with different costs; entries whose pathCost is above the state's best
// known distance are stale and skipped on pop.
type entry struct {
	priority float64
	state    State
	key      StateKey
	depth    int
	edgeCost float64
	pathCost float64
}

// less orders entries by (priority, state, depth, edgeCost).
func (e *entry) less(o *entry) bool {
	if e.priority != o.priority {
		return e.priority < o.priority
	}
	if c := e.state.Compare(o.state); c != 0 {
		return c < 0
	}
	if e.depth != o.depth {
		return e.depth < o.depth
	}
	return e.edgeCost < o.edgeCost
}

// entryHeap implements heap.Interface as a min-heap.
type entryHeap []*entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(*entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// frontier is the priority queue of a single search.
type frontier struct {
	h    entryHeap
	peak int
}

func (f *frontier) push(e *entry) {
	heap.Push(&f.h, e)
	f.peak = max(f.peak, len(f.h))
}

func (f *frontier) pop() *entry { return heap.Pop(&f.h).(*entry) }

func (f *frontier) len() int { return len(f.h) }
