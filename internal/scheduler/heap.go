package scheduler

import "container/heap"

// actionHeap implements container/heap.Interface for Entry, sorted by Order
// (smallest first: a min-heap) and then by insertion sequence.
type actionHeap []Entry

func (h actionHeap) Len() int { return len(h) }

func (h actionHeap) Less(i, j int) bool {
	if h[i].Order != h[j].Order {
		return h[i].Order < h[j].Order
	}
	return h[i].seq < h[j].seq
}

func (h actionHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *actionHeap) Push(x any) {
	*h = append(*h, x.(Entry))
}

func (h *actionHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = Entry{}
	*h = old[:n-1]
	return x
}

// heapPush adds an Entry to the heap, maintaining the heap invariant.
func heapPush(h *actionHeap, e Entry) {
	heap.Push(h, e)
}

// heapPop removes and returns the Entry with the smallest order.
// Panics if the heap is empty.
func heapPop(h *actionHeap) Entry {
	return heap.Pop(h).(Entry)
}
