package prewarm

import "container/heap"

// eventHeap implements container/heap.Interface for event, earliest
// triggerAt first.
type eventHeap []event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].triggerAt.Before(h[j].triggerAt) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *eventHeap, e event) {
	heap.Push(h, e)
}

// heapPop removes and returns the earliest event. Panics if h is empty.
func heapPop(h *eventHeap) event {
	return heap.Pop(h).(event)
}
