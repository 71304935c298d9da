package scheduler

import "container/heap"

// checkHeap implements container/heap.Interface for CheckEvent, ordered by
// TriggerAt with the earliest on top.
type checkHeap []CheckEvent

func (h checkHeap) Len() int           { return len(h) }
func (h checkHeap) Less(i, j int) bool { return h[i].TriggerAt.Before(h[j].TriggerAt) }
func (h checkHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *checkHeap) Push(x any) {
	*h = append(*h, x.(CheckEvent))
}

func (h *checkHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func heapPush(h *checkHeap, e CheckEvent) {
	heap.Push(h, e)
}

// heapPop removes and returns the event with the earliest TriggerAt.
// Panics on an empty heap.
func heapPop(h *checkHeap) CheckEvent {
	return heap.Pop(h).(CheckEvent)
}

// heapRemoveByHash removes the first event carrying the given product hash
// and reports whether one was found.
func heapRemoveByHash(h *checkHeap, productHash string) bool {
	for i, e := range *h {
		if e.ProductHash == productHash {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}
