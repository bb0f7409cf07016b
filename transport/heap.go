package transport

import "container/heap"

// scheduled is one pending callback. canceled entries stay in the heap and
// are skipped when they surface (lazy removal, cheap Clear).
type scheduled struct {
	tick     int64
	seq      uint64
	id       uint64
	fn       func(tick int64)
	canceled bool
}

// scheduleHeap orders by (tick, seq): earliest first, insertion order on
// ties.
type scheduleHeap []*scheduled

func (h scheduleHeap) Len() int { return len(h) }

func (h scheduleHeap) Less(i, j int) bool {
	if h[i].tick != h[j].tick {
		return h[i].tick < h[j].tick
	}
	return h[i].seq < h[j].seq
}

func (h scheduleHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scheduleHeap) Push(x any) {
	*h = append(*h, x.(*scheduled))
}

func (h *scheduleHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

func heapPush(h *scheduleHeap, s *scheduled) {
	heap.Push(h, s)
}

func heapPop(h *scheduleHeap) *scheduled {
	return heap.Pop(h).(*scheduled)
}
