package dataflow

// worklist is a FIFO queue that holds each node at most once.
type worklist[N comparable] struct {
	queue  []N
	queued map[N]bool
}

func newWorklist[N comparable](size int) *worklist[N] {
	return &worklist[N]{
		queue:  make([]N, 0, size),
		queued: make(map[N]bool, size),
	}
}

func (w *worklist[N]) push(n N) {
	if w.queued[n] {
		return
	}
	w.queued[n] = true
	w.queue = append(w.queue, n)
}

func (w *worklist[N]) pop() N {
	n := w.queue[0]
	w.queue = w.queue[1:]
	delete(w.queued, n)
	return n
}

func (w *worklist[N]) empty() bool {
	return len(w.queue) == 0
}
