package workerpool

import (
	"sync"

	"github.com/vnykmshr/gosched/pkg/scheduling/task"
)

type pushResult int

const (
	// pushBusy means the worker's lock was held; try another worker.
	pushBusy pushResult = iota
	pushOK
	// pushClosed means the worker has been asked to stop.
	pushClosed
)

// workerState is the queue owned by one worker. Only the owner waits on
// cond; any goroutine may push and any worker may try-pop.
type workerState struct {
	mu      sync.Mutex
	cond    sync.Cond
	queue   task.Queue
	queued  int
	stopped bool
}

func (w *workerState) init() {
	w.cond.L = &w.mu
}

func (w *workerState) tryPush(t *task.Task) pushResult {
	if !w.mu.TryLock() {
		return pushBusy
	}
	defer w.mu.Unlock()
	return w.pushLocked(t)
}

func (w *workerState) push(t *task.Task) pushResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pushLocked(t)
}

// pushLocked rejects tasks once stop has been requested. The owner only
// exits after seeing stopped with an empty queue under the same lock, so an
// accepted task is always run.
func (w *workerState) pushLocked(t *task.Task) pushResult {
	if w.stopped {
		return pushClosed
	}
	wasEmpty := w.queue.Empty()
	w.queue.PushBack(t)
	w.queued++
	if wasEmpty {
		w.cond.Signal()
	}
	return pushOK
}

func (w *workerState) tryPop() *task.Task {
	if !w.mu.TryLock() {
		return nil
	}
	defer w.mu.Unlock()
	return w.popLocked()
}

// pop blocks until a task is available. It returns nil once stop has been
// requested and the queue is empty.
func (w *workerState) pop() *task.Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.queue.Empty() {
		if w.stopped {
			return nil
		}
		w.cond.Wait()
	}
	return w.popLocked()
}

func (w *workerState) popLocked() *task.Task {
	t := w.queue.PopFront()
	if t != nil {
		w.queued--
	}
	return t
}

func (w *workerState) requestStop() {
	w.mu.Lock()
	w.stopped = true
	w.cond.Broadcast()
	w.mu.Unlock()
}

func (w *workerState) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.queued
}

func (w *workerState) release() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queue.Release()
}
