package intrusive

import "sync/atomic"

// Stack is a lock-free intrusive LIFO.
//
// PushFront may be called from any number of goroutines. PopAll may run
// concurrently with pushes, but not with another PopAll.
type Stack[T any, P Linker[T]] struct {
	head atomic.Pointer[T]
}

// Empty reports whether the stack looked empty at the time of the call.
func (s *Stack[T, P]) Empty() bool {
	return s.head.Load() == nil
}

// PushFront links item on top of the stack.
func (s *Stack[T, P]) PushFront(item P) {
	l := item.link()
	for {
		old := s.head.Load()
		l.next = old
		if s.head.CompareAndSwap(old, (*T)(item)) {
			return
		}
	}
}

// PopAll detaches every item currently on the stack and returns them as a
// queue. Items pushed by a single goroutine come out in the order that
// goroutine pushed them; interleaving across goroutines is unspecified.
func (s *Stack[T, P]) PopAll() Queue[T, P] {
	return FromList[T, P](P(s.head.Swap(nil)))
}
