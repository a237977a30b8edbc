package intrusive

// Link is the link field embedded in every item stored in a Queue or Stack.
// The zero value is an unlinked item.
type Link[T any] struct {
	next *T
}

func (l *Link[T]) link() *Link[T] { return l }

// Linker is satisfied by *T when T embeds Link[T].
type Linker[T any] interface {
	*T
	link() *Link[T]
}

// Queue is an intrusive singly linked FIFO.
//
// The zero value is an empty queue. A Queue must not be copied while it holds
// items except through the splice operations below, which leave the source
// empty.
type Queue[T any, P Linker[T]] struct {
	head P
	tail P
}

// FromList builds a queue from a chain linked through next pointers, such as
// the one left behind by a Stack. The chain is reversed so that items come
// out in the order they were linked in.
func FromList[T any, P Linker[T]](list P) Queue[T, P] {
	var head P
	tail := list
	for list != nil {
		next := P(list.link().next)
		list.link().next = (*T)(head)
		head = list
		list = next
	}
	return Queue[T, P]{head: head, tail: tail}
}

// Empty reports whether the queue holds no items.
func (q *Queue[T, P]) Empty() bool {
	return q.head == nil
}

// Front returns the first item without removing it, or nil.
func (q *Queue[T, P]) Front() P {
	return q.head
}

// Back returns the last item without removing it, or nil.
func (q *Queue[T, P]) Back() P {
	return q.tail
}

// PopFront removes and returns the first item, or nil if the queue is empty.
func (q *Queue[T, P]) PopFront() P {
	item := q.head
	if item == nil {
		return nil
	}
	l := item.link()
	q.head = P(l.next)
	if q.head == nil {
		q.tail = nil
	}
	l.next = nil
	return item
}

// PushFront inserts item before the current head.
func (q *Queue[T, P]) PushFront(item P) {
	item.link().next = (*T)(q.head)
	q.head = item
	if q.tail == nil {
		q.tail = item
	}
}

// PushBack inserts item after the current tail.
func (q *Queue[T, P]) PushBack(item P) {
	item.link().next = nil
	if q.tail == nil {
		q.head = item
	} else {
		q.tail.link().next = (*T)(item)
	}
	q.tail = item
}

// Append moves every item of other to the back of q. other is left empty.
func (q *Queue[T, P]) Append(other *Queue[T, P]) {
	if other.Empty() {
		return
	}
	if q.Empty() {
		q.head = other.head
	} else {
		q.tail.link().next = (*T)(other.head)
	}
	q.tail = other.tail
	other.head, other.tail = nil, nil
}

// Prepend moves every item of other to the front of q. other is left empty.
func (q *Queue[T, P]) Prepend(other *Queue[T, P]) {
	if other.Empty() {
		return
	}
	other.tail.link().next = (*T)(q.head)
	q.head = other.head
	if q.tail == nil {
		q.tail = other.tail
	}
	other.head, other.tail = nil, nil
}

// PopFrontN splits off the first n items into a new queue, keeping their
// order. If q holds fewer than n items, all of them are taken.
func (q *Queue[T, P]) PopFrontN(n int) Queue[T, P] {
	if n <= 0 || q.Empty() {
		return Queue[T, P]{}
	}
	last := q.head
	for i := 1; i < n; i++ {
		next := P(last.link().next)
		if next == nil {
			break
		}
		last = next
	}
	out := Queue[T, P]{head: q.head, tail: last}
	q.head = P(last.link().next)
	last.link().next = nil
	if q.head == nil {
		q.tail = nil
	}
	return out
}

// Release marks the end of the queue's life. A queue that still holds items
// at this point has lost track of work, which is a programming error.
func (q *Queue[T, P]) Release() {
	if !q.Empty() {
		panic("intrusive: queue released while non-empty")
	}
}
