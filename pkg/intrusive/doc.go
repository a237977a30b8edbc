/*
Package intrusive provides linked containers whose link field lives inside the
stored item rather than in a separately allocated node.

An item type opts in by embedding Link, parameterized by itself:

	type job struct {
		intrusive.Link[job]
		id int
	}

	var q intrusive.Queue[job, *job]
	q.PushBack(&job{id: 1})
	q.PushBack(&job{id: 2})
	for !q.Empty() {
		fmt.Println(q.PopFront().id)
	}

Two containers are provided:

  - Queue: a singly linked FIFO with O(1) push at either end, pop from the
    front and O(1) splicing. It is not safe for concurrent use; callers guard
    it with their own lock.
  - Stack: a lock-free LIFO. Any number of goroutines may push concurrently;
    PopAll drains everything at once and hands the items back as a Queue in
    push order.

An item may be linked into at most one container at a time. Linking an item
that is already linked corrupts both containers; this is not checked at
runtime. Queue.Release panics when a queue still holds items at the end of its
life.
*/
package intrusive
