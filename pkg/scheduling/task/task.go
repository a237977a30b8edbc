// Package task defines the unit of work accepted by the gosched pools.
//
// A Task carries its own queue link, so handing it to a pool allocates
// nothing. Callers either allocate one with New or Func, or embed Task in
// their own type and call Init:
//
//	type resize struct {
//		task.Task
//		path string
//	}
//
//	func (r *resize) Run(_ *task.Task, workerID int) {
//		// ... do the work ...
//		resizePool.Put(r) // disposal is up to the task
//	}
//
//	r := resizePool.Get().(*resize)
//	r.Init(r)
//	pool.Enqueue(&r.Task)
//
// Once Run returns, the pool holds no reference to the task and its storage
// may be reused.
package task

import (
	"github.com/vnykmshr/gosched/pkg/intrusive"
)

// Runner is the work a Task performs. Run receives the task being executed
// and the id of the worker executing it. Run must not panic; pools recover a
// panic as a last resort and report it, but the task is considered lost.
type Runner interface {
	Run(t *Task, workerID int)
}

// RunnerFunc adapts an ordinary function to the Runner interface.
type RunnerFunc func(t *Task, workerID int)

// Run calls f(t, workerID).
func (f RunnerFunc) Run(t *Task, workerID int) {
	f(t, workerID)
}

// Task is an intrusively linked unit of work. A Task may sit in at most one
// queue at a time; enqueuing a task that is already queued is not detected
// and corrupts the pool.
type Task struct {
	intrusive.Link[Task]
	runner Runner
}

// Queue is a FIFO of tasks. It is not safe for concurrent use.
type Queue = intrusive.Queue[Task, *Task]

// Stack is a lock-free LIFO of tasks.
type Stack = intrusive.Stack[Task, *Task]

// New returns a task that runs r.
func New(r Runner) *Task {
	t := &Task{}
	t.Init(r)
	return t
}

// Func returns a task that calls fn with the executing worker's id.
func Func(fn func(workerID int)) *Task {
	return New(RunnerFunc(func(_ *Task, workerID int) { fn(workerID) }))
}

// Init sets the runner of a task embedded in a caller-owned value. It must
// not be called while the task is queued.
func (t *Task) Init(r Runner) {
	t.runner = r
}

// Run executes the task's runner on behalf of workerID.
func (t *Task) Run(workerID int) {
	t.runner.Run(t, workerID)
}

// PanicFunc receives a value recovered from a task's Run.
type PanicFunc func(t *Task, workerID int, recovered interface{})

// Execute runs t and converts a panic escaping Run into a call to onPanic.
// It reports whether Run returned normally.
func Execute(t *Task, workerID int, onPanic PanicFunc) (ok bool) {
	defer func() {
		if ok {
			return
		}
		if r := recover(); r != nil && onPanic != nil {
			onPanic(t, workerID, r)
		}
	}()
	t.Run(workerID)
	return true
}
