package eventloop

// Queue is a manually driven scheduler: deferred work runs only when Flush
// is called, on the caller's goroutine.
type Queue struct {
	tasks []func()
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Defer queues fn.
func (q *Queue) Defer(fn func()) {
	q.tasks = append(q.tasks, fn)
}

// Tick runs the tasks queued so far; tasks they defer wait for the next tick.
// It returns the number of tasks run.
func (q *Queue) Tick() int {
	batch := q.tasks
	q.tasks = nil
	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Flush ticks until the queue is empty or maxTicks is reached and reports
// whether it drained.
func (q *Queue) Flush(maxTicks int) bool {
	if maxTicks <= 0 {
		maxTicks = DefaultSettleTicks
	}
	for i := 0; i < maxTicks; i++ {
		if len(q.tasks) == 0 {
			return true
		}
		q.Tick()
	}
	return len(q.tasks) == 0
}

// Pending returns the number of queued tasks.
func (q *Queue) Pending() int {
	return len(q.tasks)
}
