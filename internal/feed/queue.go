package feed

import (
	"sync"

	"github.com/emirpasic/gods/queues/priorityqueue"
	"github.com/emirpasic/gods/utils"
)

// taskComparator orders Tasks highest-Priority-first. gods'
// priorityqueue.NewWith dequeues in ascending comparator order, so
// this is the negation of a plain Priority comparison.
func taskComparator(a, b interface{}) int {
	ta, tb := a.(*Task), b.(*Task)
	return utils.IntComparator(int(tb.Priority), int(ta.Priority))
}

// taskQueue is the dispatcher's in-memory backlog: an unbounded,
// priority-ordered holding area fed by QueueFeed and drained by the
// dispatcher goroutine between dispatch cycles.
type taskQueue struct {
	mu sync.Mutex
	pq *priorityqueue.Queue
}

func newTaskQueue() *taskQueue {
	return &taskQueue{pq: priorityqueue.NewWith(taskComparator)}
}

func (q *taskQueue) push(t *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pq.Enqueue(t)
}

func (q *taskQueue) pop() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	v, ok := q.pq.Dequeue()
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pq.Size()
}
