// Implements the ReadyQueue, the fairness ordering kept by the round-robin,
// static-priority and feedback-queue schedulers.

package sim

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/lists/doublylinkedlist"
)

// ReadyQueue is a FIFO of pids. Processes join at the back on admission and return
// to the back when their slice expires. It is owned by a scheduler and is separate
// from the Environment's canonical storage of active processes.
type ReadyQueue struct {
	list *doublylinkedlist.List
}

// NewReadyQueue returns an empty queue.
func NewReadyQueue() *ReadyQueue {
	return &ReadyQueue{list: doublylinkedlist.New()}
}

// Enqueue adds pid at the back.
func (q *ReadyQueue) Enqueue(pid int) {
	q.list.Append(pid)
}

// Remove deletes pid if present.
func (q *ReadyQueue) Remove(pid int) {
	if i := q.list.IndexOf(pid); i >= 0 {
		q.list.Remove(i)
	}
}

// MoveToBack moves pid to the back, appending it if absent.
func (q *ReadyQueue) MoveToBack(pid int) {
	q.Remove(pid)
	q.list.Append(pid)
}

// Prune drops every pid for which keep returns false, preserving order.
func (q *ReadyQueue) Prune(keep func(pid int) bool) {
	for i := q.list.Size() - 1; i >= 0; i-- {
		v, _ := q.list.Get(i)
		if !keep(v.(int)) {
			q.list.Remove(i)
		}
	}
}

// Items returns the pids front to back.
func (q *ReadyQueue) Items() []int {
	out := make([]int, 0, q.list.Size())
	it := q.list.Iterator()
	for it.Next() {
		out = append(out, it.Value().(int))
	}
	return out
}

// Len returns the number of queued pids.
func (q *ReadyQueue) Len() int {
	return q.list.Size()
}

// Clear empties the queue.
func (q *ReadyQueue) Clear() {
	q.list.Clear()
}

func (q *ReadyQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, pid := range q.Items() {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(fmt.Sprint(pid))
	}
	sb.WriteString("]")
	return sb.String()
}
