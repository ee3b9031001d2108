package notify

import "sync"

// Message is one pending outbound notification. Messages are in-memory
// only; a process restart drops whatever is in flight.
type Message struct {
	Destination string
	Body        string
	VesselName  string
	Attempts    int
}

// Queue is a mutex-guarded FIFO of pending messages. The vessel processor
// enqueues during the tracking tick while the delivery worker drains on its
// own cadence, so both sides go through the lock.
type Queue struct {
	mu    sync.Mutex
	items []Message
}

// NewQueue creates an empty delivery queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a message to the tail.
func (q *Queue) Enqueue(m Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, m)
}

// Dequeue pops the head message. The second return is false when the queue
// is empty.
func (q *Queue) Dequeue() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Message{}, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m, true
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
