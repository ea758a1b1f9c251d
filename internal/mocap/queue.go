package mocap

import "sync"

// Reading is an already-decoded accelerometer reading from a transport.
type Reading struct {
	DeviceID  string
	Index     int
	AccelX    float64
	AccelY    float64
	AccelZ    float64
	Timestamp float64
}

// Sample converts the reading into a Sample. A zero timestamp is replaced
// with fallback, the host clock at the tick that drained the reading.
func (r Reading) Sample(fallback float64) Sample {
	s := NewSample()
	ts := r.Timestamp
	if ts == 0 {
		ts = fallback
	}
	s.Set(FieldTimestamp, ts)
	s.SetAccel(Vec3{r.AccelX, r.AccelY, r.AccelZ})
	return s
}

// Queue is the hand-off point between transport goroutines and the tick
// goroutine. Push never blocks: readings beyond capacity are dropped.
type Queue struct {
	mu       sync.Mutex
	items    []Reading
	capacity int
	dropped  uint64
}

// NewQueue creates a queue holding at most capacity readings.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{capacity: capacity}
}

// Push enqueues r, reporting false when the queue is full.
func (q *Queue) Push(r Reading) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.dropped++
		return false
	}
	q.items = append(q.items, r)
	return true
}

// Drain returns every queued reading in arrival order and empties the queue.
func (q *Queue) Drain() []Reading {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued readings.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many readings were rejected because the queue was full.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
