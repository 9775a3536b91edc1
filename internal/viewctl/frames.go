package viewctl

import (
	"sync"
	"time"
)

// Scheduler runs a callback at the next frame. The returned function cancels
// the callback if it has not run yet.
type Scheduler interface {
	Schedule(fn func()) (cancel func())
}

// DefaultFrameInterval approximates one display frame
const DefaultFrameInterval = 16 * time.Millisecond

// FrameLoop schedules callbacks one frame interval ahead
type FrameLoop struct {
	Interval time.Duration
}

func (f FrameLoop) Schedule(fn func()) func() {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	timer := time.AfterFunc(interval, fn)
	return func() { timer.Stop() }
}

// ManualFrames queues callbacks until Flush is called
type ManualFrames struct {
	mutex   sync.Mutex
	nextID  int
	pending map[int]func()
	order   []int
}

// NewManualFrames creates an empty frame queue
func NewManualFrames() *ManualFrames {
	return &ManualFrames{pending: make(map[int]func())}
}

func (m *ManualFrames) Schedule(fn func()) func() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.nextID++
	id := m.nextID
	m.pending[id] = fn
	m.order = append(m.order, id)

	return func() {
		m.mutex.Lock()
		defer m.mutex.Unlock()
		delete(m.pending, id)
	}
}

// Pending reports how many callbacks are waiting for the next frame
func (m *ManualFrames) Pending() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.pending)
}

// Flush runs every callback queued before the call and returns how many ran
func (m *ManualFrames) Flush() int {
	m.mutex.Lock()
	order := m.order
	m.order = nil
	var fns []func()
	for _, id := range order {
		if fn, ok := m.pending[id]; ok {
			fns = append(fns, fn)
			delete(m.pending, id)
		}
	}
	m.mutex.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}
