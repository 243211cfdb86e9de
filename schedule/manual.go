package schedule

import (
	"sort"
	"time"
)

// Manual is a Scheduler driven by a virtual clock. Nothing runs until
// Advance is called.
type Manual struct {
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	due  time.Duration
	seq  int
	fn   func()
	done bool
}

func (t *manualTask) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	return true
}

func NewManual() *Manual {
	return &Manual{}
}

// Now is the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	return m.now
}

func (m *Manual) After(d time.Duration, fn func()) Task {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTask{due: m.now + d, seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return t
}

func (m *Manual) Post(fn func()) {
	m.After(0, fn)
}

// Pending counts callbacks that have neither run nor been stopped.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.done {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running every callback that falls
// due in order of due time, then scheduling order. Callbacks scheduled while
// advancing run too if they fall due within the window.
func (m *Manual) Advance(d time.Duration) {
	end := m.now + d
	for {
		next := m.next(end)
		if next == nil {
			break
		}
		m.now = next.due
		next.done = true
		next.fn()
	}
	m.now = end
	m.compact()
}

func (m *Manual) next(end time.Duration) *manualTask {
	var best *manualTask
	for _, t := range m.tasks {
		if t.done || t.due > end {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) compact() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.done {
			live = append(live, t)
		}
	}
	m.tasks = live
	sort.SliceStable(m.tasks, func(i, j int) bool { return m.tasks[i].due < m.tasks[j].due })
}
