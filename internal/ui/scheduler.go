package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"luxview/internal/widget"
)

// Scheduler implements widget.Scheduler on the Bubble Tea loop. AfterFunc
// queues a tea.Tick; the callback runs from Update when the tick arrives, so
// the controller is only ever touched by the program goroutine.
type Scheduler struct {
	nextID  uint64
	pending map[uint64]*teaTimer
	queued  []tea.Cmd
}

var _ widget.Scheduler = (*Scheduler)(nil)

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[uint64]*teaTimer)}
}

type teaTimer struct {
	s    *Scheduler
	id   uint64
	f    func()
	done bool
}

// Stop implements widget.Timer.
func (t *teaTimer) Stop() bool {
	if t.done {
		return false
	}
	t.done = true
	delete(t.s.pending, t.id)
	return true
}

// AfterFunc implements widget.Scheduler.
func (s *Scheduler) AfterFunc(d time.Duration, f func()) widget.Timer {
	s.nextID++
	id := s.nextID
	t := &teaTimer{s: s, id: id, f: f}
	s.pending[id] = t
	s.queued = append(s.queued, tea.Tick(d, func(time.Time) tea.Msg {
		return timerFiredMsg{id: id}
	}))
	return t
}

// Flush returns the ticks queued since the last call.
func (s *Scheduler) Flush() tea.Cmd {
	if len(s.queued) == 0 {
		return nil
	}
	cmds := s.queued
	s.queued = nil
	return tea.Batch(cmds...)
}

// Fire runs the callback of timer id unless it was stopped.
func (s *Scheduler) Fire(id uint64) bool {
	t, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)
	t.done = true
	t.f()
	return true
}

// Pending returns the ids of timers that have neither fired nor been stopped.
func (s *Scheduler) Pending() []uint64 {
	ids := make([]uint64, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	return ids
}
