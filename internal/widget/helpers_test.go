package widget

import (
	"context"
	"errors"
	"sort"
	"time"

	"luxview/internal/store"
)

func vis(title string) VisSpec { return VisSpec{"title": title} }

func visList(titles ...string) []VisSpec {
	out := make([]VisSpec, len(titles))
	for i, t := range titles {
		out[i] = vis(t)
	}
	return out
}

// fakeScheduler runs timers against a virtual clock advanced by the test.
type fakeScheduler struct {
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward, firing due timers in order.
func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		due := s.due(target)
		if len(due) == 0 {
			break
		}
		t := due[0]
		s.now = t.at
		t.fired = true
		t.f()
	}
	s.now = target
}

func (s *fakeScheduler) due(target time.Duration) []*fakeTimer {
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= target {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out
}

// Pending counts timers that are neither stopped nor fired.
func (s *fakeScheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type loggedEvent struct {
	name    string
	payload interface{}
}

type recordingLogger struct {
	events []loggedEvent
}

func (r *recordingLogger) Log(event string, payload interface{}) {
	r.events = append(r.events, loggedEvent{name: event, payload: payload})
}

func (r *recordingLogger) names() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.name
	}
	return out
}

type countingRenderer struct {
	resyncs int
}

func (r *countingRenderer) RemoveDeletedCharts() { r.resyncs++ }

// failingStore wraps Memory and fails every commit.
type failingStore struct {
	*store.Memory
	err error
}

func (f *failingStore) Commit(context.Context) error { return f.err }

var errCommit = errors.New("kernel went away")
