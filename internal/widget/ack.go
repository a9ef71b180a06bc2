package widget

import "time"

// DefaultAckTimeout is how long the export acknowledgement stays visible.
const DefaultAckTimeout = 60 * time.Second

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the callback; it reports whether the call stopped it.
	Stop() bool
}

// Scheduler runs f after d. Implementations used with a Controller must run
// f on the goroutine that owns the controller.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// TimerScheduler schedules with time.AfterFunc. Callbacks fire on the
// runtime's timer goroutine, so it only suits callers that serialize
// Controller access themselves.
type TimerScheduler struct{}

// AfterFunc implements Scheduler.
func (TimerScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ack is the transient "export succeeded" notice. Every show bumps the epoch;
// a callback only clears the notice it was scheduled for.
type ack struct {
	visible bool
	epoch   uint64
	timer   Timer
}

func (a *ack) show(s Scheduler, d time.Duration, expire func(epoch uint64)) {
	a.cancel()
	a.epoch++
	a.visible = true
	epoch := a.epoch
	a.timer = s.AfterFunc(d, func() { expire(epoch) })
}

// expire clears the notice if epoch is still current.
func (a *ack) expire(epoch uint64) bool {
	if epoch != a.epoch || !a.visible {
		return false
	}
	a.visible = false
	a.timer = nil
	return true
}

func (a *ack) dismiss() {
	a.cancel()
	a.visible = false
}

func (a *ack) cancel() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
