package scan

import (
	"sync"
	"time"
)

// DefaultArmDuration is how long the scanner stays armed waiting for
// a code before a "nothing detected" outcome is surfaced.
const DefaultArmDuration = 4 * time.Second

type stopper interface {
	Stop() bool
}

type realTimer struct{ *time.Timer }

// AfterFunc schedules a callback; swapped out in tests for a
// controllable fake.
type AfterFunc func(d time.Duration, f func()) stopper

func realAfterFunc(d time.Duration, f func()) stopper {
	return realTimer{time.AfterFunc(d, f)}
}

// Window tracks the armed state of the scanning surface. Arming
// starts a single timeout; any scan resolution or screen exit must
// cancel it so a stale timer can never fire into a dead screen.
type Window struct {
	after AfterFunc

	mu    sync.Mutex
	seq   int
	timer stopper
}

func NewWindow() *Window {
	return &Window{after: realAfterFunc}
}

// NewWindowWithTimer builds a Window with a custom timer constructor.
func NewWindowWithTimer(after AfterFunc) *Window {
	return &Window{after: after}
}

// Arm starts (or restarts) the timeout. onExpire runs at most once
// per arming, and never after Cancel or a later re-arm.
func (w *Window) Arm(d time.Duration, onExpire func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.seq++
	seq := w.seq
	w.timer = w.after(d, func() {
		w.mu.Lock()
		stale := seq != w.seq
		if !stale {
			w.timer = nil
		}
		w.mu.Unlock()
		if stale {
			return
		}
		onExpire()
	})
}

// Cancel stops the pending timeout, if any. Safe to call repeatedly
// and from any exit path.
func (w *Window) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.seq++
}

// Armed reports whether a timeout is currently pending.
func (w *Window) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer != nil
}
