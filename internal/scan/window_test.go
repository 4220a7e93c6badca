package scan

import (
	"sync"
	"testing"
	"time"
)

// fakeTimer records the scheduled callback so tests fire it by hand.
type fakeTimer struct {
	mu      sync.Mutex
	f       func()
	stopped bool
}

func (ft *fakeTimer) Stop() bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	was := !ft.stopped
	ft.stopped = true
	return was
}

func (ft *fakeTimer) fire() {
	ft.mu.Lock()
	stopped := ft.stopped
	f := ft.f
	ft.mu.Unlock()
	if !stopped && f != nil {
		f()
	}
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (fc *fakeClock) afterFunc(d time.Duration, f func()) stopper {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	ft := &fakeTimer{f: f}
	fc.timers = append(fc.timers, ft)
	return ft
}

func (fc *fakeClock) last() *fakeTimer {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.timers[len(fc.timers)-1]
}

func TestWindowExpiresOnce(t *testing.T) {
	fc := &fakeClock{}
	w := NewWindowWithTimer(fc.afterFunc)

	fired := 0
	w.Arm(DefaultArmDuration, func() { fired++ })
	if !w.Armed() {
		t.Fatal("window should be armed")
	}

	timer := fc.last()
	timer.fire()
	timer.fire()

	if fired != 1 {
		t.Errorf("expected exactly one expiry, got %d", fired)
	}
	if w.Armed() {
		t.Error("window should disarm after expiry")
	}
}

func TestWindowCancelPreventsExpiry(t *testing.T) {
	fc := &fakeClock{}
	w := NewWindowWithTimer(fc.afterFunc)

	fired := 0
	w.Arm(DefaultArmDuration, func() { fired++ })
	w.Cancel()

	// Even if the runtime callback were already in flight, the
	// sequence guard makes it a no-op.
	fc.last().fire()

	if fired != 0 {
		t.Errorf("cancelled window must not expire, fired %d times", fired)
	}
	if w.Armed() {
		t.Error("window should not be armed after cancel")
	}
}

func TestWindowStaleTimerAfterRearm(t *testing.T) {
	fc := &fakeClock{}
	w := NewWindowWithTimer(fc.afterFunc)

	var firstFired, secondFired bool
	w.Arm(DefaultArmDuration, func() { firstFired = true })
	first := fc.last()
	w.Arm(DefaultArmDuration, func() { secondFired = true })

	// The first timer is stale. Firing it must do nothing.
	first.mu.Lock()
	first.stopped = false // simulate a callback that raced Stop
	first.mu.Unlock()
	first.fire()
	if firstFired {
		t.Error("stale timer fired into re-armed window")
	}

	fc.last().fire()
	if !secondFired {
		t.Error("re-armed timer should fire")
	}
}

func TestWindowCancelIdempotent(t *testing.T) {
	w := NewWindow()
	w.Cancel()
	w.Cancel()

	w.Arm(time.Hour, func() { t.Error("should never fire") })
	w.Cancel()
	w.Cancel()
	if w.Armed() {
		t.Error("window should not be armed")
	}
}
