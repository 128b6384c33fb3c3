package wake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"todowrist/hal"
)

func TestFlagCollapsesEdges(t *testing.T) {
	var f Flag
	if f.Consume() {
		t.Fatalf("fresh flag pending")
	}
	f.Set()
	f.Set()
	f.Set()
	if !f.Consume() {
		t.Fatalf("flag lost")
	}
	if f.Consume() {
		t.Fatalf("flag consumed twice")
	}
}

func TestFlagConcurrentSetters(t *testing.T) {
	var f Flag
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				f.Set()
			}
		}()
	}
	wg.Wait()
	if !f.Consume() || f.Consume() {
		t.Fatalf("want exactly one pending request")
	}
}

func TestTwoEdgesBeforePollGiveOneReset(t *testing.T) {
	pin := hal.NewVirtualPin("WAKE", hal.GPIOCapInput|hal.GPIOCapPullUp|hal.GPIOCapInterrupt)
	c := New(pin, nil, nil)
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if c.State() != Running {
		t.Fatalf("state = %v", c.State())
	}

	pin.Press()
	pin.Press()
	if c.State() != ResetPending {
		t.Fatalf("state = %v, want reset-pending", c.State())
	}

	resets := 0
	for i := 0; i < 3; i++ {
		if c.Poll() {
			resets++
		}
	}
	if resets != 1 {
		t.Fatalf("resets = %d, want 1", resets)
	}
	if c.State() != Running {
		t.Fatalf("state = %v after poll", c.State())
	}
}

func TestRisingEdgeIgnored(t *testing.T) {
	pin := hal.NewVirtualPin("WAKE", hal.GPIOCapInput|hal.GPIOCapPullUp|hal.GPIOCapInterrupt)
	c := New(pin, nil, nil)
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	pin.Drive(false)
	c.Poll()
	pin.Drive(true)
	if c.Poll() {
		t.Fatalf("release edge requested a reset")
	}
}

func TestDisarm(t *testing.T) {
	pin := hal.NewVirtualPin("WAKE", hal.GPIOCapInput|hal.GPIOCapPullUp|hal.GPIOCapInterrupt)
	c := New(pin, nil, nil)
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	c.Disarm()
	pin.Press()
	if c.Poll() {
		t.Fatalf("disarmed pin requested a reset")
	}
}

type fakeSleeper struct {
	wake  chan struct{}
	level bool
	c     *Controller
	seen  State
}

func (s *fakeSleeper) DeepSleep(ctx context.Context, pin hal.GPIOPin, level bool) error {
	s.level = level
	s.seen = s.c.State()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.wake:
		return nil
	}
}

func TestSleepWaitsForWake(t *testing.T) {
	pin := hal.NewVirtualPin("WAKE", hal.GPIOCapInput|hal.GPIOCapPullUp|hal.GPIOCapInterrupt)
	s := &fakeSleeper{wake: make(chan struct{})}
	c := New(pin, s, nil)
	s.c = c
	if err := c.Arm(); err != nil {
		t.Fatalf("Arm: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Sleep(context.Background()) }()
	// A press while asleep is the wake edge, not a reset.
	pin.Press()
	close(s.wake)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Sleep: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Sleep did not return")
	}
	if s.level {
		t.Fatalf("wake level = high, want low")
	}
	if s.seen != Sleeping {
		t.Fatalf("state during sleep = %v", s.seen)
	}
	if c.State() != Running || c.Poll() {
		t.Fatalf("wake left a pending reset")
	}
}

func TestSleepCancelled(t *testing.T) {
	pin := hal.NewVirtualPin("WAKE", hal.GPIOCapInput|hal.GPIOCapPullUp|hal.GPIOCapInterrupt)
	s := &fakeSleeper{wake: make(chan struct{})}
	c := New(pin, s, nil)
	s.c = c
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Sleep(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSleepWithoutSleeper(t *testing.T) {
	c := New(nil, nil, nil)
	if err := c.Sleep(context.Background()); !errors.Is(err, hal.ErrNotImplemented) {
		t.Fatalf("err = %v", err)
	}
	if err := c.Arm(); !errors.Is(err, hal.ErrNotImplemented) {
		t.Fatalf("Arm err = %v", err)
	}
}
