//go:build !tinygo

package device

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todowrist/firmware/mode"
	"todowrist/firmware/netinfo"
	"todowrist/firmware/prefs"
	"todowrist/firmware/render"
	"todowrist/firmware/tasks"
	"todowrist/hal"
)

type countingLED struct {
	mu    sync.Mutex
	highs int
	lows  int
}

func (l *countingLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.highs++
}

func (l *countingLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lows++
}

type testHAL struct {
	hal.HAL
	led *countingLED
}

func (h testHAL) LED() hal.LED { return h.led }

type recorder struct {
	mu      sync.Mutex
	resets  map[string]int
	ops     map[string]int
	sleeps  int
	renders int
}

func newRecorder() *recorder {
	return &recorder{resets: map[string]int{}, ops: map[string]int{}}
}

func (r *recorder) ObserveRender(string, time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders++
}

func (r *recorder) IncOperation(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op+"/"+outcome]++
}

func (r *recorder) IncReset(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets[source]++
}

func (r *recorder) IncSleep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps++
}

func (r *recorder) SetScreen(string) {}

type rig struct {
	dev    *Device
	panel  *hal.MemPanel
	button *hal.VirtualPin
	flash  *hal.MemFlash
	led    *countingLED
	rec    *recorder
}

func newRig(t *testing.T, open StoreOpener) *rig {
	t.Helper()
	h := hal.NewHost(hal.HostOptions{FlashPath: filepath.Join(t.TempDir(), "flash.img")})
	panel, ok := h.Panel().(*hal.MemPanel)
	require.True(t, ok)
	button, ok := h.GPIO().Pin(hal.PinWake).(*hal.VirtualPin)
	require.True(t, ok)

	r := &rig{panel: panel, button: button, flash: hal.NewMemFlash(16*1024, 4096), led: &countingLED{}, rec: newRecorder()}
	if open == nil {
		open = func() (prefs.Store, error) { return prefs.OpenFlash(r.flash, prefs.FlashOptions{}) }
	}
	r.dev = New(testHAL{HAL: h, led: r.led}, Config{
		Network:   netinfo.Config{APSSID: "Todo-Wrist"},
		Heartbeat: time.Millisecond,
	}, Options{OpenStore: open, Recorder: r.rec})
	return r
}

// do runs fn on another goroutine and steps the loop until it answers.
func (r *rig) do(t *testing.T, fn func(ctx context.Context) error) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- fn(ctx) }()
	for {
		select {
		case err := <-errc:
			return err
		default:
		}
		require.NoError(t, r.dev.Step(ctx))
		time.Sleep(100 * time.Microsecond)
	}
}

func (r *rig) view(t *testing.T) View {
	t.Helper()
	var v View
	require.NoError(t, r.do(t, func(ctx context.Context) error {
		var err error
		v, err = r.dev.GetView(ctx)
		return err
	}))
	return v
}

func rows(v View) []string {
	out := make([]string, tasks.Slots)
	for i, task := range v.Snapshot.Tasks {
		out[i] = render.RowLabel(i, task)
	}
	return out
}

func TestScenario(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.dev.Step(context.Background()))

	v := r.view(t)
	assert.Equal(t, mode.Onboarding, v.Screen)
	assert.Equal(t, netinfo.AccessPoint, v.Conn.Mode)
	assert.Equal(t, "192.168.4.1", v.Conn.Address)
	assert.Equal(t, 1, r.panel.Refreshes())

	require.NoError(t, r.do(t, func(ctx context.Context) error {
		return r.dev.SubmitTasks(ctx, [tasks.Slots]string{"Buy milk", "", "Call Bob", "", "Finish report"})
	}))
	v = r.view(t)
	assert.Equal(t, mode.TaskList, v.Screen)
	assert.Equal(t, []string{"1.[ ]Buy milk", "2.[ ]", "3.[ ]Call Bob", "4.[ ]", "5.[ ]Finish report"}, rows(v))

	require.NoError(t, r.do(t, func(ctx context.Context) error { return r.dev.ToggleCompletion(ctx, 2) }))
	v = r.view(t)
	assert.Equal(t, "3.[X]Call Bob", rows(v)[2])

	require.NoError(t, r.do(t, func(ctx context.Context) error { return r.dev.SetTask(ctx, 2, "Call Alice") }))
	v = r.view(t)
	assert.Equal(t, "3.[ ]Call Alice", rows(v)[2])
	assert.False(t, v.Snapshot.Tasks[2].Completed)

	require.NoError(t, r.do(t, func(ctx context.Context) error { return r.dev.RequestReset(ctx) }))
	v = r.view(t)
	assert.Equal(t, mode.Onboarding, v.Screen)
	assert.False(t, v.Snapshot.HasAnyTask())

	assert.Equal(t, 5, r.panel.Refreshes())
	assert.True(t, r.panel.Hibernated())
	assert.Equal(t, 1, r.rec.resets["request"])
	assert.Equal(t, 1, r.rec.ops["submit/ok"])
}

func TestTwoButtonEdgesResetOnce(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.do(t, func(ctx context.Context) error {
		return r.dev.SubmitTasks(ctx, [tasks.Slots]string{"a", "b"})
	}))
	before := r.panel.Refreshes()

	r.button.Press()
	r.button.Press()
	for i := 0; i < 3; i++ {
		require.NoError(t, r.dev.Step(context.Background()))
	}

	assert.Equal(t, before+1, r.panel.Refreshes())
	assert.Equal(t, 1, r.rec.resets["button"])
	assert.False(t, r.view(t).Snapshot.HasAnyTask())
}

func TestInvalidIndexChangesNothing(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.dev.Step(context.Background()))
	before := r.panel.Refreshes()

	err := r.do(t, func(ctx context.Context) error { return r.dev.ToggleCompletion(ctx, 7) })
	assert.Equal(t, KindInvalidIndex, Classify(err))
	assert.Equal(t, before, r.panel.Refreshes())

	// The loop keeps serving.
	assert.Equal(t, mode.Onboarding, r.view(t).Screen)
}

func TestUnrecognizedStyleRejected(t *testing.T) {
	r := newRig(t, nil)
	err := r.do(t, func(ctx context.Context) error {
		return r.dev.UpdateStyle(ctx, tasks.Style{Background: "purple", Foreground: tasks.ColorBlack})
	})
	assert.Equal(t, KindUnrecognizedStyleValue, Classify(err))
	assert.Equal(t, tasks.DefaultStyle, r.view(t).Snapshot.Style)

	require.NoError(t, r.do(t, func(ctx context.Context) error {
		return r.dev.UpdateStyle(ctx, tasks.Style{Background: tasks.ColorRed, Foreground: tasks.ColorWhite})
	}))
	assert.Equal(t, tasks.Style{Background: tasks.ColorRed, Foreground: tasks.ColorWhite}, r.view(t).Snapshot.Style)
}

func TestStorageUnavailableKeepsServing(t *testing.T) {
	r := newRig(t, func() (prefs.Store, error) { return nil, prefs.ErrUnavailable })

	err := r.do(t, func(ctx context.Context) error {
		return r.dev.SubmitTasks(ctx, [tasks.Slots]string{"Buy milk"})
	})
	assert.Equal(t, KindStorageUnavailable, Classify(err))

	v := r.view(t)
	assert.False(t, v.Snapshot.HasAnyTask())
	assert.Equal(t, mode.Onboarding, v.Screen)
}

func TestDisplayInitFailureKeepsState(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.dev.Step(context.Background()))
	r.panel.SetInitError(errors.New("no ack"))

	err := r.do(t, func(ctx context.Context) error {
		return r.dev.SubmitTasks(ctx, [tasks.Slots]string{"Buy milk"})
	})
	assert.Equal(t, KindDisplayInitFailure, Classify(err))

	v := r.view(t)
	assert.Equal(t, "Buy milk", v.Snapshot.Tasks[0].Text)
	assert.Equal(t, mode.Onboarding, v.Screen, "panel still shows the old screen")
	assert.Equal(t, 1, r.panel.Refreshes())
}

func TestPowerCycleReloadsFromStore(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.do(t, func(ctx context.Context) error {
		return r.dev.SubmitTasks(ctx, [tasks.Slots]string{"Buy milk", "Call Bob"})
	}))
	require.NoError(t, r.do(t, func(ctx context.Context) error { return r.dev.ToggleCompletion(ctx, 1) }))

	r.dev.Reboot(mode.BootPowerOn)
	v := r.view(t)
	assert.Equal(t, mode.TaskList, v.Screen)
	assert.Equal(t, []string{"1.[ ]Buy milk", "2.[X]Call Bob", "3.[ ]", "4.[ ]", "5.[ ]"}, rows(v))
}

func TestShowWelcome(t *testing.T) {
	r := newRig(t, nil)
	require.NoError(t, r.do(t, func(ctx context.Context) error { return r.dev.ShowWelcome(ctx) }))
	assert.Equal(t, mode.Welcome, r.view(t).Screen)
}

func TestSleepAndWake(t *testing.T) {
	r := newRig(t, nil)
	r.dev.cfg.SleepAckDelay = 200 * time.Millisecond
	require.NoError(t, r.do(t, func(ctx context.Context) error {
		return r.dev.SubmitTasks(ctx, [tasks.Slots]string{"Buy milk"})
	}))
	require.NoError(t, r.do(t, func(ctx context.Context) error { return r.dev.RequestSleep(ctx) }))
	time.Sleep(250 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- r.dev.Step(context.Background()) }()

	deadline := time.After(5 * time.Second)
loop:
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			break loop
		case <-deadline:
			t.Fatal("device did not wake")
		case <-time.After(5 * time.Millisecond):
			r.button.Press()
		}
	}

	assert.Equal(t, 1, r.rec.sleeps)
	assert.Empty(t, r.rec.resets, "the wake edge is not a reset")

	v := r.view(t)
	assert.Equal(t, mode.TaskList, v.Screen)
	assert.Equal(t, "Buy milk", v.Snapshot.Tasks[0].Text)
}

func TestRequestTimesOutWhenLoopIdle(t *testing.T) {
	r := newRig(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := r.dev.GetTasks(ctx)
	assert.Equal(t, KindBusy, Classify(err))
}

func TestHeartbeatToggles(t *testing.T) {
	r := newRig(t, nil)
	for i := 0; i < 4; i++ {
		require.NoError(t, r.dev.Step(context.Background()))
		time.Sleep(2 * time.Millisecond)
	}
	r.led.mu.Lock()
	defer r.led.mu.Unlock()
	assert.Equal(t, 2, r.led.highs)
	assert.Equal(t, 2, r.led.lows)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindOK},
		{tasks.ErrInvalidIndex, KindInvalidIndex},
		{prefs.ErrNoSpace, KindStorageUnavailable},
		{render.ErrDisplayInit, KindDisplayInitFailure},
		{tasks.ErrUnrecognizedColor, KindUnrecognizedStyleValue},
		{context.DeadlineExceeded, KindBusy},
		{errors.New("boom"), KindInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.err), "%v", tc.err)
	}
}
