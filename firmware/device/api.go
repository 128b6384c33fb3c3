package device

import (
	"context"
	"fmt"
	"time"

	"todowrist/firmware/metrics"
	"todowrist/firmware/mode"
	"todowrist/firmware/netinfo"
	"todowrist/firmware/tasks"
)

// View is everything a status page needs in one read.
type View struct {
	Snapshot tasks.Snapshot
	Conn     netinfo.ConnectionInfo
	Screen   mode.Kind
}

// call hands fn to the main loop and waits for its answer. fn runs on the
// loop goroutine, so it may touch loop-owned fields.
func (d *Device) call(ctx context.Context, op string, fn func() error) error {
	req := request{op: op, run: fn, done: make(chan error, 1)}
	select {
	case d.reqs <- req:
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

func (d *Device) GetTasks(ctx context.Context) ([tasks.Slots]tasks.Task, error) {
	var out [tasks.Slots]tasks.Task
	err := d.call(ctx, "get_tasks", func() error {
		out = d.state.Tasks()
		return nil
	})
	return out, err
}

func (d *Device) GetStyle(ctx context.Context) (tasks.Style, error) {
	var out tasks.Style
	err := d.call(ctx, "get_style", func() error {
		out = d.state.Style()
		return nil
	})
	return out, err
}

func (d *Device) GetConnectionInfo(ctx context.Context) (netinfo.ConnectionInfo, error) {
	var out netinfo.ConnectionInfo
	err := d.call(ctx, "get_connection", func() error {
		out = d.conn
		return nil
	})
	return out, err
}

// GetView returns tasks, style, connection and the screen shown.
func (d *Device) GetView(ctx context.Context) (View, error) {
	var out View
	err := d.call(ctx, "get_view", func() error {
		out = View{Snapshot: d.state.Snapshot(), Conn: d.conn, Screen: d.screen}
		return nil
	})
	return out, err
}

// SubmitTasks stores all five texts and re-renders.
func (d *Device) SubmitTasks(ctx context.Context, texts [tasks.Slots]string) error {
	return d.call(ctx, "submit", func() error {
		return d.refresh(d.state.SubmitAll(texts))
	})
}

// SetTask stores one slot and re-renders.
func (d *Device) SetTask(ctx context.Context, i int, text string) error {
	return d.call(ctx, "set_task", func() error {
		return d.refresh(d.state.SetTask(i, text))
	})
}

func (d *Device) ToggleCompletion(ctx context.Context, i int) error {
	return d.call(ctx, "toggle", func() error {
		return d.refresh(d.state.ToggleCompletion(i))
	})
}

// UpdateStyle stores st and re-renders. Colors outside the palette are
// rejected without touching the store.
func (d *Device) UpdateStyle(ctx context.Context, st tasks.Style) error {
	return d.call(ctx, "style", func() error {
		if !st.Background.Known() || !st.Foreground.Known() {
			return fmt.Errorf("style %q/%q: %w", st.Background, st.Foreground, tasks.ErrUnrecognizedColor)
		}
		return d.refresh(d.state.SetStyle(st))
	})
}

// RequestReset clears every task, exactly as the button does.
func (d *Device) RequestReset(ctx context.Context) error {
	return d.call(ctx, "reset", func() error {
		return d.reset(metrics.ResetRequest)
	})
}

// RequestSleep answers at once; the loop suspends after SleepAckDelay.
func (d *Device) RequestSleep(ctx context.Context) error {
	return d.call(ctx, "sleep", func() error {
		d.sleepAt = time.Now().Add(d.cfg.SleepAckDelay)
		d.log.Info("sleep requested")
		return nil
	})
}

// ShowWelcome renders the plain-text welcome screen.
func (d *Device) ShowWelcome(ctx context.Context) error {
	return d.call(ctx, "welcome", func() error {
		return d.show(mode.WelcomeFor(d.conn))
	})
}
