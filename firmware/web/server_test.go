//go:build !tinygo

package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todowrist/firmware/device"
	"todowrist/firmware/mode"
	"todowrist/firmware/netinfo"
	"todowrist/firmware/prefs"
	"todowrist/firmware/render"
	"todowrist/firmware/tasks"
)

type fakeCore struct {
	view     device.View
	err      error
	submits  [][tasks.Slots]string
	toggles  []int
	styles   []tasks.Style
	resets   int
	sleeps   int
	welcomes int
}

func (f *fakeCore) GetView(context.Context) (device.View, error) { return f.view, f.err }

func (f *fakeCore) SubmitTasks(_ context.Context, texts [tasks.Slots]string) error {
	f.submits = append(f.submits, texts)
	return f.err
}

func (f *fakeCore) ToggleCompletion(_ context.Context, i int) error {
	if i < 0 || i >= tasks.Slots {
		return fmt.Errorf("%w: %d", tasks.ErrInvalidIndex, i)
	}
	f.toggles = append(f.toggles, i)
	return f.err
}

func (f *fakeCore) UpdateStyle(_ context.Context, st tasks.Style) error {
	f.styles = append(f.styles, st)
	return f.err
}

func (f *fakeCore) RequestReset(context.Context) error { f.resets++; return f.err }
func (f *fakeCore) RequestSleep(context.Context) error { f.sleeps++; return f.err }
func (f *fakeCore) ShowWelcome(context.Context) error  { f.welcomes++; return f.err }

func newTestServer(t *testing.T, core *fakeCore, opts Options) http.Handler {
	t.Helper()
	s, err := NewServer(core, opts)
	require.NoError(t, err)
	return s.Handler()
}

func post(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sampleView() device.View {
	var snap tasks.Snapshot
	snap.Tasks[0] = tasks.Task{Text: "Buy milk"}
	snap.Tasks[2] = tasks.Task{Text: "Call <Bob>", Completed: true}
	snap.Style = tasks.Style{Background: tasks.ColorBlack, Foreground: tasks.ColorRed}
	return device.View{
		Snapshot: snap,
		Conn:     netinfo.ConnectionInfo{Mode: netinfo.AccessPoint, Address: "192.168.4.1", SSID: "Todo-Wrist"},
		Screen:   mode.TaskList,
	}
}

func TestIndexShowsTasks(t *testing.T) {
	h := newTestServer(t, &fakeCore{view: sampleView()}, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="task0" value="Buy milk"`)
	assert.Contains(t, body, "Call &lt;Bob&gt;")
	assert.Contains(t, body, "(empty)")
	assert.Contains(t, body, `<option value="black" selected>`)
	assert.Contains(t, body, "SSID: Todo-Wrist")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestUnknownPathIs404(t *testing.T) {
	h := newTestServer(t, &fakeCore{view: sampleView()}, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmit(t *testing.T) {
	core := &fakeCore{}
	h := newTestServer(t, core, Options{})
	rec := post(h, "/submit", url.Values{"task0": {"Buy milk"}, "task2": {"Call Bob"}, "task4": {"Finish report"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, core.submits, 1)
	assert.Equal(t, [tasks.Slots]string{"Buy milk", "", "Call Bob", "", "Finish report"}, core.submits[0])
}

func TestToggle(t *testing.T) {
	core := &fakeCore{}
	h := newTestServer(t, core, Options{})

	assert.Equal(t, http.StatusOK, post(h, "/toggle", url.Values{"task": {"2"}}).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, "/toggle", url.Values{"task": {"9"}}).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, "/toggle", url.Values{"task": {"x"}}).Code)
	assert.Equal(t, []int{2}, core.toggles)
}

func TestStyleRejectsUnknownColor(t *testing.T) {
	core := &fakeCore{}
	h := newTestServer(t, core, Options{})

	assert.Equal(t, http.StatusBadRequest, post(h, "/style", url.Values{"bg": {"purple"}, "text": {"black"}}).Code)
	assert.Empty(t, core.styles)

	assert.Equal(t, http.StatusOK, post(h, "/style", url.Values{"bg": {"red"}, "text": {"white"}}).Code)
	assert.Equal(t, []tasks.Style{{Background: tasks.ColorRed, Foreground: tasks.ColorWhite}}, core.styles)
}

func TestSimpleRoutes(t *testing.T) {
	core := &fakeCore{}
	h := newTestServer(t, core, Options{})

	assert.Equal(t, http.StatusOK, post(h, "/reset", nil).Code)
	assert.Equal(t, http.StatusOK, post(h, "/sleep", nil).Code)
	assert.Equal(t, http.StatusOK, post(h, "/welcome", nil).Code)
	assert.Equal(t, 1, core.resets)
	assert.Equal(t, 1, core.sleeps)
	assert.Equal(t, 1, core.welcomes)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{prefs.ErrUnavailable, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{render.ErrDisplayInit, http.StatusOK},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := newTestServer(t, &fakeCore{err: tc.err}, Options{})
		assert.Equal(t, tc.want, post(h, "/reset", nil).Code, "%v", tc.err)
	}
}

func TestStateJSON(t *testing.T) {
	h := newTestServer(t, &fakeCore{view: sampleView()}, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got stateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Len(t, got.Tasks, tasks.Slots)
	assert.True(t, got.Tasks[2].Completed)
	assert.Equal(t, "192.168.4.1", got.Address)
	assert.Equal(t, "tasklist", got.Screen)
	assert.Equal(t, "black", got.Background)
}

func TestOptionalRoutes(t *testing.T) {
	pressed := 0
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("m")) })
	h := newTestServer(t, &fakeCore{}, Options{Metrics: metrics, Button: func() { pressed++ }})

	assert.Equal(t, http.StatusNoContent, post(h, "/sim/button", nil).Code)
	assert.Equal(t, 1, pressed)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "m", rec.Body.String())

	bare := newTestServer(t, &fakeCore{}, Options{})
	assert.Equal(t, http.StatusNotFound, post(bare, "/sim/button", nil).Code)
}
