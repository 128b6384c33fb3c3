//go:build !tinygo

// Package web is the setup page served by the simulator. It parses form
// arguments and hands them, validated, to the device core.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"todowrist/firmware/device"
	"todowrist/firmware/logger"
	"todowrist/firmware/tasks"
)

const requestTimeout = 5 * time.Second

// Core is the part of the device the pages use.
type Core interface {
	GetView(ctx context.Context) (device.View, error)
	SubmitTasks(ctx context.Context, texts [tasks.Slots]string) error
	ToggleCompletion(ctx context.Context, i int) error
	UpdateStyle(ctx context.Context, st tasks.Style) error
	RequestReset(ctx context.Context) error
	RequestSleep(ctx context.Context) error
	ShowWelcome(ctx context.Context) error
}

type Options struct {
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Button simulates a press of the wake button at POST /sim/button.
	Button func()
	Logger *slog.Logger
}

type Server struct {
	core  Core
	opts  Options
	log   *slog.Logger
	index *template.Template
	note  *template.Template
}

func NewServer(core Core, opts Options) (*Server, error) {
	if core == nil {
		return nil, errors.New("web: missing core")
	}
	index, err := template.New("index").Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).Parse(indexHTML)
	if err != nil {
		return nil, err
	}
	note, err := template.New("note").Parse(noteHTML)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{core: core, opts: opts, log: log, index: index, note: note}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /submit", s.handleSubmit)
	mux.HandleFunc("POST /toggle", s.handleToggle)
	mux.HandleFunc("POST /style", s.handleStyle)
	mux.HandleFunc("POST /reset", s.simple("Tasks reset!", s.core.RequestReset))
	mux.HandleFunc("POST /sleep", s.simple("Going to sleep...", s.core.RequestSleep))
	mux.HandleFunc("POST /welcome", s.simple("Welcome screen shown", s.core.ShowWelcome))
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}
	if s.opts.Button != nil {
		mux.HandleFunc("POST /sim/button", func(w http.ResponseWriter, r *http.Request) {
			s.opts.Button()
			w.WriteHeader(http.StatusNoContent)
		})
	}
	return withSecurityHeaders(mux)
}

type indexTask struct {
	Index     int
	Text      string
	Completed bool
}

type indexModel struct {
	Tasks      []indexTask
	Background string
	Foreground string
	Colors     []string
	Network    string
	URL        string
	Screen     string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	v, err := s.core.GetView(ctx)
	if err != nil {
		s.fail(w, "load", err)
		return
	}

	m := indexModel{
		Background: string(v.Snapshot.Style.Background),
		Foreground: string(v.Snapshot.Style.Foreground),
		Colors:     []string{string(tasks.ColorWhite), string(tasks.ColorBlack), string(tasks.ColorRed)},
		Network:    v.Conn.Description(),
		URL:        v.Conn.URL(),
		Screen:     v.Screen.String(),
	}
	for i, t := range v.Snapshot.Tasks {
		m.Tasks = append(m.Tasks, indexTask{Index: i, Text: t.Text, Completed: t.Completed})
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = s.index.Execute(w, m)
}

type stateTask struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type stateResponse struct {
	Tasks      []stateTask `json:"tasks"`
	Background string      `json:"background"`
	Foreground string      `json:"foreground"`
	Mode       string      `json:"network_mode"`
	Address    string      `json:"address"`
	Screen     string      `json:"screen"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	v, err := s.core.GetView(ctx)
	if err != nil {
		s.fail(w, "state", err)
		return
	}
	resp := stateResponse{
		Background: string(v.Snapshot.Style.Background),
		Foreground: string(v.Snapshot.Style.Foreground),
		Mode:       v.Conn.Mode.String(),
		Address:    v.Conn.Address,
		Screen:     v.Screen.String(),
	}
	for _, t := range v.Snapshot.Tasks {
		resp.Tasks = append(resp.Tasks, stateTask{Text: t.Text, Completed: t.Completed})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var texts [tasks.Slots]string
	for i := range texts {
		texts[i] = r.PostFormValue("task" + strconv.Itoa(i))
	}
	s.run(w, r, "submit", "Tasks updated!", func(ctx context.Context) error {
		return s.core.SubmitTasks(ctx, texts)
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.PostFormValue("task"))
	if err != nil {
		s.fail(w, "toggle", tasks.ErrInvalidIndex)
		return
	}
	s.run(w, r, "toggle", "Task toggled!", func(ctx context.Context) error {
		return s.core.ToggleCompletion(ctx, i)
	})
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	bg, errBG := tasks.ParseColor(r.PostFormValue("bg"))
	fg, errFG := tasks.ParseColor(r.PostFormValue("text"))
	if err := errors.Join(errBG, errFG); err != nil {
		s.fail(w, "style", err)
		return
	}
	s.run(w, r, "style", "Style updated!", func(ctx context.Context) error {
		return s.core.UpdateStyle(ctx, tasks.Style{Background: bg, Foreground: fg})
	})
}

func (s *Server) simple(title string, fn func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.run(w, r, r.URL.Path, title, fn)
	}
}

func (s *Server) run(w http.ResponseWriter, r *http.Request, op, title string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	err := fn(ctx)
	if err != nil && device.Classify(err) != device.KindDisplayInitFailure {
		s.fail(w, op, err)
		return
	}
	if err != nil {
		// Stored, but the panel did not answer.
		s.log.Warn("display not updated", slog.String("op", op), logger.Err(err))
	}
	s.notice(w, http.StatusOK, title, "Redirecting back to the task page...")
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	kind := device.Classify(err)
	status := http.StatusInternalServerError
	switch kind {
	case device.KindInvalidIndex, device.KindUnrecognizedStyleValue:
		status = http.StatusBadRequest
	case device.KindStorageUnavailable, device.KindBusy:
		status = http.StatusServiceUnavailable
	}
	s.log.Warn("request rejected", slog.String("op", op), slog.String("kind", kind.String()), logger.Err(err))
	s.notice(w, status, "Request failed", kind.String())
}

func (s *Server) notice(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = s.note.Execute(w, struct{ Title, Body string }{title, body})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
