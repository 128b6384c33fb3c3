// Package tasks holds the five task slots and the display style, mirrored
// from the preferences store.
//
// State is owned by the main loop. Every mutation writes the store first and
// updates the mirror only for writes that succeeded, so the two never
// disagree after a call returns.
package tasks

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"todowrist/firmware/logger"
	"todowrist/firmware/prefs"
)

const (
	// Slots is the fixed number of tasks.
	Slots = 5
	// MaxTextLen bounds task text, in characters.
	MaxTextLen = 15
)

// ErrInvalidIndex is returned for a slot outside 0..Slots-1.
var ErrInvalidIndex = errors.New("invalid task index")

// Task is one slot.
type Task struct {
	Text      string
	Completed bool
}

// Snapshot is a value copy of the state for rendering and serving.
type Snapshot struct {
	Tasks [Slots]Task
	Style Style
}

// HasAnyTask reports whether any slot has text.
func (s Snapshot) HasAnyTask() bool {
	for _, t := range s.Tasks {
		if t.Text != "" {
			return true
		}
	}
	return false
}

// State is the in-memory mirror of the stored tasks and style.
type State struct {
	store prefs.Store
	log   *slog.Logger

	tasks [Slots]Task
	style Style
}

// New returns an empty State backed by store. Call Load to populate it.
func New(store prefs.Store, log *slog.Logger) *State {
	if log == nil {
		log = logger.Discard()
	}
	return &State{store: store, log: log, style: DefaultStyle}
}

// Load replaces the mirror with the stored values. Missing keys read as
// empty text, not completed, white background and black text.
func (s *State) Load() {
	for i := range s.tasks {
		s.tasks[i] = loadSlot(s.store, i)
	}
	s.style = loadStyle(s.store)
	s.log.Debug("tasks loaded", slog.Bool("any", s.HasAnyTask()))
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{Tasks: s.tasks, Style: s.style}
}

func (s *State) Tasks() [Slots]Task { return s.tasks }
func (s *State) Style() Style       { return s.style }
func (s *State) HasAnyTask() bool   { return s.Snapshot().HasAnyTask() }

// Task returns slot i.
func (s *State) Task(i int) (Task, error) {
	if err := checkIndex(i); err != nil {
		return Task{}, err
	}
	return s.tasks[i], nil
}

func checkIndex(i int) error {
	if i < 0 || i >= Slots {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, i)
	}
	return nil
}

// ClampText cuts text to MaxTextLen characters.
func ClampText(text string) string {
	if utf8.RuneCountInString(text) <= MaxTextLen {
		return text
	}
	n := 0
	for i := range text {
		if n == MaxTextLen {
			return text[:i]
		}
		n++
	}
	return text
}

// SetTask stores text in slot i. Changing the text clears completion; the
// cleared flag is written before the text so a power cut in between never
// leaves new text marked done.
func (s *State) SetTask(i int, text string) error {
	if err := checkIndex(i); err != nil {
		return err
	}
	text = ClampText(text)
	k := slotKeys(i)

	if text != s.tasks[i].Text {
		if err := s.store.PutBool(NamespaceTasks, k.DoneKey, false); err != nil {
			return fmt.Errorf("set task %d: %w", i, err)
		}
		s.tasks[i].Completed = false
	}
	if err := s.store.PutString(NamespaceTasks, k.TextKey, text); err != nil {
		return fmt.Errorf("set task %d: %w", i, err)
	}
	s.tasks[i].Text = text
	s.log.Debug("task set", logger.Slot(i))
	return nil
}

// SubmitAll applies SetTask to every slot in order and stops at the first
// failure.
func (s *State) SubmitAll(texts [Slots]string) error {
	for i, t := range texts {
		if err := s.SetTask(i, t); err != nil {
			return err
		}
	}
	return nil
}

// ToggleCompletion flips the completion flag of slot i.
func (s *State) ToggleCompletion(i int) error {
	if err := checkIndex(i); err != nil {
		return err
	}
	next := !s.tasks[i].Completed
	if err := s.store.PutBool(NamespaceTasks, slotKeys(i).DoneKey, next); err != nil {
		return fmt.Errorf("toggle task %d: %w", i, err)
	}
	s.tasks[i].Completed = next
	s.log.Debug("task toggled", logger.Slot(i), slog.Bool("completed", next))
	return nil
}

// SetStyle stores both colors as given.
func (s *State) SetStyle(st Style) error {
	if err := s.store.PutString(NamespaceStyle, styleRecord.BackgroundKey, string(st.Background)); err != nil {
		return fmt.Errorf("set style: %w", err)
	}
	s.style.Background = st.Background
	if err := s.store.PutString(NamespaceStyle, styleRecord.ForegroundKey, string(st.Foreground)); err != nil {
		return fmt.Errorf("set style: %w", err)
	}
	s.style.Foreground = st.Foreground
	return nil
}

// ResetAll removes every slot's completion and text. Style is kept.
func (s *State) ResetAll() error {
	for i := range s.tasks {
		k := slotKeys(i)
		if err := s.store.Remove(NamespaceTasks, k.DoneKey); err != nil {
			return fmt.Errorf("reset task %d: %w", i, err)
		}
		s.tasks[i].Completed = false
		if err := s.store.Remove(NamespaceTasks, k.TextKey); err != nil {
			return fmt.Errorf("reset task %d: %w", i, err)
		}
		s.tasks[i].Text = ""
	}
	s.log.Info("tasks reset")
	return nil
}
