package prefs

import (
	"errors"
	"testing"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	if got := s.GetString("tasks", "task0", "def"); got != "def" {
		t.Fatalf("missing key = %q, want default", got)
	}
	if err := s.PutString("tasks", "task0", "Call Bob"); err != nil {
		t.Fatalf("PutString: %v", err)
	}
	if err := s.PutBool("tasks", "done0", true); err != nil {
		t.Fatalf("PutBool: %v", err)
	}
	if got := s.GetString("tasks", "task0", ""); got != "Call Bob" {
		t.Fatalf("task0 = %q", got)
	}
	if !s.GetBool("tasks", "done0", false) {
		t.Fatalf("done0 = false, want true")
	}
	// Same key in another namespace is independent.
	if got := s.GetString("style", "task0", "none"); got != "none" {
		t.Fatalf("style/task0 = %q, want default", got)
	}
	if err := s.Remove("tasks", "done0"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.GetBool("tasks", "done0", false) {
		t.Fatalf("done0 survived Remove")
	}
	if err := s.PutString("", "k", "v"); err == nil {
		t.Fatalf("empty namespace accepted")
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)
	if m.Writes() != 3 {
		t.Fatalf("Writes = %d, want 3", m.Writes())
	}
}

func TestUnavailableStore(t *testing.T) {
	cause := errors.New("flash gone")
	s := Unavailable(cause)
	if got := s.GetString("style", "bg", "white"); got != "white" {
		t.Fatalf("GetString = %q, want default", got)
	}
	err := s.PutBool("tasks", "done1", true)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("PutBool err = %v, want ErrUnavailable", err)
	}
	if err := s.Remove("tasks", "task1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Remove err = %v, want ErrUnavailable", err)
	}
}
