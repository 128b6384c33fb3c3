package prefs

import "sync"

type slot struct {
	ns, key string
}

type value struct {
	kind kind
	str  string
	b    bool
}

// Memory is a volatile Store. It backs tests and the "memory" backend.
type Memory struct {
	mu   sync.Mutex
	vals map[slot]value
	// Writes counts Put and Remove calls that reached the map.
	writes int
}

func NewMemory() *Memory {
	return &Memory{vals: make(map[slot]value)}
}

func (m *Memory) GetString(ns, key, def string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.vals[slot{ns, key}]; ok && v.kind == kindString {
		return v.str
	}
	return def
}

func (m *Memory) GetBool(ns, key string, def bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.vals[slot{ns, key}]; ok && v.kind == kindBool {
		return v.b
	}
	return def
}

func (m *Memory) PutString(ns, key, s string) error {
	return m.put(ns, key, value{kind: kindString, str: s})
}

func (m *Memory) PutBool(ns, key string, b bool) error {
	return m.put(ns, key, value{kind: kindBool, b: b})
}

func (m *Memory) put(ns, key string, v value) error {
	if err := validKey(ns, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[slot{ns, key}] = v
	m.writes++
	return nil
}

func (m *Memory) Remove(ns, key string) error {
	if err := validKey(ns, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, slot{ns, key})
	m.writes++
	return nil
}

// Has reports whether ns/key is present.
func (m *Memory) Has(ns, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.vals[slot{ns, key}]
	return ok
}

// Writes returns the number of successful mutations.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Close() error { return nil }
