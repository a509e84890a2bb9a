package vos

import (
	"sort"
	"strings"
	"sync"
)

// NewMapEnv creates a new environment backed by a map.
func NewMapEnv() *MapEnv {
	return &MapEnv{}
}

// NewMapEnvFromEnvList creates an environment from KEY=value pairs. Entries
// without an "=" get an empty value, later duplicates win.
func NewMapEnvFromEnvList(environ []string) *MapEnv {
	out := &MapEnv{}

	for _, e := range environ {
		key, value, _ := strings.Cut(e, "=")
		if key == "" {
			continue
		}
		out.Setenv(key, value)
	}

	return out
}

// MapEnv is an in-memory environment safe for concurrent use.
type MapEnv struct {
	rw  sync.RWMutex
	env map[string]string
}

// Unsetenv removes a variable.
func (m *MapEnv) Unsetenv(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

// Setenv sets the value of the variable named by the key.
func (m *MapEnv) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// LookupEnv retrieves the value of the variable named by the key and whether
// it was set.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv is LookupEnv without the presence flag.
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// Environ returns a copy of the environment as KEY=value pairs sorted by key.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	env := make([]string, 0, len(m.env))
	for k, v := range m.env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// Keys returns the sorted variable names.
func (m *MapEnv) Keys() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	keys := make([]string, 0, len(m.env))
	for k := range m.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (m *MapEnv) Clone() *MapEnv {
	m.rw.RLock()
	defer m.rw.RUnlock()

	out := &MapEnv{env: make(map[string]string, len(m.env))}
	for k, v := range m.env {
		out.env[k] = v
	}
	return out
}
