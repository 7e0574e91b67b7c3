// Package env resolves the variables the deploy configuration is built from.
//
// Values come from three places, highest priority first: the process
// environment, dotenv-flow files (.env, .env.local, .env.<NODE_ENV>, ...)
// and, when enabled, the OS keychain.
package env

import (
	"os"
	"sort"
)

// Source looks up a single variable by name.
type Source interface {
	Lookup(key string) (string, bool)
}

// Map is an in-memory Source. Loaded dotenv files are returned as a Map.
type Map map[string]string

// Lookup implements Source.
func (m Map) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys returns the variable names in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type osSource struct{}

func (osSource) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

// OS returns a Source backed by the process environment.
func OS() Source { return osSource{} }

type chain []Source

// Chain returns a Source that asks each source in order and returns the
// first hit. Nil sources are skipped.
func Chain(sources ...Source) Source {
	c := make(chain, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			c = append(c, s)
		}
	}
	return c
}

func (c chain) Lookup(key string) (string, bool) {
	for _, s := range c {
		if v, ok := s.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// Get returns the value of key, or "" when no source has it.
func Get(src Source, key string) string {
	v, _ := src.Lookup(key)
	return v
}
