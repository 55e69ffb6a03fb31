package internal

import "sync"

// SafeMap is a concurrent set of keys.
type SafeMap struct {
	mu sync.Mutex
	v  map[string]struct{}
}

func NewSafeMap() *SafeMap {
	return &SafeMap{v: make(map[string]struct{})}
}

// Seen marks key and reports whether it had been marked before.
func (s *SafeMap) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.v[key]; ok {
		return true
	}
	s.v[key] = struct{}{}
	return false
}

func (s *SafeMap) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.v)
}
