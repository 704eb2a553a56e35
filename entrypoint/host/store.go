package host

import (
	"bytes"
	"sort"
	"strings"
)

// memStore is the in memory wasm.Storage of a single contract
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(key []byte) ([]byte, bool) {
	v, ok := s.data[string(key)]
	if !ok {
		return nil, false
	}
	return bytes.Clone(v), true
}

func (s *memStore) Set(key, value []byte) {
	s.data[string(key)] = bytes.Clone(value)
}

func (s *memStore) Delete(key []byte) {
	delete(s.data, string(key))
}

func (s *memStore) Range(prefix []byte, fn func(key, value []byte) bool) {
	p := string(prefix)
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), bytes.Clone(s.data[k])) {
			return
		}
	}
}

func (s *memStore) clone() *memStore {
	out := newMemStore()
	for k, v := range s.data {
		out.data[k] = v
	}
	return out
}
