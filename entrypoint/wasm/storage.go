package wasm

import (
	"encoding/json"
	"fmt"
)

// Item stores a single json encoded value under a fixed key
type Item[T any] struct {
	key []byte
}

func NewItem[T any](key string) Item[T] {
	return Item[T]{key: []byte(key)}
}

func (i Item[T]) Save(store Storage, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", i.key, err)
	}
	store.Set(i.key, raw)
	return nil
}

func (i Item[T]) Load(store Storage) (T, error) {
	var out T
	raw, ok := store.Get(i.key)
	if !ok {
		return out, fmt.Errorf("%s: %w", i.key, ErrNotFound)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s: %w", i.key, err)
	}
	return out, nil
}

// Map stores json encoded values under namespace/key
type Map[T any] struct {
	namespace string
}

func NewMap[T any](namespace string) Map[T] {
	return Map[T]{namespace: namespace}
}

func (m Map[T]) prefix() []byte {
	return []byte(m.namespace + "/")
}

func (m Map[T]) storageKey(key string) []byte {
	return append(m.prefix(), key...)
}

func (m Map[T]) Save(store Storage, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", m.namespace, key, err)
	}
	store.Set(m.storageKey(key), raw)
	return nil
}

func (m Map[T]) Load(store Storage, key string) (T, error) {
	var out T
	raw, ok := store.Get(m.storageKey(key))
	if !ok {
		return out, fmt.Errorf("%s/%s: %w", m.namespace, key, ErrNotFound)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode %s/%s: %w", m.namespace, key, err)
	}
	return out, nil
}

func (m Map[T]) Has(store Storage, key string) bool {
	_, ok := store.Get(m.storageKey(key))
	return ok
}

func (m Map[T]) Remove(store Storage, key string) {
	store.Delete(m.storageKey(key))
}

// Keys lists every key of the map in ascending order
func (m Map[T]) Keys(store Storage) []string {
	prefix := m.prefix()
	var keys []string
	store.Range(prefix, func(key, _ []byte) bool {
		keys = append(keys, string(key[len(prefix):]))
		return true
	})
	return keys
}
