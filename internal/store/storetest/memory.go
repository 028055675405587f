// Package storetest provides in-memory collections for tests of packages built on the local store.
package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/edy93762/gesto-de-epi-sub000/internal/store"
)

// Memory is an in-memory store.Collection. Setting GetErr or ReplaceErr makes
// the corresponding operation fail without touching the content.
//
// OnUpdate runs inside Update after the rows are read and before they are
// changed, while the collection is locked. Tests use it to hold a writer
// in the middle of its read-modify-write.
type Memory[T any] struct {
	mu         sync.Mutex
	rows       []T
	GetErr     error
	ReplaceErr error
	Replaces   int
	OnUpdate   func()
}

func NewMemory[T any](rows ...T) *Memory[T] {
	return &Memory[T]{rows: append([]T(nil), rows...)}
}

func (m *Memory[T]) GetAll(_ context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return append([]T(nil), m.rows...), nil
}

func (m *Memory[T]) ReplaceAll(_ context.Context, rows []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.rows = append([]T(nil), rows...)
	m.Replaces++
	return nil
}

func (m *Memory[T]) Update(_ context.Context, change func(rows []T) ([]T, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return m.GetErr
	}

	rows := append([]T(nil), m.rows...)
	if m.OnUpdate != nil {
		m.OnUpdate()
	}
	rows, err := change(rows)
	if errors.Is(err, store.ErrUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.rows = append([]T(nil), rows...)
	m.Replaces++
	return nil
}

// Rows returns the current content without going through GetErr.
func (m *Memory[T]) Rows() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T(nil), m.rows...)
}
