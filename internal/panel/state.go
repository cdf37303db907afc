// Package panel holds the request/response feature panels: roadmap, courses
// and resume analysis. Each panel keeps its last result and allows one model
// request at a time.
package panel

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrBusy         = errors.New("panel: a request is already in progress")
	ErrMissingField = errors.New("panel: required field is empty")
)

// State is the loading/error/data triple behind a panel.
type State[T any] struct {
	mu      sync.Mutex
	loading bool
	err     string
	data    T
}

// Snapshot is a copy of a State.
type Snapshot[T any] struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Data    T      `json:"data"`
}

// Run executes fn unless another run is in flight. The lock is not held while
// fn runs. A non-nil error from fn stores failText and zero as the result.
func (s *State[T]) Run(ctx context.Context, zero T, failText string, fn func(context.Context) (T, error)) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	var (
		data T
		err  error
	)
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.loading = false
		if err != nil {
			s.err = failText
			s.data = zero
			return
		}
		s.data = data
	}()

	data, err = fn(ctx)
	return nil
}

// Snapshot copies the current state.
func (s *State[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot[T]{Loading: s.loading, Error: s.err, Data: s.data}
}
