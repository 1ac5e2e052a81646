// Package memory provides an in-memory StreamPay store for tests and
// single-process embedding. State does not survive the process.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/streampay"
	"github.com/xraph/streampay/stream"
)

type Store struct {
	mu sync.RWMutex

	streams map[uint64]*stream.Stream
	nextID  uint64

	closed bool
}

func New() *Store {
	return &Store{
		streams: make(map[uint64]*stream.Stream),
		nextID:  1,
	}
}

func (s *Store) CreateStream(_ context.Context, st *stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}

	st.ID = s.nextID
	s.nextID++
	s.streams[st.ID] = st.Clone()
	return nil
}

func (s *Store) GetStream(_ context.Context, streamID uint64) (*stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, streampay.ErrStoreClosed
	}

	if st, ok := s.streams[streamID]; ok {
		return st.Clone(), nil
	}
	return nil, streampay.ErrStreamNotFound
}

func (s *Store) UpdateStream(_ context.Context, st *stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}

	if _, exists := s.streams[st.ID]; !exists {
		return streampay.ErrStreamNotFound
	}
	s.streams[st.ID] = st.Clone()
	return nil
}

func (s *Store) ListStreams(_ context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, streampay.ErrStoreClosed
	}

	result := make([]*stream.Stream, 0)
	// IDs are dense starting at 1, so an ID scan yields ascending order.
	for streamID := uint64(1); streamID < s.nextID; streamID++ {
		st, ok := s.streams[streamID]
		if !ok || !matches(st, opts) {
			continue
		}
		result = append(result, st.Clone())
	}

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) CountStreams(_ context.Context, opts stream.ListOpts) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, streampay.ErrStoreClosed
	}

	var count int64
	for _, st := range s.streams {
		if matches(st, opts) {
			count++
		}
	}
	return count, nil
}

func matches(st *stream.Stream, opts stream.ListOpts) bool {
	if !opts.Payer.IsNil() && !st.Payer.Equal(opts.Payer) {
		return false
	}
	if !opts.Recipient.IsNil() && !st.Recipient.Equal(opts.Recipient) {
		return false
	}
	if opts.ActiveOnly && st.IsDrained() {
		return false
	}
	return true
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
