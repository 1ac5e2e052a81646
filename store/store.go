// Package store defines the persistence interface for StreamPay.
package store

import (
	"context"

	"github.com/xraph/streampay/stream"
)

// Store is the storage interface for StreamPay streams.
//
// CreateStream allocates the stream's ID from a monotonic counter (first ID
// is 1, IDs are never reused) and inserts the record in one atomic step, so
// two concurrent creates can never share an ID. Drained streams are kept
// forever: there is no delete.
type Store interface {
	// CreateStream assigns s.ID from the store's counter and persists s.
	CreateStream(ctx context.Context, s *stream.Stream) error

	// GetStream returns the stream with the given ID, or ErrStreamNotFound.
	GetStream(ctx context.Context, streamID uint64) (*stream.Stream, error)

	// UpdateStream persists the mutable fields of an existing stream.
	UpdateStream(ctx context.Context, s *stream.Stream) error

	// ListStreams returns streams matching opts, ordered by ID ascending.
	ListStreams(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error)

	// CountStreams returns the number of streams matching opts.
	CountStreams(ctx context.Context, opts stream.ListOpts) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
