// Package bolt implements the StreamPay store on BoltDB.
//
// BoltDB is an embedded key/value store keeping all data in a single file,
// so no external database process is required. Streams are stored as JSON
// documents keyed by their big-endian ID, which preserves ID order under
// Bolt's byte-sorted cursors. Stream IDs come from the bucket's sequence,
// so the first stream is 1 and IDs are never reused.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/stream"
	paystore "github.com/xraph/streampay/store"
)

const bucketStreams = "streampay_streams"

// compile-time interface check
var _ paystore.Store = (*Store)(nil)

// Store wraps a BoltDB database and persists streams.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) a BoltDB database at the given path and ensures the
// stream bucket exists.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketStreams))
		return err
	})
	if err != nil {
		db.Close() //nolint:errcheck // open failed, nothing to report beyond err
		return nil, err
	}

	return &Store{db: db}, nil
}

// DB returns the underlying bolt database for direct access.
func (s *Store) DB() *bolt.DB { return s.db }

func streamKey(streamID uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, streamID)
	return key
}

func (s *Store) CreateStream(_ context.Context, st *stream.Stream) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketStreams))

		// NextSequence starts at 1 and only moves forward, even across
		// deletes and restarts.
		streamID, err := b.NextSequence()
		if err != nil {
			return err
		}
		st.ID = streamID

		data, err := json.Marshal(st)
		if err != nil {
			return err
		}
		return b.Put(streamKey(st.ID), data)
	})
}

func (s *Store) GetStream(_ context.Context, streamID uint64) (*stream.Stream, error) {
	var st stream.Stream

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketStreams))
		v := b.Get(streamKey(streamID))
		if v == nil {
			return streampay.ErrStreamNotFound
		}
		return json.Unmarshal(v, &st)
	})
	if err != nil {
		return nil, err
	}

	return &st, nil
}

func (s *Store) UpdateStream(_ context.Context, st *stream.Stream) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketStreams))

		if b.Get(streamKey(st.ID)) == nil {
			return streampay.ErrStreamNotFound
		}

		data, err := json.Marshal(st)
		if err != nil {
			return err
		}
		return b.Put(streamKey(st.ID), data)
	})
}

func (s *Store) ListStreams(_ context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	result := make([]*stream.Stream, 0)
	skipped := 0

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketStreams))

		// Keys are big-endian IDs, so a forward scan is ID order.
		return b.ForEach(func(_, v []byte) error {
			var st stream.Stream
			if err := json.Unmarshal(v, &st); err != nil {
				return err
			}
			if !matches(&st, opts) {
				return nil
			}
			if skipped < opts.Offset {
				skipped++
				return nil
			}
			if opts.Limit > 0 && len(result) >= opts.Limit {
				return nil
			}
			result = append(result, &st)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Store) CountStreams(_ context.Context, opts stream.ListOpts) (int64, error) {
	var count int64

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketStreams))
		return b.ForEach(func(_, v []byte) error {
			var st stream.Stream
			if err := json.Unmarshal(v, &st); err != nil {
				return err
			}
			if matches(&st, opts) {
				count++
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
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
	return nil // bucket is created on open
}

func (s *Store) Ping(_ context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(bucketStreams)) == nil {
			return streampay.ErrStoreNotReady
		}
		return nil
	})
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}
