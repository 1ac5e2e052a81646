// Package mongo implements the StreamPay store on MongoDB via Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/stream"
	paystore "github.com/xraph/streampay/store"
)

// Collection name constants.
const (
	colStreams  = "streampay_streams"
	colCounters = "streampay_counters"
)

// compile-time interface check
var _ paystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the stream collection.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "payer", Value: 1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}}},
		{Keys: bson.D{{Key: "current_balance", Value: 1}}},
	}

	if _, err := s.mdb.Collection(colStreams).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("streampay/mongo: migrate %s indexes: %w", colStreams, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// nextStreamID atomically advances the stream counter and returns the new
// value. The counter document is created on first use, so the first ID is 1.
func (s *Store) nextStreamID(ctx context.Context) (uint64, error) {
	var doc counterDoc
	err := s.mdb.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": "stream_id"},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("streampay/mongo: next stream id: %w", err)
	}
	return uint64(doc.Value), nil
}

func (s *Store) CreateStream(ctx context.Context, st *stream.Stream) error {
	streamID, err := s.nextStreamID(ctx)
	if err != nil {
		return err
	}
	st.ID = streamID

	m := toStreamModel(st)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("streampay/mongo: create stream: %w", err)
	}
	return nil
}

func (s *Store) GetStream(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	var m streamModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(streamID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, streampay.ErrStreamNotFound
		}
		return nil, fmt.Errorf("streampay/mongo: get stream: %w", err)
	}
	return fromStreamModel(&m)
}

func (s *Store) UpdateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"current_balance": m.CurrentBalance,
			"updated_at":      m.UpdatedAt,
		}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streampay/mongo: update stream: %w", err)
	}
	if res.MatchedCount() == 0 {
		return streampay.ErrStreamNotFound
	}
	return nil
}

func (s *Store) ListStreams(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	var models []streamModel

	q := s.mdb.NewFind(&models).
		Filter(listFilter(opts)).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("streampay/mongo: list streams: %w", err)
	}

	result := make([]*stream.Stream, len(models))
	for i := range models {
		st, err := fromStreamModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

func (s *Store) CountStreams(ctx context.Context, opts stream.ListOpts) (int64, error) {
	count, err := s.mdb.Collection(colStreams).CountDocuments(ctx, listFilter(opts))
	if err != nil {
		return 0, fmt.Errorf("streampay/mongo: count streams: %w", err)
	}
	return count, nil
}

func listFilter(opts stream.ListOpts) bson.M {
	filter := bson.M{}
	if !opts.Payer.IsNil() {
		filter["payer"] = opts.Payer.String()
	}
	if !opts.Recipient.IsNil() {
		filter["recipient"] = opts.Recipient.String()
	}
	if opts.ActiveOnly {
		filter["current_balance"] = bson.M{"$gt": 0}
	}
	return filter
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks for the mongo no-documents sentinel.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
