// Package postgres implements the StreamPay store on PostgreSQL via Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/stream"
	paystore "github.com/xraph/streampay/store"
)

// compile-time interface check
var _ paystore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("streampay/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("streampay/postgres: migration failed: %w", err)
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
// value. The first allocated ID is 1. An ID burned by a failed insert is
// never handed out again.
func (s *Store) nextStreamID(ctx context.Context) (uint64, error) {
	var next int64
	err := s.pg.NewRaw(`
		UPDATE streampay_counters SET value = value + 1
		WHERE name = 'stream_id'
		RETURNING value
	`).Scan(ctx, &next)
	if err != nil {
		if isNoRows(err) {
			return 0, streampay.ErrStoreNotReady
		}
		return 0, err
	}
	return uint64(next), nil
}

func (s *Store) CreateStream(ctx context.Context, st *stream.Stream) error {
	streamID, err := s.nextStreamID(ctx)
	if err != nil {
		return err
	}
	st.ID = streamID

	m := toStreamModel(st)
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		return err
	}
	return nil
}

func (s *Store) GetStream(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	m := new(streamModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(streamID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, streampay.ErrStreamNotFound
		}
		return nil, err
	}
	return fromStreamModel(m)
}

func (s *Store) UpdateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return streampay.ErrStreamNotFound
	}
	return nil
}

func (s *Store) ListStreams(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	var models []streamModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if !opts.Payer.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("payer = $%d", argIdx), opts.Payer.String())
	}
	if !opts.Recipient.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("recipient = $%d", argIdx), opts.Recipient.String())
	}
	if opts.ActiveOnly {
		q = q.Where("current_balance > 0")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	query := `SELECT COUNT(*) FROM streampay_streams WHERE 1=1`
	args := make([]any, 0, 2)

	if !opts.Payer.IsNil() {
		args = append(args, opts.Payer.String())
		query += fmt.Sprintf(" AND payer = $%d", len(args))
	}
	if !opts.Recipient.IsNil() {
		args = append(args, opts.Recipient.String())
		query += fmt.Sprintf(" AND recipient = $%d", len(args))
	}
	if opts.ActiveOnly {
		query += " AND current_balance > 0"
	}

	var count int64
	if err := s.pg.NewRaw(query, args...).Scan(ctx, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
