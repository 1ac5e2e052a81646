// Package sqlite implements the StreamPay store on SQLite via Grove ORM.
// It suits embedded and single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/stream"
	paystore "github.com/xraph/streampay/store"
	"github.com/xraph/streampay/types"
)

// compile-time interface check
var _ paystore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("streampay/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("streampay/sqlite: migration failed: %w", err)
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

// streamModel is the relational shape of a stream. Balances are stored as
// INTEGER, capping SQLite-backed amounts at 2^63-1 smallest units.
type streamModel struct {
	grove.BaseModel `grove:"table:streampay_streams"`

	ID              int64     `grove:"id,pk"`
	Payer           string    `grove:"payer"`
	Recipient       string    `grove:"recipient"`
	OriginalBalance int64     `grove:"original_balance"`
	CurrentBalance  int64     `grove:"current_balance"`
	StartDate       int64     `grove:"start_date"`
	EndDate         int64     `grove:"end_date"`
	CreatedAt       time.Time `grove:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"`
}

func toStreamModel(s *stream.Stream) *streamModel {
	return &streamModel{
		ID:              int64(s.ID),
		Payer:           s.Payer.String(),
		Recipient:       s.Recipient.String(),
		OriginalBalance: int64(s.OriginalBalance),
		CurrentBalance:  int64(s.CurrentBalance),
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromStreamModel(m *streamModel) (*stream.Stream, error) {
	payer, err := id.ParseAccountID(m.Payer)
	if err != nil {
		return nil, err
	}
	recipient, err := id.ParseAccountID(m.Recipient)
	if err != nil {
		return nil, err
	}

	return &stream.Stream{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              uint64(m.ID),
		Payer:           payer,
		Recipient:       recipient,
		OriginalBalance: types.Amount(m.OriginalBalance),
		CurrentBalance:  types.Amount(m.CurrentBalance),
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
	}, nil
}

// nextStreamID atomically advances the stream counter and returns the new
// value. The first allocated ID is 1.
func (s *Store) nextStreamID(ctx context.Context) (uint64, error) {
	var next int64
	err := s.sdb.NewRaw(`
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
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return err
	}
	return nil
}

func (s *Store) GetStream(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	m := new(streamModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", int64(streamID)).
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
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
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
	q := s.sdb.NewSelect(&models)

	if !opts.Payer.IsNil() {
		q = q.Where("payer = ?", opts.Payer.String())
	}
	if !opts.Recipient.IsNil() {
		q = q.Where("recipient = ?", opts.Recipient.String())
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
	var conds []string
	var args []any

	if !opts.Payer.IsNil() {
		conds = append(conds, "payer = ?")
		args = append(args, opts.Payer.String())
	}
	if !opts.Recipient.IsNil() {
		conds = append(conds, "recipient = ?")
		args = append(args, opts.Recipient.String())
	}
	if opts.ActiveOnly {
		conds = append(conds, "current_balance > 0")
	}

	query := `SELECT COUNT(*) FROM streampay_streams`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var count int64
	if err := s.sdb.NewRaw(query, args...).Scan(ctx, &count); err != nil {
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
