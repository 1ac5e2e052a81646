package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

// streamModel is the relational shape of a stream. Balances are stored as
// BIGINT, capping SQL-backed amounts at 2^63-1 smallest units.
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
