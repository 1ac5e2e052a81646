package mongo

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

// streamModel is the document shape of a stream. Balances are stored as
// int64, capping Mongo-backed amounts at 2^63-1 smallest units.
type streamModel struct {
	grove.BaseModel `grove:"table:streampay_streams"`

	ID              int64     `grove:"id,pk"            bson:"_id"`
	Payer           string    `grove:"payer"            bson:"payer"`
	Recipient       string    `grove:"recipient"        bson:"recipient"`
	OriginalBalance int64     `grove:"original_balance" bson:"original_balance"`
	CurrentBalance  int64     `grove:"current_balance"  bson:"current_balance"`
	StartDate       int64     `grove:"start_date"       bson:"start_date"`
	EndDate         int64     `grove:"end_date"         bson:"end_date"`
	CreatedAt       time.Time `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"       bson:"updated_at"`
}

// counterDoc backs the monotonic stream ID sequence.
type counterDoc struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
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
