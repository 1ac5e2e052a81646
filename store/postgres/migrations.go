package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the StreamPay store.
var Migrations = migrate.NewGroup("streampay")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_streampay_streams",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS streampay_streams (
    id               BIGINT PRIMARY KEY,
    payer            TEXT NOT NULL DEFAULT '',
    recipient        TEXT NOT NULL DEFAULT '',
    original_balance BIGINT NOT NULL DEFAULT 0,
    current_balance  BIGINT NOT NULL DEFAULT 0,
    start_date       BIGINT NOT NULL DEFAULT 0,
    end_date         BIGINT NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_streampay_streams_payer ON streampay_streams (payer);
CREATE INDEX IF NOT EXISTS idx_streampay_streams_recipient ON streampay_streams (recipient);
CREATE INDEX IF NOT EXISTS idx_streampay_streams_active ON streampay_streams (current_balance) WHERE current_balance > 0;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS streampay_streams`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_streampay_counters",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS streampay_counters (
    name  TEXT PRIMARY KEY,
    value BIGINT NOT NULL DEFAULT 0
);

INSERT INTO streampay_counters (name, value)
VALUES ('stream_id', 0)
ON CONFLICT (name) DO NOTHING;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS streampay_counters`)
				return err
			},
		},
	)
}
