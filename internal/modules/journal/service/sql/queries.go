package sql

import (
	"context"
	_ "embed"
	"time"

	"signal_scanner/pkg/db"
)

//go:embed schema.sql
var Schema string

const insertPass = `INSERT INTO scan_passes
    (pass_id, profile, started_at, duration_ms, scanned, evaluated, failed, skipped, partial, market_state)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const insertSignal = `INSERT INTO scan_signals
    (pass_id, inst_id, category, score, evidence, rank)
VALUES ($1, $2, $3, $4, $5, $6)`

type Queries struct{}

func New() *Queries { return &Queries{} }

type InsertPassParams struct {
	PassID      string
	Profile     string
	StartedAt   time.Time
	DurationMs  int64
	Scanned     int
	Evaluated   int
	Failed      int
	Skipped     []byte
	Partial     bool
	MarketState string
}

func (q *Queries) InsertPass(ctx context.Context, tx db.Transaction, arg *InsertPassParams) error {
	_, err := tx.Exec(ctx, insertPass,
		arg.PassID,
		arg.Profile,
		arg.StartedAt,
		arg.DurationMs,
		arg.Scanned,
		arg.Evaluated,
		arg.Failed,
		arg.Skipped,
		arg.Partial,
		arg.MarketState,
	)
	return err
}

type InsertSignalParams struct {
	PassID   string
	InstID   string
	Category string
	Score    int
	Evidence []byte
	Rank     int
}

func (q *Queries) InsertSignal(ctx context.Context, tx db.Transaction, arg *InsertSignalParams) error {
	_, err := tx.Exec(ctx, insertSignal,
		arg.PassID,
		arg.InstID,
		arg.Category,
		arg.Score,
		arg.Evidence,
		arg.Rank,
	)
	return err
}

func (q *Queries) CreateSchema(ctx context.Context, tx db.Transaction) error {
	_, err := tx.Exec(ctx, Schema)
	return err
}
