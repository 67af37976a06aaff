package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"

	"signal_scanner/internal/models"
	"signal_scanner/internal/modules/journal/service/sql"
	"signal_scanner/pkg/db"
)

// Journal stores every reported pass and its signals. Nothing reads them back at scan time.
type Journal struct {
	db  db.TxManager
	sql *sql.Queries
}

func NewJournal(tx db.TxManager) *Journal {
	return &Journal{db: tx, sql: sql.New()}
}

// Migrate creates the journal tables when missing.
func (j *Journal) Migrate(ctx context.Context) error {
	return j.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		return j.sql.CreateSchema(ctxTx, tx)
	})
}

// Record writes the pass row and one row per listed signal in a single transaction.
func (j *Journal) Record(ctx context.Context, r *models.ScanReport) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("journal.Record %s: %w", r.PassID, err)
		}
	}()

	skipped, err := sonic.Marshal(skipCounts(r.Skipped))
	if err != nil {
		return err
	}
	signals := r.All()
	rows := make([]*sql.InsertSignalParams, 0, len(signals))
	rank := map[models.Category]int{}
	for _, s := range signals {
		evidence, err := sonic.Marshal(evidenceMap(s.Evidence))
		if err != nil {
			return err
		}
		rank[s.Category]++
		rows = append(rows, &sql.InsertSignalParams{
			PassID:   r.PassID,
			InstID:   s.InstID,
			Category: string(s.Category),
			Score:    s.Score,
			Evidence: evidence,
			Rank:     rank[s.Category],
		})
	}

	return j.db.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		err := j.sql.InsertPass(ctxTx, tx, &sql.InsertPassParams{
			PassID:      r.PassID,
			Profile:     r.Profile,
			StartedAt:   r.StartedAt,
			DurationMs:  r.Duration.Milliseconds(),
			Scanned:     r.Scanned,
			Evaluated:   r.Evaluated,
			Failed:      r.Failed,
			Skipped:     skipped,
			Partial:     r.Partial,
			MarketState: string(r.Market.State),
		})
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := j.sql.InsertSignal(ctxTx, tx, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func skipCounts(m map[models.SkipReason]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func evidenceMap(e models.Evidence) map[string]float64 {
	out := make(map[string]float64, len(e))
	for _, m := range e {
		out[m.Name] = m.Value
	}
	return out
}
