package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"PriceSentinel/internal/model"
)

const snapshotColumns = `id, product_id, taken_at,
	min_price, max_price, mean_price, median_price, p25, p75, p90, std_dev, sample_count, outliers,
	rec_strategy, rec_price, rec_basis, rec_confidence, rec_sale_speed`

// sqlRecorder implements Recorder over database/sql. Dialects differ only in
// placeholder syntax and schema types.
type sqlRecorder struct {
	db          *sql.DB
	mu          sync.Mutex
	placeholder func(n int) string
}

func (r *sqlRecorder) bind(query string) string {
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString(r.placeholder(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (r *sqlRecorder) migrate(ctx context.Context, stmts []string) error {
	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			head := s
			if len(head) > 40 {
				head = head[:40]
			}
			return errors.Wrapf(err, "exec %q", head)
		}
	}
	return nil
}

func (r *sqlRecorder) RecordSnapshot(ctx context.Context, snap *model.Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var st model.PriceStatistics
	if snap.Stats != nil {
		st = *snap.Stats
	}
	var (
		strategy, basis, confidence, speed sql.NullString
		price                              sql.NullFloat64
	)
	if rec := snap.Recommendation; rec != nil {
		strategy = sql.NullString{String: string(rec.Strategy), Valid: true}
		basis = sql.NullString{String: rec.Basis, Valid: true}
		confidence = sql.NullString{String: string(rec.Confidence), Valid: true}
		speed = sql.NullString{String: string(rec.SaleSpeed), Valid: true}
		price = sql.NullFloat64{Float64: rec.Price, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, r.bind(`INSERT INTO price_snapshots (`+snapshotColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		snap.ID, snap.ProductID, snap.TakenAt.UnixMilli(),
		st.Min, st.Max, st.Mean, st.Median, st.P25, st.P75, st.P90, st.StdDev, st.Count, st.Outliers,
		strategy, price, basis, confidence, speed,
	)
	return errors.Wrap(err, "insert snapshot")
}

func (r *sqlRecorder) Latest(ctx context.Context, productID string) (*model.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, r.bind(`SELECT `+snapshotColumns+`
		FROM price_snapshots WHERE product_id = ? ORDER BY taken_at DESC LIMIT 1`), productID)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query latest snapshot")
	}
	return snap, nil
}

func (r *sqlRecorder) History(ctx context.Context, productID string, limit int) ([]model.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM price_snapshots WHERE product_id = ? ORDER BY taken_at DESC`
	args := []any{productID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, r.bind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan snapshot")
		}
		snaps = append(snaps, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate history")
	}

	// newest first from the query, oldest first for callers
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return snaps, nil
}

func (r *sqlRecorder) Prune(ctx context.Context, before time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, r.bind(`DELETE FROM price_snapshots WHERE taken_at < ?`), before.UnixMilli())
	if err != nil {
		return 0, errors.Wrap(err, "prune snapshots")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*model.Snapshot, error) {
	var (
		snap                               model.Snapshot
		st                                 model.PriceStatistics
		takenAt                            int64
		strategy, basis, confidence, speed sql.NullString
		price                              sql.NullFloat64
	)
	if err := row.Scan(&snap.ID, &snap.ProductID, &takenAt,
		&st.Min, &st.Max, &st.Mean, &st.Median, &st.P25, &st.P75, &st.P90, &st.StdDev, &st.Count, &st.Outliers,
		&strategy, &price, &basis, &confidence, &speed,
	); err != nil {
		return nil, err
	}

	snap.TakenAt = time.UnixMilli(takenAt).UTC()
	if st.Count > 0 {
		snap.Stats = &st
	}
	if strategy.Valid {
		snap.Recommendation = &model.Recommendation{
			Price:      price.Float64,
			Strategy:   model.Strategy(strategy.String),
			Basis:      basis.String,
			Confidence: model.Confidence(confidence.String),
			SaleSpeed:  model.SaleSpeed(speed.String),
			SampleSize: st.Count,
		}
	}
	return &snap, nil
}

func (r *sqlRecorder) Close() error {
	return r.db.Close()
}

func questionMark(int) string { return "?" }

func dollarN(n int) string { return fmt.Sprintf("$%d", n) }
