package recorder

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PostgresRecorder persists snapshots to PostgreSQL.
type PostgresRecorder struct {
	*sqlRecorder
	logger *zap.Logger
}

// NewPostgresRecorder connects to PostgreSQL and ensures the schema exists.
func NewPostgresRecorder(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	r := &PostgresRecorder{sqlRecorder: &sqlRecorder{db: db, placeholder: dollarN}, logger: logger}
	if err := r.migrate(ctx, []string{
		`CREATE TABLE IF NOT EXISTS price_snapshots (
			id             TEXT PRIMARY KEY,
			product_id     VARCHAR(128) NOT NULL,
			taken_at       BIGINT NOT NULL,
			min_price      DOUBLE PRECISION,
			max_price      DOUBLE PRECISION,
			mean_price     DOUBLE PRECISION,
			median_price   DOUBLE PRECISION,
			p25            DOUBLE PRECISION,
			p75            DOUBLE PRECISION,
			p90            DOUBLE PRECISION,
			std_dev        DOUBLE PRECISION,
			sample_count   INTEGER,
			outliers       INTEGER,
			rec_strategy   TEXT,
			rec_price      DOUBLE PRECISION,
			rec_basis      TEXT,
			rec_confidence TEXT,
			rec_sale_speed TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_product_ts ON price_snapshots(product_id, taken_at)`,
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	logger.Info("postgres recorder connected")
	return r, nil
}

func (r *PostgresRecorder) Close() error {
	r.logger.Info("closing postgres recorder")
	return r.sqlRecorder.Close()
}
