package recorder

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists snapshots to a SQLite database.
type SQLiteRecorder struct {
	*sqlRecorder
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create sqlite dir")
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// WAL mode lets the HTTP API read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}

	r := &SQLiteRecorder{sqlRecorder: &sqlRecorder{db: db, placeholder: questionMark}, logger: logger}
	if err := r.migrate(context.Background(), []string{
		`CREATE TABLE IF NOT EXISTS price_snapshots (
			id             TEXT PRIMARY KEY,
			product_id     TEXT NOT NULL,
			taken_at       INTEGER NOT NULL,
			min_price      REAL,
			max_price      REAL,
			mean_price     REAL,
			median_price   REAL,
			p25            REAL,
			p75            REAL,
			p90            REAL,
			std_dev        REAL,
			sample_count   INTEGER,
			outliers       INTEGER,
			rec_strategy   TEXT,
			rec_price      REAL,
			rec_basis      TEXT,
			rec_confidence TEXT,
			rec_sale_speed TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_product_ts ON price_snapshots(product_id, taken_at)`,
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.sqlRecorder.Close()
}
