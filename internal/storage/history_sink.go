package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib" // Import the driver
	"go.uber.org/zap"

	"tariffscout/pkg/models"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS tariff_prices (
	run_id      UUID NOT NULL,
	tariff_id   TEXT NOT NULL,
	region_id   TEXT NOT NULL,
	price       NUMERIC NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, tariff_id, region_id)
)`

type Storage struct {
	db *sql.DB
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// WaitForPostgres opens the pool and pings until the server answers or the
// attempts run out.
func WaitForPostgres(ctx context.Context, url string, attempts int, wait time.Duration, logger *zap.Logger) (*sql.DB, error) {
	var err error
	for i := 0; i < attempts; i++ {
		var db *sql.DB
		db, err = sql.Open("pgx", url)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				logger.Info("connected to price history database")
				return db, nil
			}
			db.Close()
		}
		logger.Warn("waiting for price history database", zap.Int("attempt", i+1), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, err
}

// HistorySink appends every cell of a run's price table to Postgres.
type HistorySink struct {
	*Storage
}

func (s *HistorySink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, historySchema)
	return err
}

func (s *HistorySink) Save(ctx context.Context, snap models.PriceSnapshot) error {
	if snap.Prices == nil || snap.Prices.Len() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tariff_prices (run_id, tariff_id, region_id, price, observed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id, tariff_id, region_id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, tariffID := range snap.Prices.Tariffs() {
		for _, regionID := range snap.Prices.Regions(tariffID) {
			price, _ := snap.Prices.Get(tariffID, regionID)
			if _, err := stmt.ExecContext(ctx, snap.RunID, tariffID, regionID, price.String(), snap.ObservedAt); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (s *HistorySink) Name() string {
	return "postgres:tariff_prices"
}

func (s *HistorySink) Close() error {
	return s.db.Close()
}
