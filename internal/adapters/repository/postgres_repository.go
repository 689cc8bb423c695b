package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/crmmini/core/internal/domain/entities"
	"github.com/crmmini/core/internal/infrastructure/database"
	"github.com/crmmini/core/internal/infrastructure/logger"
	"github.com/crmmini/core/internal/ports"
)

const (
	selectCustomersQuery = `SELECT data FROM customer_records ORDER BY position`
	deleteCustomersQuery = `DELETE FROM customer_records`
	insertCustomerQuery  = `INSERT INTO customer_records (data) VALUES ($1)`
)

// PostgresRepositoryImpl keeps the customer collection as one JSONB row per
// record, ordered by insertion position. Save rewrites the whole table in a
// single transaction.
type PostgresRepositoryImpl struct {
	db     *database.DB
	logger *logger.Logger
}

// NewPostgresRepository creates a new Postgres-backed customer repository
func NewPostgresRepository(db *database.DB, logger *logger.Logger) ports.CustomerRepository {
	return &PostgresRepositoryImpl{
		db:     db,
		logger: logger.WithComponent("postgres_store"),
	}
}

func (r *PostgresRepositoryImpl) Load(ctx context.Context) ([]entities.Customer, error) {
	start := time.Now()

	var rows [][]byte
	err := r.db.DB.SelectContext(ctx, &rows, selectCustomersQuery)
	if err != nil {
		err = fmt.Errorf("%w: select customers: %v", entities.ErrCorruptStore, err)
		r.logger.LogStoreOperation("load", 0, elapsedMillis(start), err)
		return nil, err
	}

	records := make([]entities.Customer, 0, len(rows))
	for _, raw := range rows {
		record, err := decodeRecord(raw)
		if err != nil {
			err = fmt.Errorf("%w: %v", entities.ErrCorruptStore, err)
			r.logger.LogStoreOperation("load", 0, elapsedMillis(start), err)
			return nil, err
		}
		records = append(records, record)
	}

	r.logger.LogStoreOperation("load", len(records), elapsedMillis(start), nil)
	return records, nil
}

func (r *PostgresRepositoryImpl) Save(ctx context.Context, records []entities.Customer) error {
	start := time.Now()

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteCustomersQuery); err != nil {
			return fmt.Errorf("clear customers: %w", err)
		}
		for _, record := range records {
			raw, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("encode customer: %w", err)
			}
			if _, err := tx.ExecContext(ctx, insertCustomerQuery, raw); err != nil {
				return fmt.Errorf("insert customer: %w", err)
			}
		}
		return nil
	})

	r.logger.LogStoreOperation("save", len(records), elapsedMillis(start), err)
	return err
}

func (r *PostgresRepositoryImpl) Ping(ctx context.Context) error {
	if err := r.db.HealthCheck(ctx); err != nil {
		return err
	}
	r.logger.Debugw("Database pool", r.db.PoolStats()...)
	return nil
}

func decodeRecord(raw []byte) (entities.Customer, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var record entities.Customer
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}
	return record, nil
}
