package records

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// PostgresStore persists batch records in a postgres table, for setups where
// several operators share one history. Schema migrations run automatically
// on connect.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return nil, fmt.Errorf("couldn't migrate batch schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type batchRow struct {
	ID              string    `db:"id"`
	Sender          string    `db:"sender"`
	Network         string    `db:"network"`
	TokenType       string    `db:"token_type"`
	TokenAddr       string    `db:"token_addr"`
	Recipients      []byte    `db:"recipients"`
	TotalAmount     string    `db:"total_amount"`
	Status          string    `db:"status"`
	TxHashes        []byte    `db:"tx_hashes"`
	FailedAddresses []byte    `db:"failed_addresses"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func toRow(record *BatchRecord) (*batchRow, error) {
	recipients, err := json.Marshal(record.Recipients)
	if err != nil {
		return nil, err
	}
	hashes, err := json.Marshal(orEmpty(record.TxHashes))
	if err != nil {
		return nil, err
	}
	failed, err := json.Marshal(orEmpty(record.FailedAddresses))
	if err != nil {
		return nil, err
	}
	return &batchRow{
		ID:              record.ID,
		Sender:          record.Sender,
		Network:         record.Network,
		TokenType:       string(record.TokenType),
		TokenAddr:       record.TokenAddr,
		Recipients:      recipients,
		TotalAmount:     record.TotalAmount,
		Status:          string(record.Status),
		TxHashes:        hashes,
		FailedAddresses: failed,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (row *batchRow) toDomain() (*BatchRecord, error) {
	record := &BatchRecord{
		ID:          row.ID,
		Sender:      row.Sender,
		Network:     row.Network,
		TokenType:   TokenType(row.TokenType),
		TokenAddr:   row.TokenAddr,
		TotalAmount: row.TotalAmount,
		Status:      Status(row.Status),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Recipients, &record.Recipients); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(row.TxHashes, &record.TxHashes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(row.FailedAddresses, &record.FailedAddresses); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *PostgresStore) Create(ctx context.Context, record *BatchRecord) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	row, err := toRow(record)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO batches (
			id, sender, network, token_type, token_addr, recipients,
			total_amount, status, tx_hashes, failed_addresses,
			created_at, updated_at
		) VALUES (
			:id, :sender, :network, :token_type, :token_addr, :recipients,
			:total_amount, :status, :tx_hashes, :failed_addresses,
			:created_at, :updated_at
		)`, row)
	return err
}

func (s *PostgresStore) Update(ctx context.Context, id string, upd Update) error {
	hashes, err := json.Marshal(orEmpty(upd.TxHashes))
	if err != nil {
		return err
	}
	failed, err := json.Marshal(orEmpty(upd.FailedAddresses))
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE batches
		SET status = $2,
		    tx_hashes = CASE WHEN $3::jsonb IS NULL THEN tx_hashes ELSE $3::jsonb END,
		    failed_addresses = CASE WHEN $4::jsonb IS NULL THEN failed_addresses ELSE $4::jsonb END,
		    updated_at = $5
		WHERE id = $1`,
		id, string(upd.Status), nullable(upd.TxHashes, hashes), nullable(upd.FailedAddresses, failed), time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(values []string, marshaled []byte) interface{} {
	if values == nil {
		return nil
	}
	return marshaled
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*BatchRecord, error) {
	row := batchRow{}
	err := s.db.GetContext(ctx, &row, `SELECT * FROM batches WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

func (s *PostgresStore) List(ctx context.Context) ([]*BatchRecord, error) {
	rows := []batchRow{}
	err := s.db.SelectContext(ctx, &rows, `SELECT * FROM batches ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	result := []*BatchRecord{}
	for i := range rows {
		record, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, nil
}
