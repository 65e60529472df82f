// Package db persists airport reference data and combination results.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/viafly/viafly/airports"
	"github.com/viafly/viafly/config"
	"github.com/viafly/viafly/report"
)

// PostgresDB defines the storage operations the service uses.
type PostgresDB interface {
	InitSchema(ctx context.Context) error
	UpsertAirports(ctx context.Context, records []airports.Airport) error
	ListAirports(ctx context.Context) ([]airports.Airport, error)
	SaveResultDocument(ctx context.Context, id, origin, destination string, doc report.Document) error
	GetResultDocument(ctx context.Context, id string) (*report.Document, error)
	Close() error
}

type postgresDB struct {
	db *sql.DB
}

// NewPostgresDB opens a connection pool via the pgx stdlib driver.
func NewPostgresDB(cfg config.PostgresConfig) (PostgresDB, error) {
	db, err := sql.Open("pgx", cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify postgres connection: %w", err)
	}
	return &postgresDB{db: db}, nil
}

func (p *postgresDB) InitSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS airports (
		iata_code   TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		municipality TEXT NOT NULL DEFAULT '',
		iso_country TEXT NOT NULL DEFAULT '',
		coordinates TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS result_documents (
		id           TEXT PRIMARY KEY,
		origin       TEXT NOT NULL,
		destination  TEXT NOT NULL DEFAULT '',
		generated_at TEXT NOT NULL,
		document     JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (p *postgresDB) UpsertAirports(ctx context.Context, records []airports.Airport) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin airports upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO airports (iata_code, name, municipality, iso_country, coordinates)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (iata_code) DO UPDATE SET
			name = EXCLUDED.name,
			municipality = EXCLUDED.municipality,
			iso_country = EXCLUDED.iso_country,
			coordinates = EXCLUDED.coordinates`)
	if err != nil {
		return fmt.Errorf("prepare airports upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range records {
		if a.IATACode == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, a.IATACode, a.Name, a.Municipality, a.ISOCountry, a.Coordinates); err != nil {
			return fmt.Errorf("upsert airport %s: %w", a.IATACode, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit airports upsert: %w", err)
	}
	return nil
}

func (p *postgresDB) ListAirports(ctx context.Context) ([]airports.Airport, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT iata_code, name, municipality, iso_country, coordinates
		FROM airports ORDER BY iata_code`)
	if err != nil {
		return nil, fmt.Errorf("query airports: %w", err)
	}
	defer rows.Close()

	var records []airports.Airport
	for rows.Next() {
		var a airports.Airport
		if err := rows.Scan(&a.IATACode, &a.Name, &a.Municipality, &a.ISOCountry, &a.Coordinates); err != nil {
			return nil, fmt.Errorf("scan airport: %w", err)
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate airports: %w", err)
	}
	return records, nil
}

func (p *postgresDB) SaveResultDocument(ctx context.Context, id, origin, destination string, doc report.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode result document: %w", err)
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO result_documents (id, origin, destination, generated_at, document)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			generated_at = EXCLUDED.generated_at,
			document = EXCLUDED.document`,
		id, origin, destination, doc.GeneratedAt, raw)
	if err != nil {
		return fmt.Errorf("save result document %s: %w", id, err)
	}
	return nil
}

func (p *postgresDB) GetResultDocument(ctx context.Context, id string) (*report.Document, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT document FROM result_documents WHERE id = $1`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result document %s: %w", id, err)
	}
	var doc report.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode result document %s: %w", id, err)
	}
	return &doc, nil
}

func (p *postgresDB) Close() error {
	return p.db.Close()
}
