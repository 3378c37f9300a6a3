package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/trustlayer/trustgraph/internal/core/domain"
)

// AtomRepository is the Postgres alternative to the JSON fan-out store. One
// row carries the full atom payload; the keyed columns replace the three
// per-key collection files, so a single insert serves every index.
type AtomRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewAtomRepository(db *sql.DB, logger *slog.Logger) *AtomRepository {
	return &AtomRepository{db: db, logger: logger}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *AtomRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS trust_atoms (
	seq BIGSERIAL,
	atom_id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL,
	source TEXT NOT NULL,
	category TEXT NOT NULL,
	payload JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trust_atoms_product ON trust_atoms(product_id);
CREATE INDEX IF NOT EXISTS idx_trust_atoms_source ON trust_atoms(source);
CREATE INDEX IF NOT EXISTS idx_trust_atoms_category ON trust_atoms(category);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// StoreAll inserts the atom once; every index is backed by the same row, so
// the receipt flags move together.
func (r *AtomRepository) StoreAll(ctx context.Context, atom domain.TrustAtom) domain.StoreReceipt {
	payload, err := json.Marshal(atom)
	if err != nil {
		r.logger.Error("encode atom payload", "atom_id", atom.AtomID, "error", err)
		return domain.StoreReceipt{}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO trust_atoms (atom_id, product_id, source, category, payload)
VALUES ($1,$2,$3,$4,$5)
`,
		atom.AtomID, atom.ProductID, string(atom.Source), domain.CategoryFor(atom.ProductID), payload,
	)
	if err != nil {
		r.logger.Error("insert trust atom", "atom_id", atom.AtomID, "error", err)
		return domain.StoreReceipt{}
	}
	return domain.StoreReceipt{Category: true, Source: true, Product: true}
}

func (r *AtomRepository) AtomsByProduct(ctx context.Context, productID string) ([]domain.TrustAtom, error) {
	return r.query(ctx, `
SELECT payload FROM trust_atoms WHERE product_id = $1 ORDER BY seq
`, productID)
}

func (r *AtomRepository) AtomsBySource(ctx context.Context, source domain.Source) ([]domain.TrustAtom, error) {
	return r.query(ctx, `
SELECT payload FROM trust_atoms WHERE source = $1 ORDER BY seq
`, string(source))
}

func (r *AtomRepository) AtomsByCategory(ctx context.Context, category string) ([]domain.TrustAtom, error) {
	return r.query(ctx, `
SELECT payload FROM trust_atoms WHERE category = $1 ORDER BY seq
`, category)
}

func (r *AtomRepository) query(ctx context.Context, query string, arg any) ([]domain.TrustAtom, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query trust atoms: %w", err)
	}
	defer rows.Close()

	atoms := make([]domain.TrustAtom, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan trust atom: %w", err)
		}
		var atom domain.TrustAtom
		if err := json.Unmarshal(payload, &atom); err != nil {
			return nil, fmt.Errorf("decode trust atom payload: %w", err)
		}
		atoms = append(atoms, atom)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trust atoms: %w", err)
	}
	return atoms, nil
}
