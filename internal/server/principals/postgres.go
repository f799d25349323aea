package principals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dpavlenko/authd/internal/common"
	"github.com/dpavlenko/authd/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *Principal) (*Principal, error) {
	query := `
		INSERT INTO principals (email, name, phone, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.Email, p.Name, nullable(p.Phone), p.PasswordHash).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Principal, error) {
	query := `
		SELECT id, email, name, phone, password_hash, refresh_token_hash, created_at, updated_at
		FROM principals
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Principal, error) {
	query := `
		SELECT id, email, name, phone, password_hash, refresh_token_hash, created_at, updated_at
		FROM principals
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) SetRefreshTokenHash(ctx context.Context, id string, hash string) error {
	query := `
		UPDATE principals
		SET refresh_token_hash = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) RotateRefreshTokenHash(ctx context.Context, id string, oldHash, newHash string) error {
	// The WHERE clause is the compare-and-set: of two concurrent rotations
	// the second no longer matches oldHash and updates zero rows.
	query := `
		UPDATE principals
		SET refresh_token_hash = $3, updated_at = now()
		WHERE id = $1 AND refresh_token_hash = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, oldHash, newHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) ClearRefreshTokenHash(ctx context.Context, id string) error {
	query := `
		UPDATE principals
		SET refresh_token_hash = NULL, updated_at = now()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*Principal, error) {
	query := `
		UPDATE principals
		SET name = COALESCE($2, name), phone = COALESCE($3, phone), updated_at = now()
		WHERE id = $1
		RETURNING id, email, name, phone, password_hash, refresh_token_hash, created_at, updated_at
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id, upd.Name, upd.Phone))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM principals WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*Principal, error) {
	p := &Principal{}
	var phone, refreshHash sql.NullString
	err := row.Scan(&p.ID, &p.Email, &p.Name, &phone, &p.PasswordHash, &refreshHash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.Phone = phone.String
	p.RefreshTokenHash = refreshHash.String
	return p, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
