package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ayush/credential-service/internal/models"
)

const pgUniqueViolation = "23505"

const userColumns = `id, username, email, password, role, created_at, updated_at`

// PostgresStore handles user CRUD against PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects through the pgx stdlib driver and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded goose migrations under migrations/postgres.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return migrate(ctx, s.db, goose.DialectPostgres, "postgres")
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return s.scan("find by username", row)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return s.scan("find by id", row)
}

func (s *PostgresStore) Create(ctx context.Context, nu NewUser) (*models.User, error) {
	role, err := roleOrDefault(nu.Role)
	if err != nil {
		return nil, opError("create user", err)
	}
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		nu.Username, nu.Email, nu.Password, string(role),
	)
	return s.scan("create user", row)
}

func (s *PostgresStore) UpdateByID(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	if upd.Empty() {
		return s.FindByID(ctx, id)
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE users
		 SET username = COALESCE($2, username),
		     password = COALESCE($3, password),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, nullable(upd.Username), nullable(upd.Password),
	)
	return s.scan("update user", row)
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id)
	return s.scan("delete user", row)
}

func (s *PostgresStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, opError("list users", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanPostgresUser(rows)
		if err != nil {
			return nil, opError("list users", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, opError("list users", err)
	}
	return out, nil
}

func (s *PostgresStore) scan(op string, row rowScanner) (*models.User, error) {
	u, err := scanPostgresUser(row)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return nil, duplicateError(op, err)
	}
	return nil, opError(op, err)
}

func scanPostgresUser(row rowScanner) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

var _ UserStore = (*PostgresStore)(nil)
