package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/ayush/credential-service/internal/models"
)

// SQLiteStore persists users in a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// OpenSQLite opens (creating if needed) the database at path and applies
// embedded migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrate(ctx, db, goose.DialectSQLite3, "sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return s.scan("find by username", row)
}

func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return s.scan("find by id", row)
}

func (s *SQLiteStore) Create(ctx context.Context, nu NewUser) (*models.User, error) {
	role, err := roleOrDefault(nu.Role)
	if err != nil {
		return nil, opError("create user", err)
	}
	now := s.now().UTC()
	u := &models.User{
		ID:        uuid.NewString(),
		Username:  nu.Username,
		Email:     nu.Email,
		Password:  nu.Password,
		Role:      role,
		CreatedAt: fromMillis(toMillis(now)),
	}
	u.UpdatedAt = u.CreatedAt

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.Password, string(u.Role), toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, duplicateError("create user", err)
		}
		return nil, opError("create user", err)
	}
	return u, nil
}

func (s *SQLiteStore) UpdateByID(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	if upd.Empty() {
		return s.FindByID(ctx, id)
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE users
		 SET username = COALESCE(?, username),
		     password = COALESCE(?, password),
		     updated_at = ?
		 WHERE id = ?
		 RETURNING `+userColumns,
		nullable(upd.Username), nullable(upd.Password), toMillis(s.now()), id,
	)
	return s.scan("update user", row)
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`DELETE FROM users WHERE id = ? RETURNING `+userColumns, id)
	return s.scan("delete user", row)
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, opError("list users", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
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

func (s *SQLiteStore) scan(op string, row rowScanner) (*models.User, error) {
	u, err := scanSQLiteUser(row)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if isSQLiteUniqueViolation(err) {
		return nil, duplicateError(op, err)
	}
	return nil, opError(op, err)
}

func scanSQLiteUser(row rowScanner) (*models.User, error) {
	var (
		u                  models.User
		role               string
		createdAt, updated int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &role, &createdAt, &updated); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updated)
	return &u, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

var _ UserStore = (*SQLiteStore)(nil)
