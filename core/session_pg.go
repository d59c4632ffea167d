package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool with conservative defaults.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	// Reasonable defaults for small services; callers can override if needed.
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	// Validate connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// PgSessionStore implements SessionStore on PostgreSQL. Only session records
// live in the database; user records stay in memory.
type PgSessionStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewPgSessionStore ensures the sessions table exists and returns the store.
func NewPgSessionStore(ctx context.Context, db *pgxpool.Pool) (*PgSessionStore, error) {
	const ddl = `CREATE TABLE IF NOT EXISTS sessions (
		token      TEXT PRIMARY KEY,
		user_id    BIGINT NOT NULL,
		username   TEXT NOT NULL,
		role       TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.Exec(ctx, ddl); err != nil {
		return nil, err
	}
	return &PgSessionStore{db: db, now: time.Now}, nil
}

func (s *PgSessionStore) Create(ctx context.Context, data SessionData) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", err
	}
	const q = `INSERT INTO sessions (token, user_id, username, role, expires_at) VALUES ($1,$2,$3,$4,$5)`
	if _, err := s.db.Exec(ctx, q, token, data.UserID, data.Username, data.Role, data.ExpiresAt); err != nil {
		return "", err
	}
	return token, nil
}

func (s *PgSessionStore) Get(ctx context.Context, token string) (*SessionData, error) {
	const q = `SELECT user_id, username, role, expires_at FROM sessions WHERE token=$1 AND expires_at > $2`
	var data SessionData
	err := s.db.QueryRow(ctx, q, token, s.now()).Scan(&data.UserID, &data.Username, &data.Role, &data.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &data, nil
}

func (s *PgSessionStore) Destroy(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE token=$1`, token)
	return err
}

// PurgeExpired removes expired rows; callers may run it periodically.
func (s *PgSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
