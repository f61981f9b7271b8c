package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var ErrSessionNotFound = errors.New("payment session not found")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// Session is one payment-session handle sized to a checkout total. Pending
// sessions are unique per (user, amount): asking again for the same total
// returns the existing handle instead of minting a new one.
type Session struct {
	ID           string
	UserID       string
	Amount       decimal.Decimal
	ClientSecret string
	Status       string
	CreatedAt    time.Time
}

const (
	SessionStatusPending   = "PENDING"
	SessionStatusCompleted = "COMPLETED"
)

type Store struct {
	db *sql.DB
}

type SessionStore interface {
	GetPendingSession(ctx context.Context, userID string, amount decimal.Decimal) (*Session, error)
	InsertSession(ctx context.Context, session *Session) error
	InsertRedirectSession(ctx context.Context, session *RedirectSession) error
	Close() error
}

func NewStore(cred *Credentials) (*Store, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Store{db: db}, nil
}

func (s *Store) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (s *Store) GetPendingSession(ctx context.Context, userID string, amount decimal.Decimal) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, amount, client_secret, status, created_at
		FROM payment_sessions
		WHERE user_id = $1 AND amount = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, amount.String(), SessionStatusPending)

	var session Session
	var amountStr string
	err := row.Scan(&session.ID, &session.UserID, &amountStr, &session.ClientSecret, &session.Status, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment session: %w", err)
	}

	session.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored amount: %w", err)
	}
	return &session, nil
}

func (s *Store) InsertSession(ctx context.Context, session *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_sessions (id, user_id, amount, client_secret, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.UserID, session.Amount.String(), session.ClientSecret, session.Status, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert payment session: %w", err)
	}
	return nil
}

// RedirectSession records a provider-hosted session handed off by URL.
type RedirectSession struct {
	ID          string
	UserID      string
	Amount      decimal.Decimal
	Currency    string
	RedirectURL string
	CreatedAt   time.Time
}

func (s *Store) InsertRedirectSession(ctx context.Context, session *RedirectSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO redirect_sessions (id, user_id, amount, currency, redirect_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.UserID, session.Amount.String(), session.Currency, session.RedirectURL, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert redirect session: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
