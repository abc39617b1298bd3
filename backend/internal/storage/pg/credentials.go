package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JJET88/dit205-midterm-fullstack/shared/domain"
	internal_errors "github.com/JJET88/dit205-midterm-fullstack/shared/errors"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

var ErrEmailTaken = errors.New("email already registered")

// =========================================================================
// Public Methods
// =========================================================================

// CredentialByEmail fetches the credential row for an exact email match.
// Absent rows yield internal_errors.ErrNotFound.
func (s *Storage) CredentialByEmail(ctx context.Context, email domain.Email) (domain.Credential, error) {
	return s.credentialByEmail(ctx, s.db, email)
}

// SaveUser inserts a user with an already hashed password. Only the seeding
// tool and tests write users.
func (s *Storage) SaveUser(ctx context.Context, name string, email domain.Email, passwordHash string) (domain.UserId, error) {
	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(ctx, tx, name, email, passwordHash)
		return err
	})
	return id, err
}

// =========================================================================
// Internal Methods
// =========================================================================
// These methods accept a Querier and are transaction-agnostic.

func (s *Storage) credentialByEmail(ctx context.Context, q Querier, email domain.Email) (domain.Credential, error) {
	var c domain.Credential
	var name sql.NullString
	err := q.QueryRowContext(ctx,
		"SELECT id, name, email, password FROM users WHERE email = $1", email).
		Scan(&c.UserId, &name, &c.Email, &c.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credential{}, internal_errors.ErrNotFound
		}
		return domain.Credential{}, fmt.Errorf("failed to query credential: %w", err)
	}
	c.Name = name.String
	return c, nil
}

func (s *Storage) saveUser(ctx context.Context, q Querier, name string, email domain.Email, passwordHash string) (domain.UserId, error) {
	var id domain.UserId
	err := q.QueryRowContext(ctx,
		"INSERT INTO users(name, email, password) VALUES($1, $2, $3) RETURNING id",
		sql.NullString{String: name, Valid: name != ""}, email, passwordHash).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation {
			return -1, ErrEmailTaken
		}
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}
