package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 5 * time.Second

// Repository provides database access for users, login codes, and sessions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, full_name, email, account_id, avatar, created_at, updated_at`

// CreateUser persists a new user document.
func (r *Repository) CreateUser(ctx context.Context, fullName, email string, accountID uuid.UUID, avatar string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO users (full_name, email, account_id, avatar)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns + `;`

	row := r.pool.QueryRow(ctx, query, fullName, email, accountID, avatar)

	var user User
	if err := scanUser(row, &user); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// FindUserByEmail fetches a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1;`, email)
}

// FindUserByAccountID fetches a user by its identity account handle.
func (r *Repository) FindUserByAccountID(ctx context.Context, accountID uuid.UUID) (User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE account_id = $1;`, accountID)
}

// FindUserByID fetches a user by primary key.
func (r *Repository) FindUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	return r.findUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, userID)
}

func (r *Repository) findUser(ctx context.Context, query string, arg any) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	var user User
	if err := scanUser(r.pool.QueryRow(ctx, query, arg), &user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row, user *User) error {
	return row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.AccountID,
		&user.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

// StoreLoginCode records a fresh code hash for the account, superseding any
// code still pending.
func (r *Repository) StoreLoginCode(ctx context.Context, accountID uuid.UUID, codeHash string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin store login code: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE login_codes SET consumed_at = NOW() WHERE account_id = $1 AND consumed_at IS NULL;`,
		accountID,
	); err != nil {
		return fmt.Errorf("supersede login codes: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO login_codes (account_id, code_hash, expires_at) VALUES ($1, $2, $3);`,
		accountID, codeHash, expiresAt,
	); err != nil {
		return fmt.Errorf("store login code: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit store login code: %w", err)
	}
	return nil
}

// ActiveLoginCode returns the newest unconsumed code for the account.
func (r *Repository) ActiveLoginCode(ctx context.Context, accountID uuid.UUID) (LoginCode, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT id, account_id, code_hash, expires_at, created_at
FROM login_codes
WHERE account_id = $1 AND consumed_at IS NULL
ORDER BY created_at DESC
LIMIT 1;`

	var code LoginCode
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&code.ID,
		&code.AccountID,
		&code.CodeHash,
		&code.ExpiresAt,
		&code.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginCode{}, ErrInvalidCode
		}
		return LoginCode{}, fmt.Errorf("find login code: %w", err)
	}
	return code, nil
}

// ConsumeLoginCode marks the code as used.
func (r *Repository) ConsumeLoginCode(ctx context.Context, codeID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx,
		`UPDATE login_codes SET consumed_at = NOW() WHERE id = $1;`, codeID,
	); err != nil {
		return fmt.Errorf("consume login code: %w", err)
	}
	return nil
}

// CreateSession persists a session row keyed by the hashed secret.
func (r *Repository) CreateSession(ctx context.Context, userID uuid.UUID, secretHash string, expiresAt time.Time) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
INSERT INTO sessions (user_id, secret_hash, expires_at)
VALUES ($1, $2, $3)
RETURNING id, user_id, secret_hash, expires_at, created_at;`

	var session Session
	err := r.pool.QueryRow(ctx, query, userID, secretHash, expiresAt).Scan(
		&session.ID,
		&session.UserID,
		&session.SecretHash,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// FindSession fetches a live session by hashed secret.
func (r *Repository) FindSession(ctx context.Context, secretHash string) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	query := `
SELECT id, user_id, secret_hash, expires_at, created_at
FROM sessions
WHERE secret_hash = $1;`

	var session Session
	err := r.pool.QueryRow(ctx, query, secretHash).Scan(
		&session.ID,
		&session.UserID,
		&session.SecretHash,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session by hashed secret.
func (r *Repository) DeleteSession(ctx context.Context, secretHash string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE secret_hash = $1;`, secretHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
