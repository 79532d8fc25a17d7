package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/devanup/DocBox/internal/config"
	"github.com/devanup/DocBox/internal/mailer"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionSecretLength = 48

// userStore abstracts the persistence layer.
type userStore interface {
	CreateUser(ctx context.Context, fullName, email string, accountID uuid.UUID, avatar string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
	FindUserByAccountID(ctx context.Context, accountID uuid.UUID) (User, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	StoreLoginCode(ctx context.Context, accountID uuid.UUID, codeHash string, expiresAt time.Time) error
	ActiveLoginCode(ctx context.Context, accountID uuid.UUID) (LoginCode, error)
	ConsumeLoginCode(ctx context.Context, codeID uuid.UUID) error
	CreateSession(ctx context.Context, userID uuid.UUID, secretHash string, expiresAt time.Time) (Session, error)
	FindSession(ctx context.Context, secretHash string) (Session, error)
	DeleteSession(ctx context.Context, secretHash string) error
}

// Service encapsulates the OTP sign-in and session use cases.
type Service struct {
	store    userStore
	mail     mailer.Mailer
	cfg      config.AuthConfig
	nowFunc  func() time.Time
	idIssuer string
	parser   *jwt.Parser
}

// NewService creates a Service with dependencies.
func NewService(store userStore, mail mailer.Mailer, cfg config.AuthConfig) *Service {
	return &Service{
		store:    store,
		mail:     mail,
		cfg:      cfg,
		nowFunc:  time.Now,
		idIssuer: "docbox",
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name})),
	}
}

// Challenge is returned by RequestCode and must be presented back on Verify
// together with the emailed code.
type Challenge struct {
	AccountID uuid.UUID
	Token     string
	ExpiresAt time.Time
}

// SessionResult bundles the minted session secret with its user.
type SessionResult struct {
	Secret    string
	ExpiresAt time.Time
	User      User
}

// RequestCode starts the sign-in flow: it creates the user document on first
// contact, emails a fresh one-time code, and returns a signed challenge token
// binding the verify step to the account. A new request supersedes any prior
// unconsumed code for the same account.
func (s *Service) RequestCode(ctx context.Context, fullName, email string) (Challenge, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Challenge{}, ErrInvalidEmail
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return Challenge{}, fmt.Errorf("find user: %w", err)
		}
		user, err = s.store.CreateUser(ctx, strings.TrimSpace(fullName), email, uuid.New(), DefaultAvatar)
		if err != nil {
			return Challenge{}, fmt.Errorf("create user: %w", err)
		}
	}

	code, err := generateCode()
	if err != nil {
		return Challenge{}, fmt.Errorf("generate code: %w", err)
	}

	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
	if err != nil {
		return Challenge{}, fmt.Errorf("hash code: %w", err)
	}

	expiresAt := s.nowFunc().Add(s.cfg.CodeTTL)
	if err := s.store.StoreLoginCode(ctx, user.AccountID, string(codeHash), expiresAt); err != nil {
		return Challenge{}, fmt.Errorf("store login code: %w", err)
	}

	if err := s.mail.Send(ctx, user.Email, "Your DocBox sign-in code", codeEmailBody(code)); err != nil {
		return Challenge{}, fmt.Errorf("send code email: %w", err)
	}

	token, err := s.generateChallengeToken(user.AccountID, expiresAt)
	if err != nil {
		return Challenge{}, fmt.Errorf("generate challenge token: %w", err)
	}

	return Challenge{AccountID: user.AccountID, Token: token, ExpiresAt: expiresAt}, nil
}

// Verify checks the emailed code against the pending challenge and mints an
// opaque session secret. The code row is consumed on success.
func (s *Service) Verify(ctx context.Context, challengeToken, code string) (SessionResult, error) {
	accountID, err := s.parseChallengeToken(challengeToken)
	if err != nil {
		return SessionResult{}, ErrInvalidCode
	}

	pending, err := s.store.ActiveLoginCode(ctx, accountID)
	if err != nil {
		return SessionResult{}, ErrInvalidCode
	}
	if pending.ExpiresAt.Before(s.nowFunc()) {
		return SessionResult{}, ErrInvalidCode
	}

	if err := bcrypt.CompareHashAndPassword([]byte(pending.CodeHash), []byte(strings.TrimSpace(code))); err != nil {
		return SessionResult{}, ErrInvalidCode
	}

	if err := s.store.ConsumeLoginCode(ctx, pending.ID); err != nil {
		return SessionResult{}, fmt.Errorf("consume login code: %w", err)
	}

	user, err := s.store.FindUserByAccountID(ctx, accountID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("find user: %w", err)
	}

	secret, err := generateSessionSecret()
	if err != nil {
		return SessionResult{}, fmt.Errorf("generate session secret: %w", err)
	}

	expiresAt := s.nowFunc().Add(s.cfg.SessionTTL)
	if _, err := s.store.CreateSession(ctx, user.ID, s.hashSessionSecret(secret), expiresAt); err != nil {
		return SessionResult{}, fmt.Errorf("create session: %w", err)
	}

	return SessionResult{Secret: secret, ExpiresAt: expiresAt, User: user}, nil
}

// CurrentUser resolves a session secret to its user. All miss causes — no
// session, expired session, missing user document — are indistinguishable:
// they return ok=false with a nil error.
func (s *Service) CurrentUser(ctx context.Context, secret string) (User, bool, error) {
	if strings.TrimSpace(secret) == "" {
		return User{}, false, nil
	}

	session, err := s.store.FindSession(ctx, s.hashSessionSecret(secret))
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return User{}, false, nil
		}
		return User{}, false, fmt.Errorf("find session: %w", err)
	}
	if session.ExpiresAt.Before(s.nowFunc()) {
		return User{}, false, nil
	}

	user, err := s.store.FindUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, false, nil
		}
		return User{}, false, fmt.Errorf("find session user: %w", err)
	}
	return user, true, nil
}

// SignOut destroys the session bound to the secret. Unknown secrets are a
// no-op.
func (s *Service) SignOut(ctx context.Context, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, s.hashSessionSecret(secret)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) generateChallengeToken(accountID uuid.UUID, expiresAt time.Time) (string, error) {
	now := s.nowFunc()
	claims := jwt.MapClaims{
		"sub": accountID.String(),
		"iss": s.idIssuer,
		"aud": "docbox-otp",
		"iat": now.Unix(),
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.SessionSecret))
}

func (s *Service) parseChallengeToken(tokenString string) (uuid.UUID, error) {
	if strings.TrimSpace(tokenString) == "" {
		return uuid.Nil, ErrUnauthorized
	}

	parsed, err := s.parser.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.SessionSecret), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, ErrUnauthorized
	}
	accountID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ErrUnauthorized
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(expFloat), 0).Before(s.nowFunc()) {
		return uuid.Nil, ErrUnauthorized
	}

	return accountID, nil
}

func (s *Service) hashSessionSecret(secret string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.SessionSecret))
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateSessionSecret() (string, error) {
	raw := make([]byte, sessionSecretLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func codeEmailBody(code string) string {
	return fmt.Sprintf("<p>Your one-time sign-in code is:</p><h2>%s</h2><p>It expires shortly. If you did not request it, ignore this email.</p>", code)
}
