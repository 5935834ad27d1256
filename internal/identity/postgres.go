package identity

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"moments/internal/apperr"
	"moments/internal/config"
)

const (
	tokenIssuer   = "moments"
	resetTokenTTL = 15 * time.Minute
)

// PostgresProvider stores accounts in the accounts table, hashes
// passwords with bcrypt, and signs session tokens with HMAC.
type PostgresProvider struct {
	db       *sql.DB
	secret   []byte
	tokenTTL time.Duration
	cost     int
	hub      *stateHub
	now      func() time.Time
}

var _ Provider = (*PostgresProvider)(nil)

// NewPostgres creates the identity provider. Without a signing secret
// it degrades to the disabled provider.
func NewPostgres(db *sql.DB, cfg config.AuthConfig) Provider {
	if cfg.Secret == "" {
		log.Warn("no auth secret configured, authentication is disabled")
		return NewDisabled()
	}

	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &PostgresProvider{
		db:       db,
		secret:   []byte(cfg.Secret),
		tokenTTL: ttl,
		cost:     cost,
		hub:      newStateHub(),
		now:      time.Now,
	}
}

// CreateAccount registers a new account and signs it in.
func (p *PostgresProvider) CreateAccount(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < MinPasswordLength {
		return Session{}, apperr.Newf(apperr.WeakPassword, "password must be at least %d characters", MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.Unknown, "hash password", err)
	}

	acct := Account{Email: email}
	const q = `
		INSERT INTO accounts (email, password_hash)
		VALUES ($1, $2)
		RETURNING uid, created_at
	`
	if err := p.db.QueryRowContext(ctx, q, email, string(hash)).Scan(&acct.UID, &acct.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Session{}, apperr.New(apperr.EmailInUse, "an account with that email already exists")
		}
		return Session{}, mapAccountError("create account", err)
	}

	return p.startSession(acct)
}

// SignIn authenticates an email/password pair.
func (p *PostgresProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}

	const q = `
		SELECT uid, email, password_hash, display_name, photo_url, created_at
		FROM accounts
		WHERE lower(email) = $1
	`
	var (
		acct Account
		hash string
	)
	err = p.db.QueryRowContext(ctx, q, email).
		Scan(&acct.UID, &acct.Email, &hash, &acct.DisplayName, &acct.PhotoURL, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, errBadCredentials()
	}
	if err != nil {
		return Session{}, mapAccountError("sign in", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return Session{}, errBadCredentials()
	}

	return p.startSession(acct)
}

// SignOut clears the auth state and notifies listeners. Tokens are
// stateless; the session simply stops being presented.
func (p *PostgresProvider) SignOut(_ context.Context, uid string) error {
	p.hub.set(nil)
	log.WithField("uid", uid).Info("signed out")
	return nil
}

// VerifyToken validates a bearer token and resolves its account.
func (p *PostgresProvider) VerifyToken(ctx context.Context, token string) (Account, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return Account{}, apperr.Wrap(apperr.InvalidCredential, "invalid session token", err)
	}

	acct, err := p.accountByUID(ctx, claims.Subject)
	if apperr.IsKind(err, apperr.NotFound) {
		return Account{}, apperr.New(apperr.InvalidCredential, "invalid session token")
	}
	return acct, err
}

// SendPasswordReset issues a short-lived reset token for the account.
// TODO: hand the token to a mailer once one is wired up.
func (p *PostgresProvider) SendPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	var uid string
	const q = `SELECT uid FROM accounts WHERE lower(email) = $1`
	err = p.db.QueryRowContext(ctx, q, email).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, "no account with that email")
	}
	if err != nil {
		return mapAccountError("password reset", err)
	}

	now := p.now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   uid,
		Audience:  jwt.ClaimStrings{"password_reset"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
	}).SignedString(p.secret)
	if err != nil {
		return apperr.Wrap(apperr.Unknown, "sign reset token", err)
	}

	log.WithFields(log.Fields{"uid": uid, "token": token}).Info("password reset issued")
	return nil
}

// UpdateDisplayProfile changes the account's display name and avatar.
func (p *PostgresProvider) UpdateDisplayProfile(ctx context.Context, uid, displayName, photoURL string) (Account, error) {
	const q = `
		UPDATE accounts
		SET display_name = $1, photo_url = $2
		WHERE uid = $3
		RETURNING email, created_at
	`
	acct := Account{UID: uid, DisplayName: displayName, PhotoURL: photoURL}
	err := p.db.QueryRowContext(ctx, q, displayName, photoURL, uid).Scan(&acct.Email, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, apperr.New(apperr.NotFound, "account not found")
	}
	if err != nil {
		return Account{}, mapAccountError("update profile", err)
	}

	p.hub.refresh(acct)
	return acct, nil
}

// OnAuthStateChanged registers a listener on the auth-state hub.
func (p *PostgresProvider) OnAuthStateChanged(fn func(*Account)) func() {
	return p.hub.listen(fn)
}

func (p *PostgresProvider) startSession(acct Account) (Session, error) {
	now := p.now()
	expires := now.Add(p.tokenTTL)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   acct.UID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}).SignedString(p.secret)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.Unknown, "sign session token", err)
	}

	p.hub.set(&acct)
	return Session{Account: acct, Token: token, ExpiresAt: expires}, nil
}

func (p *PostgresProvider) accountByUID(ctx context.Context, uid string) (Account, error) {
	const q = `
		SELECT uid, email, display_name, photo_url, created_at
		FROM accounts
		WHERE uid = $1
	`
	var acct Account
	err := p.db.QueryRowContext(ctx, q, uid).
		Scan(&acct.UID, &acct.Email, &acct.DisplayName, &acct.PhotoURL, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, apperr.New(apperr.NotFound, "account not found")
	}
	if err != nil {
		return Account{}, mapAccountError("load account", err)
	}
	return acct, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", apperr.New(apperr.InvalidArgument, "a valid email is required")
	}
	return email, nil
}

func errBadCredentials() error {
	return apperr.New(apperr.InvalidCredential, "email or password is incorrect")
}

func mapAccountError(op string, err error) error {
	switch {
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.RemoteUnavailable, op+": identity store unreachable", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return apperr.Wrap(apperr.RemoteUnavailable, op+": identity store unreachable", err)
	}
	return apperr.Wrap(apperr.Unknown, op+" failed", err)
}
