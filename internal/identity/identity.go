// Package identity is the authentication facade: account creation,
// credential sign-in, session tokens, password resets, and an
// auth-state broadcast that mirrors sign-in and sign-out events to
// registered listeners.
package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"moments/internal/apperr"
)

// MinPasswordLength is the weakest password the provider accepts.
const MinPasswordLength = 6

// Account is a registered identity.
type Account struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	CreatedAt   time.Time
}

// Session is a signed-in account plus its bearer token.
type Session struct {
	Account   Account
	Token     string
	ExpiresAt time.Time
}

// Provider is the identity contract the services consume.
type Provider interface {
	// CreateAccount registers a new account and signs it in.
	CreateAccount(ctx context.Context, email, password string) (Session, error)

	// SignIn authenticates an email/password pair.
	SignIn(ctx context.Context, email, password string) (Session, error)

	// SignOut ends the account's session and notifies listeners.
	SignOut(ctx context.Context, uid string) error

	// VerifyToken validates a bearer token and resolves its account.
	VerifyToken(ctx context.Context, token string) (Account, error)

	// SendPasswordReset issues a reset token for the account.
	SendPasswordReset(ctx context.Context, email string) error

	// UpdateDisplayProfile changes the account's display name and
	// avatar URL.
	UpdateDisplayProfile(ctx context.Context, uid, displayName, photoURL string) (Account, error)

	// OnAuthStateChanged registers a listener that fires immediately
	// with the current state and then on every sign-in and sign-out.
	// A nil account means signed out. The returned function removes
	// the listener; it is idempotent.
	OnAuthStateChanged(fn func(*Account)) func()
}

// stateHub tracks the most recent auth state and fans sign-in and
// sign-out events out to listeners. Listeners are invoked in
// registration order, outside the hub lock, so a listener may remove
// itself from inside its own callback.
type stateHub struct {
	mu        sync.Mutex
	current   *Account
	nextID    int
	listeners map[int]func(*Account)
}

func newStateHub() *stateHub {
	return &stateHub{listeners: make(map[int]func(*Account))}
}

// listenersLocked returns the registered listeners in registration
// order. Callers must hold h.mu.
func (h *stateHub) listenersLocked() []func(*Account) {
	ids := make([]int, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(*Account), len(ids))
	for i, id := range ids {
		fns[i] = h.listeners[id]
	}
	return fns
}

func (h *stateHub) listen(fn func(*Account)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	current := h.current
	h.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

func (h *stateHub) set(acct *Account) {
	h.mu.Lock()
	h.current = acct
	fns := h.listenersLocked()
	h.mu.Unlock()

	for _, fn := range fns {
		fn(acct)
	}
}

// refresh pushes updated account details to listeners, but only while
// that account is the signed-in one.
func (h *stateHub) refresh(acct Account) {
	h.mu.Lock()
	if h.current == nil || h.current.UID != acct.UID {
		h.mu.Unlock()
		return
	}
	h.current = &acct
	fns := h.listenersLocked()
	h.mu.Unlock()

	for _, fn := range fns {
		fn(&acct)
	}
}

// Disabled is the provider used when no signing secret is configured.
// Every operation fails with a not-configured error so callers surface
// a clear message instead of a half-working auth stack.
type Disabled struct {
	hub *stateHub
}

var _ Provider = (*Disabled)(nil)

// NewDisabled creates the unconfigured provider.
func NewDisabled() *Disabled {
	return &Disabled{hub: newStateHub()}
}

func errNotConfigured() error {
	return apperr.New(apperr.NotConfigured, "authentication is not configured")
}

func (d *Disabled) CreateAccount(context.Context, string, string) (Session, error) {
	return Session{}, errNotConfigured()
}

func (d *Disabled) SignIn(context.Context, string, string) (Session, error) {
	return Session{}, errNotConfigured()
}

func (d *Disabled) SignOut(context.Context, string) error {
	return errNotConfigured()
}

func (d *Disabled) VerifyToken(context.Context, string) (Account, error) {
	return Account{}, errNotConfigured()
}

func (d *Disabled) SendPasswordReset(context.Context, string) error {
	return errNotConfigured()
}

func (d *Disabled) UpdateDisplayProfile(context.Context, string, string, string) (Account, error) {
	return Account{}, errNotConfigured()
}

func (d *Disabled) OnAuthStateChanged(fn func(*Account)) func() {
	return d.hub.listen(fn)
}
