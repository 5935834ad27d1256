package service

import (
	"context"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"moments/internal/apperr"
	"moments/internal/docstore"
	"moments/internal/identity"
	"moments/internal/model"
)

// CollectionUsers holds the stored profile records, keyed by the
// identity account UID.
const CollectionUsers = "users"

// ProfileUpdate carries the profile fields a user may change. Nil
// pointers leave the field untouched.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
	Bio         *string
}

// AuthService defines the account and profile use cases.
type AuthService interface {
	// SignUp registers an account and seeds its profile record. A
	// profile write failure does not fail the sign-up; the account is
	// usable and the profile is created lazily on the next update.
	SignUp(ctx context.Context, email, password, displayName string) (identity.Session, error)

	// SignIn authenticates an email/password pair.
	SignIn(ctx context.Context, email, password string) (identity.Session, error)

	// LogOut ends the session.
	LogOut(ctx context.Context, uid string) error

	// ResetPassword issues a password reset for the email.
	ResetPassword(ctx context.Context, email string) error

	// VerifyToken resolves a bearer token to its account.
	VerifyToken(ctx context.Context, token string) (identity.Account, error)

	// GetUserProfile returns the stored profile record.
	GetUserProfile(ctx context.Context, uid string) (*model.UserProfile, error)

	// UpdateUserProfile merges the given fields into the profile and
	// mirrors display fields onto the identity account.
	UpdateUserProfile(ctx context.Context, uid string, update ProfileUpdate) (*model.UserProfile, error)

	// OnAuthStateChange registers an auth-state listener; the returned
	// function removes it.
	OnAuthStateChange(fn func(*identity.Account)) func()
}

type authService struct {
	provider identity.Provider
	store    docstore.Store
}

// NewAuthService constructs an AuthService.
func NewAuthService(provider identity.Provider, store docstore.Store) AuthService {
	return &authService{provider: provider, store: store}
}

func (s *authService) SignUp(ctx context.Context, email, password, displayName string) (identity.Session, error) {
	sess, err := s.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return identity.Session{}, err
	}

	// Display name and profile record are best-effort: the account
	// already exists, so failing the whole sign-up would strand it.
	if displayName != "" {
		acct, err := s.provider.UpdateDisplayProfile(ctx, sess.Account.UID, displayName, "")
		if err != nil {
			log.WithError(err).WithField("uid", sess.Account.UID).
				Warn("sign-up display name not applied")
		} else {
			sess.Account = acct
		}
	}

	if _, err := s.store.Set(ctx, CollectionUsers, sess.Account.UID, map[string]any{
		"email":       sess.Account.Email,
		"displayName": sess.Account.DisplayName,
		"photoURL":    "",
		"bio":         "",
		"followers":   []any{},
		"following":   []any{},
	}); err != nil {
		log.WithError(err).WithField("uid", sess.Account.UID).
			Warn("sign-up profile record not created")
	}

	return sess, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	return s.provider.SignIn(ctx, email, password)
}

func (s *authService) LogOut(ctx context.Context, uid string) error {
	return s.provider.SignOut(ctx, uid)
}

func (s *authService) ResetPassword(ctx context.Context, email string) error {
	return s.provider.SendPasswordReset(ctx, email)
}

func (s *authService) VerifyToken(ctx context.Context, token string) (identity.Account, error) {
	return s.provider.VerifyToken(ctx, token)
}

func (s *authService) GetUserProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	if uid == "" {
		return nil, apperr.New(apperr.InvalidArgument, "user id is required")
	}
	doc, err := s.store.Get(ctx, CollectionUsers, uid)
	if err != nil {
		return nil, err
	}
	profile, err := model.DecodeUserProfile(doc)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *authService) UpdateUserProfile(ctx context.Context, uid string, update ProfileUpdate) (*model.UserProfile, error) {
	if uid == "" {
		return nil, apperr.New(apperr.InvalidArgument, "user id is required")
	}

	if update.DisplayName == nil && update.PhotoURL == nil && update.Bio == nil {
		return s.GetUserProfile(ctx, uid)
	}

	// Read the current record so untouched fields survive the write. A
	// missing record is created here; sign-up tolerates profile write
	// failures, so this is the catch-up path.
	current := model.UserProfile{UID: uid}
	doc, err := s.store.Get(ctx, CollectionUsers, uid)
	if err == nil {
		current, err = model.DecodeUserProfile(doc)
		if err != nil {
			return nil, err
		}
	} else if !apperr.IsKind(err, apperr.NotFound) {
		return nil, err
	}

	if update.DisplayName != nil {
		current.DisplayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		current.PhotoURL = *update.PhotoURL
	}
	if update.Bio != nil {
		current.Bio = *update.Bio
	}

	// Mirror display fields onto the identity account best-effort; the
	// profile record is the source the UI reads.
	if update.DisplayName != nil || update.PhotoURL != nil {
		if _, err := s.provider.UpdateDisplayProfile(ctx, uid, current.DisplayName, current.PhotoURL); err != nil {
			log.WithError(err).WithField("uid", uid).
				Warn("identity display fields not updated")
		}
	}

	stored, err := s.store.Set(ctx, CollectionUsers, uid, map[string]any{
		"email":       current.Email,
		"displayName": current.DisplayName,
		"photoURL":    current.PhotoURL,
		"bio":         current.Bio,
		"followers":   lo.ToAnySlice(current.Followers),
		"following":   lo.ToAnySlice(current.Following),
	})
	if err != nil {
		return nil, err
	}
	current.CreatedAt = stored.CreatedAt
	return &current, nil
}

func (s *authService) OnAuthStateChange(fn func(*identity.Account)) func() {
	return s.provider.OnAuthStateChanged(fn)
}

