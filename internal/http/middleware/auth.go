package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"moments/internal/apperr"
	"moments/internal/identity"
)

// AccountLocalKey is the key under which RequireAuth stores the
// authenticated account in Fiber's context locals.
const AccountLocalKey = "auth_account"

// TokenVerifier resolves a bearer token to its account.
type TokenVerifier func(ctx context.Context, token string) (identity.Account, error)

// RequireAuth authenticates the request via its Authorization bearer
// token and stores the account in locals. Classified errors flow to the
// global error handler.
func RequireAuth(verify TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || token == "" {
			return apperr.New(apperr.InvalidCredential, "a bearer token is required")
		}

		acct, err := verify(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(AccountLocalKey, acct)
		return c.Next()
	}
}

// AccountFromCtx returns the account stored by RequireAuth.
func AccountFromCtx(c *fiber.Ctx) (identity.Account, bool) {
	acct, ok := c.Locals(AccountLocalKey).(identity.Account)
	return acct, ok
}
