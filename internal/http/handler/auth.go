package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"moments/internal/http/middleware"
	"moments/internal/identity"
	"moments/internal/service"
)

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
	Bio         *string `json:"bio"`
}

type accountPayload struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

type sessionPayload struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      accountPayload `json:"user"`
}

func toSessionPayload(sess identity.Session) sessionPayload {
	return sessionPayload{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User: accountPayload{
			UID:         sess.Account.UID,
			Email:       sess.Account.Email,
			DisplayName: sess.Account.DisplayName,
			PhotoURL:    sess.Account.PhotoURL,
		},
	}
}

// SignUp registers an account and returns the fresh session.
func SignUp(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signUpRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		}

		sess, err := svc.SignUp(c.UserContext(), req.Email, req.Password, req.DisplayName)
		if err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusCreated, toSessionPayload(sess))
	}
}

// SignIn authenticates an email/password pair.
func SignIn(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signInRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		}

		sess, err := svc.SignIn(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusOK, toSessionPayload(sess))
	}
}

// SignOut ends the authenticated session.
func SignOut(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acct, _ := middleware.AccountFromCtx(c)
		if err := svc.LogOut(c.UserContext(), acct.UID); err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusOK, nil)
	}
}

// ResetPassword issues a password reset for the given email.
func ResetPassword(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req resetPasswordRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		}

		if err := svc.ResetPassword(c.UserContext(), req.Email); err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusAccepted, nil)
	}
}

// GetUserProfile returns a stored profile record.
func GetUserProfile(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, err := svc.GetUserProfile(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusOK, profile)
	}
}

// UpdateUserProfile merges profile fields for the authenticated user.
func UpdateUserProfile(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acct, _ := middleware.AccountFromCtx(c)

		var req updateProfileRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		}

		profile, err := svc.UpdateUserProfile(c.UserContext(), acct.UID, service.ProfileUpdate{
			DisplayName: req.DisplayName,
			PhotoURL:    req.PhotoURL,
			Bio:         req.Bio,
		})
		if err != nil {
			return writeClassified(c, err)
		}
		return writeData(c, fiber.StatusOK, profile)
	}
}
