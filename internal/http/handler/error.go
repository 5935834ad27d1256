package handler

import (
	"github.com/gofiber/fiber/v2"

	"moments/internal/apperr"
	"moments/internal/http/middleware"
)

// successPayload is the standardized success response body.
type successPayload struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// errorPayload is the standardized error response body.
type errorPayload struct {
	Success   bool          `json:"success"`
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeData writes a standardized JSON success response.
func writeData(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(successPayload{
		Success:   true,
		Data:      data,
		RequestID: requestIDFromCtx(c),
	})
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		Success:   false,
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	})
}

// statusForKind maps a classified failure to its HTTP status and
// machine-readable code.
func statusForKind(kind apperr.Kind) (int, string) {
	switch kind {
	case apperr.InvalidArgument:
		return fiber.StatusBadRequest, "INVALID_ARGUMENT"
	case apperr.WeakPassword:
		return fiber.StatusBadRequest, "WEAK_PASSWORD"
	case apperr.InvalidCredential:
		return fiber.StatusUnauthorized, "INVALID_CREDENTIAL"
	case apperr.PermissionDenied:
		return fiber.StatusForbidden, "PERMISSION_DENIED"
	case apperr.NotFound:
		return fiber.StatusNotFound, "NOT_FOUND"
	case apperr.EmailInUse:
		return fiber.StatusConflict, "EMAIL_IN_USE"
	case apperr.UploadFailed:
		return fiber.StatusBadGateway, "UPLOAD_FAILED"
	case apperr.RemoteUnavailable:
		return fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	case apperr.NotConfigured:
		return fiber.StatusServiceUnavailable, "AUTH_NOT_CONFIGURED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeClassified renders a classified service failure. Unclassified
// kinds get a generic message so internals never leak.
func writeClassified(c *fiber.Ctx, err error) error {
	status, code := statusForKind(apperr.KindOf(err))
	message := apperr.Message(err)
	if status == fiber.StatusInternalServerError {
		message = "internal server error"
	}
	return writeError(c, status, code, message)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if apperr.KindOf(err) != apperr.Unknown {
			return writeClassified(c, err)
		}

		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
