package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request ID between client, server, and
	// any proxy in front of them.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is where the request ID lives in Fiber's context
	// locals; handlers echo it into every response envelope.
	RequestIDLocalKey = "request_id"
)

// RequestID tags every request with an ID: an incoming X-Request-ID is
// trusted and propagated, otherwise a fresh UUID is minted. The ID is
// stored in locals for handlers and set on the response header.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
