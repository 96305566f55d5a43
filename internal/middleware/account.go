package middleware

import "github.com/gofiber/fiber/v3"

// accountLocalKey is the Locals key the account context is stored under.
const accountLocalKey = "account_id"

// AccountHeader is set by the upstream auth layer, which is outside this
// service's scope. An empty value is allowed; writes that need an identity
// record it as-is.
const AccountHeader = "X-Account-ID"

// AccountContext extracts the caller's account identity from the request and
// makes it available to handlers.
func AccountContext() fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Locals(accountLocalKey, c.Get(AccountHeader))
		return c.Next()
	}
}

// GetAccountID returns the caller's account ID, or "" when none was supplied.
func GetAccountID(c fiber.Ctx) string {
	if v, ok := c.Locals(accountLocalKey).(string); ok {
		return v
	}
	return ""
}
