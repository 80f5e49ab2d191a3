package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RefererCheckMiddleware rejects browser requests whose Referer (or
// Origin, as fallback) does not match the allowlist. An empty allowlist
// disables the check. Requests without either header pass: non-browser
// clients do not send them.
func RefererCheckMiddleware(allowed []string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if len(allowed) == 0 {
			return ctx.Next()
		}

		source := ctx.Get("Referer")
		if source == "" {
			source = ctx.Get("Origin")
		}
		if source == "" {
			return ctx.Next()
		}

		for _, prefix := range allowed {
			if strings.HasPrefix(source, prefix) {
				return ctx.Next()
			}
		}
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "referer not allowed"))
	}
}
