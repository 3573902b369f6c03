package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := roleSet(roles)
	return func(c *fiber.Ctx) error {
		if !hasRole(c, allowed) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

func roleSet(roles []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := strings.ToLower(strings.TrimSpace(role)); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}
	return allowed
}

func hasRole(c *fiber.Ctx, allowed map[string]struct{}) bool {
	role, _ := c.Locals("user_role").(string)
	_, ok := allowed[strings.ToLower(strings.TrimSpace(role))]
	return ok
}
