package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func roleApp(role string, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != "" {
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	app.Use(guard)
	app.Get("/bulk", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		role   string
		status int
	}{
		{role: "Instructor", status: fiber.StatusOK},
		{role: "teacher", status: fiber.StatusOK},
		{role: "student", status: fiber.StatusForbidden},
		{role: "", status: fiber.StatusForbidden},
	}

	for _, tc := range cases {
		app := roleApp(tc.role, RequireRole(InstructorRoles...))
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/bulk", nil))
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, tc.role)
	}
}
