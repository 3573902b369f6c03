package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/UVU-Autograder/autograder-demo-sub000/internal/utils"
)

// InstructorRoles may call instructor-only endpoints.
var InstructorRoles = []string{"instructor", "teacher", "admin"}

// JWTProtected validates HS256 bearer tokens and stores the subject and role in locals.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if message := authenticate(c, secret); message != "" {
			return utils.SendError(c, fiber.StatusUnauthorized, message)
		}
		return c.Next()
	}
}

// InstructorAuth returns the guards for instructor routes: JWTProtected followed
// by RequireRole(InstructorRoles...). An empty secret disables authentication.
func InstructorAuth(secret string) []fiber.Handler {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return []fiber.Handler{JWTProtected(secret), RequireRole(InstructorRoles...)}
}

// authenticate verifies the bearer token and returns a failure message, or "" on success.
func authenticate(c *fiber.Ctx, secret string) string {
	authorization := c.Get(fiber.HeaderAuthorization)
	if authorization == "" {
		return "authorization header missing"
	}

	const bearer = "bearer "
	if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return "invalid authorization header"
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(authorization[len(bearer):]), claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "invalid token"
	}

	if subject, err := claims.GetSubject(); err == nil && subject != "" {
		c.Locals("user_id", subject)
	}
	if role := extractRole(claims); role != "" {
		c.Locals("user_role", role)
	}
	return ""
}

func extractRole(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		switch v := claims[key].(type) {
		case string:
			if role := strings.ToLower(strings.TrimSpace(v)); role != "" {
				return role
			}
		case []interface{}:
			for _, item := range v {
				if str, ok := item.(string); ok && strings.TrimSpace(str) != "" {
					return strings.ToLower(strings.TrimSpace(str))
				}
			}
		}
	}
	return ""
}
