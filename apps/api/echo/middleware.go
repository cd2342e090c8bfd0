package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// guardianMiddleware lets guardians through; with roles, one of them is also required.
func guardianMiddleware(roles ...string) echo.MiddlewareFunc {
	return claimsMiddleware(func(c Claims) bool {
		return c.IsGuardian && hasAnyRole(c, roles)
	})
}

// coachMiddleware lets nunus and guardians through.
func coachMiddleware() echo.MiddlewareFunc {
	return claimsMiddleware(func(c Claims) bool {
		return c.IsNunu || c.IsGuardian
	})
}

func claimsMiddleware(allowed func(Claims) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if allowed(claims) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func hasAnyRole(c Claims, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		for _, own := range c.Roles {
			if role == own {
				return true
			}
		}
	}
	return false
}
