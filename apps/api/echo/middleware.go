package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/carline/core/access"
)

var adminRoles = []access.Role{access.RoleSuperAdmin, access.RoleAdmin}

// roleMiddleware restricts a route to the given roles.
func roleMiddleware(roles ...access.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p := getContextPrincipal(ctx)
			if !p.IsAuthenticated() {
				return access.ErrUnauthenticated
			}
			for _, role := range roles {
				if p.Role == role {
					return next(ctx)
				}
			}
			return &access.DeniedError{Role: p.Role, Reason: "permission denied"}
		}
	}
}
