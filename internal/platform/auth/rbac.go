package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// Roles recognized by the triage endpoints.
const (
	RoleAdmin        = "admin"
	RoleHealthWorker = "health_worker"
	RoleSpecialist   = "specialist"
)

// Identity is the caller resolved by the authentication collaborator.
type Identity struct {
	UserID string
	Roles  []string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller identity; ok is false when none
// was attached.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

// UserUUID parses the caller id. A missing identity is 401; an id that is
// not a UUID cannot be resolved to a record and is 403.
func UserUUID(ctx context.Context) (uuid.UUID, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "caller identity required")
	}
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "caller identity cannot be resolved")
	}
	return uid, nil
}

// RequireRole admits callers holding at least one of roles. Admins are
// always admitted.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "caller identity required")
			}
			for _, has := range id.Roles {
				if has == RoleAdmin {
					return next(c)
				}
				for _, required := range roles {
					if has == required {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
