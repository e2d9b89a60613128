package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims are the token claims issued by the portal's identity provider. The
// subject is the health worker or specialist id.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
	Name  string   `json:"name,omitempty"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey selects shared-secret validation instead of JWKS.
	SigningKey []byte
}

const keySetTTL = 5 * time.Minute

func (cfg JWTConfig) keySource() KeySource {
	if len(cfg.SigningKey) > 0 {
		return SharedSecret(cfg.SigningKey)
	}
	return NewRemoteKeySet(cfg.JWKSURL, keySetTTL)
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return token, nil
}

// JWTMiddleware resolves the caller identity from a bearer token. Requests
// without a valid token are rejected with 401 before reaching any handler.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return JWTWithKeys(cfg, cfg.keySource())
}

// JWTWithKeys is JWTMiddleware with an explicit key source.
func JWTWithKeys(cfg JWTConfig, keys KeySource) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods(keys.Methods()), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c.Request())
			if err != nil {
				return err
			}
			ctx := c.Request().Context()

			claims := &Claims{}
			_, err = parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				return keys.Key(ctx, t)
			})
			if err != nil || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(ctx, Identity{
				UserID: claims.Subject,
				Roles:  claims.Roles,
			})))
			return next(c)
		}
	}
}

// DevAuthMiddleware attaches a fixed identity to every request. X-Dev-User-ID
// overrides the user id. It is only wired when ENV=development.
func DevAuthMiddleware(dev Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := dev
			if uid := c.Request().Header.Get("X-Dev-User-ID"); uid != "" {
				id.UserID = uid
			}
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), id)))
			return next(c)
		}
	}
}
