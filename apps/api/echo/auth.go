package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/carline/core"
	"github.com/trezcool/carline/core/access"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
	}

	// readJWTConfig lets requests without a token through, unauthenticated.
	readJWTConfig = func() middleware.JWTConfig {
		conf := appJWTConfig
		conf.Skipper = func(ctx echo.Context) bool {
			return ctx.Request().Header.Get(echo.HeaderAuthorization) == ""
		}
		return conf
	}()
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name        string             `json:"name,omitempty"`
	Email       string             `json:"email,omitempty"`
	Role        access.Role        `json:"role"`
	Campuses    []string           `json:"campuses,omitempty"`
	Permissions access.Permissions `json:"permissions,omitempty"`
}

// GetPrincipalClaims builds the claims of a principal synced from the identity provider.
func GetPrincipalClaims(p access.Principal, ttl ...time.Duration) *Claims {
	now := core.NowFunc()
	exp := core.Conf.Server.JWTExpirationDelta
	if len(ttl) > 0 {
		exp = ttl[0]
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   p.ID,
			Audience:  "Carline",
			ExpiresAt: now.Add(exp).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:        p.Name,
		Email:       p.Email,
		Role:        p.Role,
		Campuses:    p.Campuses,
		Permissions: p.Permissions,
	}
}

func (c Claims) Principal() *access.Principal {
	return &access.Principal{
		ID:          c.Subject,
		Name:        c.Name,
		Email:       c.Email,
		Role:        c.Role,
		Campuses:    c.Campuses,
		Permissions: c.Permissions,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextPrincipal returns nil for unauthenticated requests.
func getContextPrincipal(ctx echo.Context) *access.Principal {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil
	}
	return claims.Principal()
}

var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
