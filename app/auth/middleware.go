package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
)

const contextUserKey = "auth.user"

type errorBody struct {
	Error string `json:"error"`
}

// OptionalUser attaches the user when a valid bearer token is present and
// lets anonymous requests through. An invalid token is still rejected.
func OptionalUser(jwtService *JWTService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, present, ok := bearerToken(ctx.Request())
			if !present {
				return next(ctx)
			}
			if !ok {
				return ctx.JSON(http.StatusUnauthorized, &errorBody{Error: "invalid authorization header"})
			}
			claims, err := jwtService.Validate(token)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, &errorBody{Error: "invalid or expired token"})
			}
			ctx.Set(contextUserKey, jwtService.User(claims))
			return next(ctx)
		}
	}
}

func RequireUser(jwtService *JWTService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return OptionalUser(jwtService)(func(ctx echo.Context) error {
			if UserFromContext(ctx) == nil {
				return ctx.JSON(http.StatusUnauthorized, &errorBody{Error: "missing authorization header"})
			}
			return next(ctx)
		})
	}
}

func RequireAdmin(jwtService *JWTService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireUser(jwtService)(func(ctx echo.Context) error {
			if !UserFromContext(ctx).IsAdmin {
				return ctx.JSON(http.StatusForbidden, &errorBody{Error: "forbidden"})
			}
			return next(ctx)
		})
	}
}

// UserFromContext returns nil for anonymous requests.
func UserFromContext(ctx echo.Context) *entity.User {
	user, _ := ctx.Get(contextUserKey).(*entity.User)
	return user
}

func bearerToken(r *http.Request) (token string, present bool, ok bool) {
	header := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	if header == "" {
		return "", false, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, false
	}
	return strings.TrimSpace(parts[1]), true, true
}
