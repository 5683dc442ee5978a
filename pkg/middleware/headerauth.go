package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	appcontext "github.com/Ramsey-B/clover/pkg/context"
)

const (
	HeaderUserID      = "X-User-ID"
	HeaderUserEmail   = "X-User-Email"
	HeaderAccessToken = "X-Access-Token"
)

// HeaderAuth trusts identity headers when AUTH_ENABLED=false, so the API can be exercised
// without an identity provider. A bearer token is taken as the access token when
// X-Access-Token is absent.
//
// WARNING: Only use this when AUTH_ENABLED=false. Do not enable in production.
func HeaderAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()

			if userID := req.Header.Get(HeaderUserID); userID != "" {
				ctx = appcontext.SetUserID(ctx, userID)
			}
			if email := req.Header.Get(HeaderUserEmail); email != "" {
				ctx = appcontext.SetEmail(ctx, email)
			}

			token := req.Header.Get(HeaderAccessToken)
			if token == "" {
				if auth := req.Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
					token = strings.TrimPrefix(auth, "Bearer ")
				}
			}
			if token != "" {
				ctx = appcontext.SetAccessToken(ctx, token)
			}

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
