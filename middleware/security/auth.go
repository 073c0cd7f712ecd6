package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pulsechat/gateway/global"
	"github.com/pulsechat/gateway/tools/errs"
	"github.com/pulsechat/gateway/tools/security"
)

// CtxUserIDKey is where the middleware stores the authenticated user
// id; downstream handlers read it with c.GetString.
const CtxUserIDKey = "authUserId"

type Options struct {
	HeaderToken               string // default "Authorization"
	EnableAuthorizationBearer bool   // default true
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "Authorization",
		EnableAuthorizationBearer: true,
	}
}

// Middleware verifies the session token on the request path. Missing
// or invalid tokens are rejected with 401; unlike the live path,
// the request path is never silent about auth failures.
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
		if opts.EnableAuthorizationBearer && strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[len("bearer "):])
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrAuthRequired)
			return
		}

		jwtOpts := security.DefaultOptions(global.Conf().JWTSecret)
		userID, err := security.Verify(jwtOpts, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired)
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}
