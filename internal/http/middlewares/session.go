package middlewares

import (
	"context"
	"strings"

	"github.com/geocoder89/learnhub/internal/actorctx"
	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/gin-gonic/gin"
)

// AccessCookie carries the access token for browser clients that cannot set
// an Authorization header.
const AccessCookie = "access_token"

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) auth.Session
}

// Session resolves the caller once per request and stores the result on the
// gin context. It never aborts: unknown callers continue as anonymous.
func Session(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := resolver.ResolveSession(c.Request.Context(), bearerToken(c))
		c.Set(CtxSession, s)
		if !s.IsAnonymous() {
			c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), s.UserID()))
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if v, err := c.Cookie(AccessCookie); err == nil {
		return v
	}
	return ""
}

// SessionFrom returns the resolved session, or anonymous when the Session
// middleware did not run.
func SessionFrom(c *gin.Context) auth.Session {
	if v, ok := c.Get(CtxSession); ok {
		if s, ok := v.(auth.Session); ok {
			return s
		}
	}
	return auth.Anonymous()
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	s := SessionFrom(c)
	if s.IsAnonymous() {
		return "", false
	}
	return s.UserID(), true
}
