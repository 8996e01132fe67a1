package middlewares

import (
	"net/http"

	"github.com/geocoder89/learnhub/internal/gate"
	"github.com/gin-gonic/gin"
)

// Protect guards a route group with a gate. It must run after Session.
func Protect(req gate.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := SessionFrom(c)
		g := gate.New(req)

		state, _ := g.Settle(&s)

		switch state {
		case gate.Allowed:
			c.Next()
		case gate.Redirected:
			c.Redirect(http.StatusFound, req.RedirectTo)
			c.Abort()
		default:
			status := http.StatusForbidden
			if g.Reason() == gate.ReasonUnauthorized {
				status = http.StatusUnauthorized
			}
			c.AbortWithStatusJSON(status, gin.H{
				"error": gin.H{
					"code":      string(g.Reason()),
					"message":   g.Reason().Message(),
					"requestId": c.GetString(CtxRequestID),
				},
			})
		}
	}
}
