// Package authctx carries a session.Controller through a context.Context.
//
// The controller is owned by whoever created it; this package only makes it
// reachable from request handlers without threading it through every call.
package authctx

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/session"
)

type ctxKey struct{}

// GinKey is the gin context key Inject stores the controller under.
const GinKey = "authkit.controller"

// WithController returns a copy of ctx carrying c.
func WithController(ctx context.Context, c *session.Controller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Controller returns the controller carried by ctx.
func Controller(ctx context.Context) (*session.Controller, bool) {
	c, ok := ctx.Value(ctxKey{}).(*session.Controller)
	return c, ok && c != nil
}

// MustController returns the controller carried by ctx and panics if there
// is none. A missing controller is a wiring mistake, not a runtime condition.
func MustController(ctx context.Context) *session.Controller {
	c, ok := Controller(ctx)
	if !ok {
		panic("authctx: no session.Controller in context; wrap the handler with authctx.Inject")
	}
	return c
}

// Inject is a gin middleware that makes c available to downstream handlers,
// both on the request context and under GinKey.
func Inject(c *session.Controller) gin.HandlerFunc {
	return func(gc *gin.Context) {
		gc.Request = gc.Request.WithContext(WithController(gc.Request.Context(), c))
		gc.Set(GinKey, c)
		gc.Next()
	}
}
