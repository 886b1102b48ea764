// Package guard provides gin middleware that gates routes on the session
// state of the controller injected by authctx.Inject.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authkit/authctx"
	"github.com/kbukum/authkit/token"
)

// Defaults for the redirect targets.
const (
	DefaultLoginPath = "/login"
	DefaultHomePath  = "/"
)

// ParamFrom carries the originally requested location to the login page.
const ParamFrom = "from"

// UserKey is the gin context key holding the *token.User of an
// authenticated request.
const UserKey = "authkit.user"

// Protected lets authenticated requests through and redirects the rest to
// fallback?from=<requested path>. It waits for hydration first, bounded by
// the request context. An empty fallback means DefaultLoginPath.
func Protected(fallback string) gin.HandlerFunc {
	if fallback == "" {
		fallback = DefaultLoginPath
	}
	return func(c *gin.Context) {
		ctrl := authctx.MustController(c.Request.Context())
		if err := ctrl.Wait(c.Request.Context()); err != nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		st := ctrl.State()
		if !st.IsAuthenticated {
			target := withFrom(fallback, c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Set(UserKey, st.User)
		c.Next()
	}
}

// PublicOnly redirects authenticated requests away from pages such as login
// and signup: to the from query parameter when it names a local path,
// otherwise to fallback. An empty fallback means DefaultHomePath.
func PublicOnly(fallback string) gin.HandlerFunc {
	if fallback == "" {
		fallback = DefaultHomePath
	}
	return func(c *gin.Context) {
		ctrl := authctx.MustController(c.Request.Context())
		if err := ctrl.Wait(c.Request.Context()); err != nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}

		if !ctrl.State().IsAuthenticated {
			c.Next()
			return
		}
		target := fallback
		if from := c.Query(ParamFrom); isLocalPath(from) {
			target = from
		}
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// User returns the user stored by Protected.
func User(c *gin.Context) (*token.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*token.User)
	return u, ok && u != nil
}

func withFrom(target, from string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(ParamFrom, from)
	u.RawQuery = q.Encode()
	return u.String()
}

// isLocalPath rejects absolute and scheme-relative URLs so from cannot
// redirect off site.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
