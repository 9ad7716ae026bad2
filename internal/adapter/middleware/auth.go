// Package middleware contains the gin middleware that resolves the
// caller's identity from the session cookie.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zots0127/filebin/internal/session"
)

const userContextKey = "session-user"

// AccessGate turns session cookies into request identities. It is
// stateless per request; all state lives in the signed token.
type AccessGate struct {
	codec *session.Codec
}

func NewAccessGate(codec *session.Codec) *AccessGate {
	return &AccessGate{codec: codec}
}

// Enforce requires a valid session. On a missing or invalid token the
// cookie is cleared and the caller is redirected to the login page; the
// request goes no further.
func (g *AccessGate) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := g.resolve(c)
		if !ok {
			ClearSessionCookie(c)
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		c.Set(userContextKey, claims)
		c.Next()
	}
}

// Scan resolves the identity when a valid token is present and continues
// anonymously otherwise. Used on public pages that adapt to login state.
func (g *AccessGate) Scan() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := g.resolve(c); ok {
			c.Set(userContextKey, claims)
		}
		c.Next()
	}
}

func (g *AccessGate) resolve(c *gin.Context) (*session.Claims, bool) {
	token, err := c.Cookie(session.CookieName)
	if err != nil || token == "" {
		return nil, false
	}

	claims, err := g.codec.Verify(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// CurrentUser returns the identity attached by Enforce or Scan. The second
// return is false for anonymous requests.
func CurrentUser(c *gin.Context) (*session.Claims, bool) {
	v, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*session.Claims)
	return claims, ok
}

// SetSessionCookie installs the session token for the codec's validity
// window. The cookie is httpOnly so page scripts cannot read it.
func SetSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetCookie(session.CookieName, token, maxAge, "/", "", false, true)
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(c *gin.Context) {
	c.SetCookie(session.CookieName, "", -1, "/", "", false, true)
}
