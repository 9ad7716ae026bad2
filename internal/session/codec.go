// Package session issues and verifies the signed tokens carried in the
// session cookie. Tokens are stateless: there is no server-side store and
// no revocation, a verified token is trusted until it expires.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zots0127/filebin/internal/domain/entities"
)

// CookieName is the cookie the session token travels in.
const CookieName = "access-token"

// DefaultTTL is the validity window of an issued token.
const DefaultTTL = 30 * 24 * time.Hour

// Claims is the fixed shape embedded in a session token. Only identity
// fields go in; nothing else from the user row is serialized.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	Username string `json:"username"`
}

// Codec signs and verifies session tokens with a process-wide secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: secret, ttl: ttl}
}

// TTL reports the validity window of tokens issued by this codec. The
// session cookie's max-age should match it.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue produces a signed token for the user, valid for the codec's TTL.
func (c *Codec) Issue(user *entities.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		UserID:   user.ID,
		Username: user.Username,
	})

	return token.SignedString(c.secret)
}

// Verify parses and validates a token. It returns entities.ErrInvalidSession
// for a bad signature, malformed token, or expired token. Callers handle the
// absent-token case themselves before calling.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.Join(entities.ErrInvalidSession, err)
	}

	return claims, nil
}
