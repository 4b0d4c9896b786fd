package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionCookieName = "admin_session"

// AuthManager mints and verifies short-lived admin session tokens. Tokens
// travel either as a Bearer header (API clients) or as an HttpOnly cookie
// (browser sessions).
type AuthManager struct {
	secret []byte
	secure bool // true in prod (TLS)
	ttl    time.Duration
}

func NewAuthManager(secret string, secure bool, ttl time.Duration) *AuthManager {
	return &AuthManager{
		secret: []byte(secret),
		secure: secure,
		ttl:    ttl, // e.g., 30 * time.Minute
	}
}

func (a *AuthManager) TTL() time.Duration { return a.ttl }

// AdminClaims is the payload carried by a session token. There is a single
// admin role, the claim exists so the token is self-describing.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Mint signs a fresh admin token and attaches it to the response as a
// session cookie. The signed token is also returned for Bearer clients.
func (a *AuthManager) Mint(w http.ResponseWriter) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   "admin",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, a.sessionCookie(signed, int(a.ttl.Seconds())))
	return signed, nil
}

// Clear expires the session cookie.
func (a *AuthManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, a.sessionCookie("", -1))
}

func (a *AuthManager) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ParseFromRequest pulls a token from the Authorization header or the session
// cookie, in that order. A present but non-Bearer header is rejected instead
// of silently falling through to the cookie.
func (a *AuthManager) ParseFromRequest(r *http.Request) (*AdminClaims, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		// The scheme is case-insensitive, the token is not.
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[len("bearer "):]))
		}
		return nil, errors.New("malformed authorization header")
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, errors.New("missing token")
}

func (a *AuthManager) parse(tok string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims,
		func(t *jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
