package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is where the portal session token lives.
	CookieName = "auth_token"

	// TokenDuration balances security with convenience for a client portal
	// that is visited every few days during a project.
	TokenDuration = 7 * 24 * time.Hour
)

// Claims is the JWT payload for a portal session.
type Claims struct {
	ClientID string `json:"clientId"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies portal session tokens.
type TokenService struct {
	secret   []byte
	isSecure bool
	now      func() time.Time
}

// NewTokenService creates a token service. isSecure controls the cookie
// Secure flag (true outside development).
func NewTokenService(secret string, isSecure bool) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		isSecure: isSecure,
		now:      time.Now,
	}
}

// CreateToken signs a token for the given client.
func (s *TokenService) CreateToken(clientID, email string) (string, error) {
	now := s.now()
	claims := Claims{
		ClientID: clientID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a token, returning its claims.
func (s *TokenService) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// SetCookie writes the session cookie on the response.
func (s *TokenService) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenDuration.Seconds()),
		HttpOnly: true,
		Secure:   s.isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *TokenService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest extracts and verifies the session token from a request's
// cookie. Returns nil claims when the request carries no valid session.
func (s *TokenService) FromRequest(r *http.Request) *Claims {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	claims, err := s.VerifyToken(cookie.Value)
	if err != nil {
		return nil
	}
	return claims
}
