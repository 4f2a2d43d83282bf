package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionTTL      = 7 * 24 * time.Hour
	SessionAudience = "session"
)

var ErrEmptySessionSubject = errors.New("session subject is required")

// SessionClaims is the payload of a session token. Role is carried as an
// opaque string; authorization decides what it means.
type SessionClaims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SessionCodec signs and verifies HS256 session tokens with a single
// process-wide secret.
type SessionCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionCodec(secret, issuer string) *SessionCodec {
	return &SessionCodec{secret: []byte(secret), issuer: issuer, ttl: SessionTTL, now: time.Now}
}

func (c *SessionCodec) TTL() time.Duration { return c.ttl }

func (c *SessionCodec) CreateSession(claims SessionClaims) (string, time.Time, error) {
	if strings.TrimSpace(claims.UserID) == "" {
		return "", time.Time{}, ErrEmptySessionSubject
	}
	now := c.now().UTC()
	exp := now.Add(c.ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   claims.UserID,
		Audience:  jwt.ClaimStrings{SessionAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// VerifySession reports (nil, false) for any malformed, foreign, expired or
// wrongly-signed token.
func (c *SessionCodec) VerifySession(token string) (*SessionClaims, bool) {
	if token == "" {
		return nil, false
	}
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(SessionAudience),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}

func (c *SessionCodec) keyFunc(*jwt.Token) (any, error) {
	return c.secret, nil
}
