package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	OTPTicketAudience = "otp"
	// OTPTicketGrace keeps a ticket decodable after its code expires so the
	// record store, not the token, decides expiry.
	OTPTicketGrace = 15 * time.Minute
)

var ErrInvalidOTPTicket = errors.New("invalid otp ticket")

// OTPTicketClaims binds a reset flow to an email and to one issuance via the
// jti claim. It never carries the code.
type OTPTicketClaims struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type OTPTicketCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewOTPTicketCodec(secret, issuer string) *OTPTicketCodec {
	return &OTPTicketCodec{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Sign issues a ticket for the code identified by issueID. The token outlives
// codeExpiresAt by OTPTicketGrace.
func (c *OTPTicketCodec) Sign(email, username, issueID string, codeExpiresAt time.Time) (string, error) {
	if issueID == "" {
		return "", errors.New("otp ticket requires an issue id")
	}
	now := c.now().UTC()
	claims := OTPTicketClaims{
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        issueID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{OTPTicketAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(codeExpiresAt.UTC().Add(OTPTicketGrace)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *OTPTicketCodec) Parse(ticket string) (*OTPTicketClaims, error) {
	if ticket == "" {
		return nil, ErrInvalidOTPTicket
	}
	claims := &OTPTicketClaims{}
	parsed, err := jwt.ParseWithClaims(ticket, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(OTPTicketAudience),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid || claims.Email == "" || claims.ID == "" {
		return nil, ErrInvalidOTPTicket
	}
	return claims, nil
}
