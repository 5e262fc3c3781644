package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// clockSkew is tolerated on exp, nbf and iat.
const clockSkew = 30 * time.Second

// TokenVerifier validates HS256 bearer tokens issued by the planner front-end.
// The service never issues tokens itself.
type TokenVerifier struct {
	secretKey []byte
	parser    *jwt.Parser
}

// Claims are the claims read from a planner token. The acting user is
// user_id, or the subject when user_id is absent.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor returns the id of the user the token was issued to.
func (c *Claims) Actor() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// NewTokenVerifier creates a verifier for the shared secret. A non-empty
// issuer must match the iss claim.
func NewTokenVerifier(secretKey, issuer string) *TokenVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &TokenVerifier{
		secretKey: []byte(secretKey),
		parser:    jwt.NewParser(opts...),
	}
}

// Validate parses and validates a token, returning its claims.
func (v *TokenVerifier) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Actor() == "" {
		return nil, fmt.Errorf("%w: token names no user", ErrInvalidToken)
	}
	return claims, nil
}
