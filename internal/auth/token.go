package auth

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/ledgerly/compliance-api/internal/models"
)

// Issuer is the iss claim stamped on every access token
const Issuer = "ca-compliance-api"

// TokenService issues and verifies HMAC-signed access tokens
type TokenService struct {
	secret    []byte
	algorithm jwa.SignatureAlgorithm
	expiry    time.Duration
}

// NewTokenService creates a token service for the given shared secret.
// algorithm must be one of HS256, HS384 or HS512.
func NewTokenService(secret, algorithm string, expiry time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("secret key must not be empty")
	}

	var alg jwa.SignatureAlgorithm
	switch algorithm {
	case "HS256":
		alg = jwa.HS256
	case "HS384":
		alg = jwa.HS384
	case "HS512":
		alg = jwa.HS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm: %s", algorithm)
	}

	if expiry <= 0 {
		expiry = 30 * time.Minute
	}

	return &TokenService{
		secret:    []byte(secret),
		algorithm: alg,
		expiry:    expiry,
	}, nil
}

// Issue creates a signed access token whose subject is the username
func (s *TokenService) Issue(username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("username must not be empty")
	}

	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(username).
		Issuer(Issuer).
		IssuedAt(now).
		Expiration(now.Add(s.expiry)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(s.algorithm, s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Verify validates the token signature and expiry and returns its claims
func (s *TokenService) Verify(tokenString string) (*models.TokenClaims, error) {
	tok, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(s.algorithm, s.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if tok.Subject() == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return &models.TokenClaims{
		Sub: tok.Subject(),
		Exp: tok.Expiration().Unix(),
		Iat: tok.IssuedAt().Unix(),
		Iss: tok.Issuer(),
	}, nil
}

// Expiry returns the configured token lifetime
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}
