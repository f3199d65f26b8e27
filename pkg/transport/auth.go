package transport

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret = errors.New("signing secret cannot be empty")
	ErrInvalidTTL  = errors.New("token ttl must be positive")
)

// AuthProvider attaches credentials to an outgoing request.
type AuthProvider interface {
	Authorize(req *http.Request) error
}

// StaticToken sends a fixed bearer token on every request.
type StaticToken struct {
	token string
}

func NewStaticToken(token string) *StaticToken {
	return &StaticToken{token: token}
}

func (s *StaticToken) Authorize(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+s.token)
	return nil
}

// JWTSigner mints a short-lived HS256 token per request from a shared
// secret. Minting per request keeps tokens within TTL on long-lived clients
// without a refresh loop.
type JWTSigner struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time
}

func NewJWTSigner(secret, subject string, ttl time.Duration) (*JWTSigner, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	return &JWTSigner{
		secret:  []byte(secret),
		subject: subject,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

func (j *JWTSigner) Authorize(req *http.Request) error {
	now := j.now()
	claims := jwt.RegisteredClaims{
		Subject:   j.subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+signed)
	return nil
}
