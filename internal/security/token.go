package security

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "zonuko"

var (
	ErrInvalidToken = errors.New("invalid child token")
	ErrMissingToken = errors.New("missing bearer token")
)

type childClaims struct {
	jwt.RegisteredClaims
	AgeBand string `json:"age_band,omitempty"`
}

// ChildTokens issues and verifies HS256 tokens that identify a child. The
// subject is the child id.
type ChildTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewChildTokens(secret string, ttl time.Duration) (*ChildTokens, error) {
	if len(secret) < 32 {
		return nil, errors.New("child token secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ChildTokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for childID. The age band is informational only.
func (t *ChildTokens) Issue(childID int64, ageBand string) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := childClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(childID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		AgeBand: ageBand,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign child token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature, issuer and expiry and returns the child id.
func (t *ChildTokens) Verify(token string) (int64, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	claims := &childClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// NewRequestID returns a fresh id for request logging.
func NewRequestID() string {
	return uuid.New().String()
}
