// Package tokens issues and validates the stateless bearer credentials that
// prove authenticated identity. Tokens are HS256-signed JWTs carrying a
// fixed, versioned claims shape; the only authorization-relevant claim is
// the user id. Role and membership are always re-resolved per request, so a
// token can outlive a role change without granting stale access.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClaimsVersion is the shape version stamped into every token. Validation
// rejects anything else, so claim layout changes can never be smuggled past
// an old decoder.
const ClaimsVersion = 1

// DefaultTTL applies when configuration does not set one.
const DefaultTTL = 24 * time.Hour

var (
	// ErrTokenInvalid covers tampering, wrong algorithm, malformed claims,
	// and unknown claim shapes.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired is returned only for a well-formed, correctly signed
	// token whose expiry has passed.
	ErrTokenExpired = errors.New("token has expired")
)

// Claims is the fixed token payload. No dynamic claim bag: unknown or
// missing fields fail validation instead of being duck-typed around.
type Claims struct {
	Version int `json:"v"`
	jwt.RegisteredClaims
}

// Service mints and validates session tokens. Built once at startup from
// the externalized signing secret; swapping the secret requires only a
// config change and restart.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a token Service. A non-positive ttl falls back to DefaultTTL;
// the empty secret is the caller's responsibility to reject (ValidateConfig
// fails fast on it outside dev).
func New(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue mints a signed token for the given user, valid for the configured
// TTL from now.
func (s *Service) Issue(userID primitive.ObjectID) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		Version: ClaimsVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Validate parses and verifies a token, returning the user id it was issued
// for. Expiry is reported as ErrTokenExpired; every other defect, including
// a bad signature on an expired token, is ErrTokenInvalid.
func (s *Service) Validate(tokenString string) (primitive.ObjectID, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		// Tampering trumps expiry: an expired token with a bad signature is
		// invalid, not expired.
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenMalformed) {
			return primitive.NilObjectID, ErrTokenInvalid
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return primitive.NilObjectID, ErrTokenExpired
		}
		return primitive.NilObjectID, ErrTokenInvalid
	}

	if claims.Version != ClaimsVersion {
		return primitive.NilObjectID, ErrTokenInvalid
	}
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, ErrTokenInvalid
	}
	return userID, nil
}
