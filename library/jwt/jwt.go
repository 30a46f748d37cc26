// Package jwt issues and verifies signed session tokens.
package jwt

import (
	"time"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	jwtLib "github.com/golang-jwt/jwt/v5"
)

// DefaultLifetime is how long an issued token stays valid.
const DefaultLifetime = 7 * 24 * time.Hour

// ErrInvalidToken covers bad signature, malformed payload and expiry.
// Deliberately indistinguishable to callers, all three mean "log in again".
var ErrInvalidToken = errors.New("invalid token")

// JWT signs and verifies session tokens with a process-wide HS256 secret.
type JWT struct {
	secret   []byte
	lifetime time.Duration
}

// New creates a token issuer/verifier.
func New(secret []byte, lifetime time.Duration) (*JWT, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty jwt secret")
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	return &JWT{secret: secret, lifetime: lifetime}, nil
}

// Sign issues a token bound to userID.
func (j *JWT) Sign(userID, displayName string) (string, error) {
	now := gutils.Clock.GetUTCNow()
	uc := &UserClaims{
		RegisteredClaims: jwtLib.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtLib.NewNumericDate(now),
			ExpiresAt: jwtLib.NewNumericDate(now.Add(j.lifetime)),
		},
		DisplayName: displayName,
	}

	token, err := jwtLib.NewWithClaims(jwtLib.SigningMethodHS256, uc).
		SignedString(j.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return token, nil
}

// Verify parses the token and returns its claims,
// or ErrInvalidToken if the token cannot be trusted.
func (j *JWT) Verify(tokenStr string) (*UserClaims, error) {
	uc := new(UserClaims)
	token, err := jwtLib.ParseWithClaims(tokenStr, uc,
		func(t *jwtLib.Token) (any, error) {
			if _, ok := t.Method.(*jwtLib.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return j.secret, nil
		},
		jwtLib.WithValidMethods([]string{jwtLib.SigningMethodHS256.Alg()}),
		jwtLib.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if !token.Valid || uc.Subject == "" {
		return nil, errors.WithStack(ErrInvalidToken)
	}

	return uc, nil
}
