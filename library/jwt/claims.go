package jwt

import (
	jwtLib "github.com/golang-jwt/jwt/v5"
)

// UserClaims is the session token payload. Subject carries the user id.
type UserClaims struct {
	jwtLib.RegisteredClaims
	DisplayName string `json:"display_name,omitempty"`
}
