package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the validated shape of a caller identity token. The
// token only proves identity; the caller's role is resolved from storage on
// every call, never read from the token.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	jwt.RegisteredClaims
}

// AccessTokenPayload carries the fields minted into a fresh token.
type AccessTokenPayload struct {
	UserID uuid.UUID
	JTI    string
}
