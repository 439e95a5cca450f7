package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dfrchat/backend/pkg/enums"
)

// TokenPayload captures the identity data embedded when minting a JWT.
type TokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.Role
	Name   string
}

// Claims is the typed JWT issued to clients. The role travels inside the
// token so permission checks never need a user lookup.
type Claims struct {
	UserID uuid.UUID  `json:"user_id"`
	Email  string     `json:"email"`
	Role   enums.Role `json:"role"`
	Name   string     `json:"name"`
	jwt.RegisteredClaims
}
