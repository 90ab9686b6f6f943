package types

import "github.com/golang-jwt/jwt/v5"

// Claims represents the JWT claims. Subject carries the user id.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller placed in the request context
type Principal struct {
	UserID   string
	Username string
	Email    string
	Role     string
}

// IsAdmin reports whether the caller holds the admin role
func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

// Principal extracts the caller identity from verified claims
func (c *Claims) Principal() Principal {
	return Principal{
		UserID:   c.Subject,
		Username: c.Username,
		Email:    c.Email,
		Role:     c.Role,
	}
}
