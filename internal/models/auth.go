package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor returns the display identity recorded in audit trails.
func (c *JWTClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	name := c.FullName
	if name == "" {
		name = c.Email
	}
	return Actor{ID: c.UserID, Role: string(c.Role), Name: name}
}

// Actor identifies who performed a state change.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}
