package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the roles carried in access tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID      string   `json:"user_id"`
	Role        UserRole `json:"role"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name"`
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token bypasses permission checks.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && (c.Role == RoleAdmin || c.Role == RoleSuperAdmin)
}

// HasPermission reports whether the token grants the permission code. Admins hold every permission.
func (c *JWTClaims) HasPermission(code string) bool {
	if c == nil {
		return false
	}
	if c.IsAdmin() {
		return true
	}
	for _, p := range c.Permissions {
		if p == code {
			return true
		}
	}
	return false
}
