package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaffUser is a staff account that can sign in and operate the system.
type StaffUser struct {
	StaffID      string `gorm:"primarykey;column:staff_id" json:"staffId"`
	Username     string `gorm:"column:username;not null;unique" json:"username"`
	FirstName    string `gorm:"column:first_name" json:"firstName"`
	LastName     string `gorm:"column:last_name" json:"lastName"`
	Email        string `gorm:"column:email" json:"email"`
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	IsSuperuser  bool   `gorm:"column:is_superuser;default:false" json:"isSuperuser"`
	IsActive     bool   `gorm:"column:is_active;default:true" json:"isActive"`
	BaseModel
}

// TableName sets the table name for GORM
func (StaffUser) TableName() string {
	return "staff_users"
}

// StaffClaims is the JWT payload issued at staff login.
type StaffClaims struct {
	Username    string `json:"username"`
	IsSuperuser bool   `json:"isSuperuser"`
	jwt.RegisteredClaims
}

// AuthenticatedStaff is the request-scoped identity attached by the auth
// middleware after token validation.
type AuthenticatedStaff struct {
	StaffID     string
	Username    string
	IsSuperuser bool
	ExpiresAt   time.Time
}

// IsTokenExpired reports whether the staff token has expired.
func (s *AuthenticatedStaff) IsTokenExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
