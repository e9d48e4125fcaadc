package models

import (
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

const DefaultTheme = "classic"

type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"`
	Role       Role               `bson:"role" json:"role"`
	Department string             `bson:"department,omitempty" json:"department,omitempty"`
	Avatar     string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Theme      string             `bson:"theme" json:"theme"`
	IsActive   bool               `bson:"isActive" json:"isActive"`

	VerificationCode   string     `bson:"verificationCode,omitempty" json:"-"`
	VerificationExpiry *time.Time `bson:"verificationExpiry,omitempty" json:"-"`
	CodeSentAt         *time.Time `bson:"codeSentAt,omitempty" json:"-"`
	CodeAttempts       int        `bson:"codeAttempts,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) ApplyDefaults() {
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.Theme == "" {
		u.Theme = DefaultTheme
	}
}

func (u *User) BeforeSave(now time.Time) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fieldError("name", "is required")
	}
	if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
		return fieldError("email", "must be a valid address")
	}
	if !u.Role.Valid() {
		return fieldError("role", "must be one of admin, manager, member")
	}
	if u.Password == "" {
		return fieldError("password", "is required")
	}
	return nil
}

// ClearVerification drops any pending login code.
func (u *User) ClearVerification() {
	u.VerificationCode = ""
	u.VerificationExpiry = nil
	u.CodeAttempts = 0
}

func (u *User) CanManage() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}
