package models

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of account roles. There is no hierarchy between
// them: an admin is not implicitly a regular user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleRegular Role = "regular"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleRegular:
		return true
	default:
		return false
	}
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

const (
	UsernameMaxLength = 150
	EmailMaxLength    = 254
	NameMaxLength     = 150
)

type User struct {
	ID       uuid.UUID `gorm:"primaryKey;type:uuid"`
	Username string    `gorm:"size:150;not null;uniqueIndex"`
	Email    string    `gorm:"size:254;not null;uniqueIndex"`
	Password string    `gorm:"not null"`
	Role     Role      `gorm:"size:10;not null;default:regular"`

	FirstName   string `gorm:"size:150"`
	LastName    string `gorm:"size:150"`
	IsActive    bool   `gorm:"not null;default:true"`
	LastLoginAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		u.ID = id
	}
	if u.Role == "" {
		u.Role = RoleRegular
	}
	if !u.Role.Valid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID       uuid.UUID
	Username string
	Role     Role
}

func (u *User) Principal() *Principal {
	return &Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}
