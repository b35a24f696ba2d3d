package domain

import (
	"strconv"
	"time"
)

// User is a registered account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IDString returns the ID in the form used for logging and context values.
func (u *User) IDString() string {
	return strconv.FormatInt(u.ID, 10)
}
