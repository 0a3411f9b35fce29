package models

import (
	"strings"
	"time"
)

// CustomerProfile is the CRM record used for order ownership and contact info.
// It is distinct from the login identity carried by the Principal.
type CustomerProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"` // case-sensitive as stored
	Name      string    `gorm:"not null" json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Active    bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the CustomerProfile model
func (CustomerProfile) TableName() string {
	return "customers"
}

// DefaultNameForEmail returns the local-part of an email address
func DefaultNameForEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
