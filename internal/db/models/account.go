package models

import "time"

type AccountRole string

const (
	RoleInternal AccountRole = "internal"
	RoleCustomer AccountRole = "customer"
	RoleSigner   AccountRole = "signer"
)

type Account struct {
	ID           string      `gorm:"primaryKey"`
	Name         string      `gorm:"not null"`
	Email        string      `gorm:"uniqueIndex;not null"`
	PasswordHash string      // bcrypt; set to a random credential for implicitly created accounts
	Role         AccountRole `gorm:"not null;default:'customer'"`
	Active       bool        `gorm:"not null;default:true"`
	Verified     bool        `gorm:"not null;default:false"`
	CreatedAt    time.Time
}
