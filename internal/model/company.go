package model

import (
	"time"

	"github.com/google/uuid"
)

// Company is the tenant boundary: sessions, movements, products, and sales
// are all exclusively owned by one company.
type Company struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name     string    `gorm:"not null"`
	Phone    *string
	Address  *string
	IsFormal bool `gorm:"not null;default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is an operator account. Role drives the capability checks.
// Role: "owner" | "manager" | "cashier"
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FullName     string     `gorm:"not null"`
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Role         string     `gorm:"type:varchar(20);not null;default:'cashier'"`
	CompanyID    *uuid.UUID `gorm:"type:uuid;index"`
	IsActive     bool       `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
