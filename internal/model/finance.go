package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IncomeStatus: "pending" | "received"
type IncomeStatus string

const (
	IncomePending  IncomeStatus = "pending"
	IncomeReceived IncomeStatus = "received"
)

// Income is a revenue record. Every completed sale is linked 1:1 to one.
type Income struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"not null"`
	Description *string
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status      IncomeStatus    `gorm:"type:varchar(20);not null;default:'pending'"`

	ApprovedByID uuid.UUID `gorm:"type:uuid;not null"`
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Date         time.Time `gorm:"not null;default:now()"`
	UpdatedAt    time.Time
}

// ExpenseStatus: "pending" | "paid"
type ExpenseStatus string

const (
	ExpensePending ExpenseStatus = "pending"
	ExpensePaid    ExpenseStatus = "paid"
)

// ExpenseCategory: "supplies" | "services" | "payroll" | "other"
type ExpenseCategory string

const (
	ExpenseSupplies ExpenseCategory = "supplies"
	ExpenseServices ExpenseCategory = "services"
	ExpensePayroll  ExpenseCategory = "payroll"
	ExpenseOther    ExpenseCategory = "other"
)

// Expense is a cost record. Inventory purchases (batch receptions) create
// one automatically as the batch's cost basis.
type Expense struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"not null"`
	Description *string
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Category    ExpenseCategory `gorm:"type:varchar(20);not null;default:'other'"`
	Status      ExpenseStatus   `gorm:"type:varchar(20);not null;default:'pending'"`

	ApprovedByID uuid.UUID `gorm:"type:uuid;not null"`
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Date         time.Time `gorm:"not null;default:now()"`
	UpdatedAt    time.Time
}
