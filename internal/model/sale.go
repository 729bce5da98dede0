package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus: "pending" | "completed" | "cancelled" | "refunded"
type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	SaleRefunded  SaleStatus = "refunded"
)

// PaymentMethod: "cash" | "card" | "transfer" | "digital"
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentDigital  PaymentMethod = "digital"
)

// ParsePaymentMethod validates a raw payment method value.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(raw) {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentDigital:
		return PaymentMethod(raw), true
	}
	return "", false
}

// Sale aggregates the line items of one checkout. It is linked 1:1 to the
// Income record that recognizes its revenue, and weak-references Product
// through its items (the snapshot, not the live record, is authoritative
// for historical data).
type Sale struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceNumber  string          `gorm:"uniqueIndex;not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status         SaleStatus      `gorm:"type:varchar(20);not null;default:'pending'"`
	PaymentMethod  PaymentMethod   `gorm:"type:varchar(20);not null"`
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	SellerUserID   uuid.UUID       `gorm:"type:uuid;not null"`
	IncomeID       uuid.UUID       `gorm:"type:uuid;not null"`
	Date           time.Time       `gorm:"not null;default:now()"`

	Items  []SaleItem `gorm:"foreignKey:SaleID"`
	Income *Income    `gorm:"foreignKey:IncomeID"`
	Seller *User      `gorm:"foreignKey:SellerUserID"`
}

// SaleItem is a line-item snapshot: name and unit price are frozen at sale
// time so later product edits never rewrite history.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Name      string          `gorm:"not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IsService bool            `gorm:"not null;default:false"`
	Date      time.Time       `gorm:"not null;default:now()"`
}
