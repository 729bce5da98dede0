package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item or service owned by one company.
// Stock is denormalized: at rest it always equals the sum of the stock of
// the product's batches. Service products never track inventory.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SKU         string          `gorm:"not null"`
	Identifier  string          `gorm:"not null;index"`
	Name        string          `gorm:"not null;index"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Cost        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`

	Stock          int  `gorm:"not null;default:0"`
	LowStockAlert  int  `gorm:"not null;default:5"`
	TrackInventory bool `gorm:"not null;default:false"`

	IsService bool `gorm:"not null;default:false"`
	IsActive  bool `gorm:"not null;default:true"`

	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Batches []ProductBatch `gorm:"foreignKey:ProductID"`
}

// ProductBatch is a discrete lot of inventory with its own cost basis.
// A drained batch (stock=0) stays as a historical record, never deleted.
// StockBonus is the promotional portion included in Stock but tracked
// separately for reporting.
type ProductBatch struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Stock      int             `gorm:"not null;default:0"`
	StockBonus int             `gorm:"not null;default:0"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Cost       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`

	IsActive         bool       `gorm:"not null;default:true"`
	ExpirationActive bool       `gorm:"not null;default:true"`
	ExpirationDate   *time.Time `gorm:"type:timestamptz"`

	// ExpenseID links the batch to its purchase expense (cost basis).
	ExpenseID *uuid.UUID `gorm:"type:uuid"`

	// Date is the reception date, the allocation ordering key.
	Date      time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time
}

func (ProductBatch) TableName() string { return "product_batches" }
