package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/novus0x/nexolocal/internal/apierror"
)

// CashSessionStatus: "open" | "closed"
type CashSessionStatus string

const (
	CashSessionOpen   CashSessionStatus = "open"
	CashSessionClosed CashSessionStatus = "closed"
)

// CashSession represents one bounded period of drawer tracking for a company.
// At most one session per company may be open at a time, enforced by a
// partial unique index on (company_id) WHERE status = 'open'.
type CashSession struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	OpenedByID  uuid.UUID         `gorm:"type:uuid;not null"`
	Status      CashSessionStatus `gorm:"type:varchar(10);not null;default:'open'"`
	InitialCash decimal.Decimal   `gorm:"type:decimal(10,2);not null"`
	// Reconciliation fields are set exactly once, at close.
	ExpectedCash     *decimal.Decimal `gorm:"type:decimal(10,2)"`
	CountedCash      *decimal.Decimal `gorm:"type:decimal(10,2)"`
	Difference       *decimal.Decimal `gorm:"type:decimal(10,2)"`
	DifferenceExists bool             `gorm:"not null;default:false"`
	Description      *string          `gorm:"type:text"`
	OpenedAt         time.Time        `gorm:"not null;default:now()"`
	ClosedAt         *time.Time

	Movements []CashMovement `gorm:"foreignKey:CashSessionID"`
}

// CashMovementType: "sale" | "income" | "expense" | "withdraw" | "adjustment"
type CashMovementType string

const (
	MovementSale       CashMovementType = "sale"
	MovementIncome     CashMovementType = "income"
	MovementExpense    CashMovementType = "expense"
	MovementWithdraw   CashMovementType = "withdraw"
	MovementAdjustment CashMovementType = "adjustment"
)

// MovementInflows / MovementOutflows partition the types that move cash
// into and out of the drawer. Adjustments are excluded from both.
var (
	MovementInflows  = []CashMovementType{MovementSale, MovementIncome}
	MovementOutflows = []CashMovementType{MovementExpense, MovementWithdraw}
)

// CashMovement is an immutable event in a session's ledger.
// Movements are NEVER modified or deleted once written; the gorm hooks
// below reject any update or delete at the lowest layer.
type CashMovement struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashSessionID uuid.UUID        `gorm:"type:uuid;not null;index"`
	CompanyID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Type          CashMovementType `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	// PaymentMethod is null for non-payment types (e.g. adjustments).
	PaymentMethod *PaymentMethod `gorm:"type:varchar(20)"`
	Description   string
	// At most one related reference is populated, matching Type.
	RelatedSaleID    *uuid.UUID `gorm:"type:uuid"`
	RelatedIncomeID  *uuid.UUID `gorm:"type:uuid"`
	RelatedExpenseID *uuid.UUID `gorm:"type:uuid"`
	Date             time.Time  `gorm:"not null;default:now()"`
}

func (CashMovement) TableName() string { return "cash_movements" }

// BeforeUpdate rejects any mutation of a persisted movement.
func (CashMovement) BeforeUpdate(*gorm.DB) error {
	return apierror.E(apierror.KindImmutableRecord, "cash movements are write-once")
}

// BeforeDelete rejects deletion of a persisted movement.
func (CashMovement) BeforeDelete(*gorm.DB) error {
	return apierror.E(apierror.KindImmutableRecord, "cash movements are write-once")
}

// IsCash reports whether the movement funds or drains the physical drawer.
func (m *CashMovement) IsCash() bool {
	return m.PaymentMethod != nil && *m.PaymentMethod == PaymentCash
}
