package repository

import (
	"gorm.io/gorm"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/model"
)

// FinanceRepository persists income and expense records. Both are created
// inside the same transaction as the sale or batch reception that produced
// them, so only Tx variants exist.
type FinanceRepository interface {
	CreateIncomeTx(tx *gorm.DB, i *model.Income) error
	CreateExpenseTx(tx *gorm.DB, e *model.Expense) error
	DB() *gorm.DB
}

type financeRepo struct{ db *gorm.DB }

func NewFinanceRepository(db *gorm.DB) FinanceRepository { return &financeRepo{db: db} }

func (r *financeRepo) DB() *gorm.DB { return r.db }

func (r *financeRepo) CreateIncomeTx(tx *gorm.DB, i *model.Income) error {
	if err := tx.Create(i).Error; err != nil {
		return apierror.Store(err)
	}
	return nil
}

func (r *financeRepo) CreateExpenseTx(tx *gorm.DB, e *model.Expense) error {
	if err := tx.Create(e).Error; err != nil {
		return apierror.Store(err)
	}
	return nil
}
