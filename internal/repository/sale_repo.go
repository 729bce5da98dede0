package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/dto"
	"github.com/novus0x/nexolocal/internal/model"
)

type SaleRepository interface {
	// CreateTx persists the sale and its item snapshots in the caller's
	// transaction (Items are inserted via the association).
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Sale, error)
	// FindByIDAny loads a sale without tenant scoping, internal use only
	// (receipt rendering already owns a trusted sale id).
	FindByIDAny(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	InvoiceNumberExistsTx(tx *gorm.DB, invoice string) (bool, error)
	List(ctx context.Context, companyID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error)
	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	if err := tx.Create(s).Error; err != nil {
		return apierror.Store(err)
	}
	return nil
}

func (r *saleRepo) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Seller").
		Where("id = ? AND company_id = ?", id, companyID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.E(apierror.KindNotFound, "sale not found")
		}
		return nil, apierror.Store(err)
	}
	return &s, nil
}

func (r *saleRepo) FindByIDAny(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.E(apierror.KindNotFound, "sale not found")
		}
		return nil, apierror.Store(err)
	}
	return &s, nil
}

func (r *saleRepo) InvoiceNumberExistsTx(tx *gorm.DB, invoice string) (bool, error) {
	var count int64
	err := tx.Model(&model.Sale{}).Where("invoice_number = ?", invoice).Count(&count).Error
	if err != nil {
		return false, apierror.Store(err)
	}
	return count > 0, nil
}

func (r *saleRepo) List(ctx context.Context, companyID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{}).Where("company_id = ?", companyID)
	if filter.Query != "" {
		q = q.Where("invoice_number ILIKE ?", "%"+filter.Query+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apierror.Store(err)
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("date DESC").Limit(filter.Limit).Offset(offset).Find(&sales).Error
	if err != nil {
		return nil, 0, apierror.Store(err)
	}
	return sales, total, nil
}
