package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/model"
)

type CompanyRepository interface {
	Create(ctx context.Context, c *model.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
}

type companyRepo struct{ db *gorm.DB }

func NewCompanyRepository(db *gorm.DB) CompanyRepository { return &companyRepo{db: db} }

func (r *companyRepo) Create(ctx context.Context, c *model.Company) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return apierror.Store(err)
	}
	return nil
}

func (r *companyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var c model.Company
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.E(apierror.KindNotFound, "company not found")
	}
	if err != nil {
		return nil, apierror.Store(err)
	}
	return &c, nil
}
