package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/dto"
	"github.com/novus0x/nexolocal/internal/model"
)

// ProductRepository defines the data access contract for products and their
// inventory batches. Services depend on this interface, not on the concrete
// GORM implementation, enabling clean unit testing via fakes.
//
// Only the allocator mutates batch stock and the denormalized product stock,
// always inside a caller-owned transaction.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	CreateTx(tx *gorm.DB, p *model.Product) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Product, error)
	FindByIdentifier(ctx context.Context, companyID uuid.UUID, identifier string) (*model.Product, error)
	Search(ctx context.Context, companyID uuid.UUID, query string, limit int) ([]model.Product, error)
	List(ctx context.Context, companyID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error)
	StockValue(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error)
	SKUExists(ctx context.Context, companyID uuid.UUID, sku string) (bool, error)
	UpdatePricesTx(tx *gorm.DB, id uuid.UUID, price, cost decimal.Decimal) error

	// Batches
	CreateBatchTx(tx *gorm.DB, b *model.ProductBatch) error
	ListBatches(ctx context.Context, productID uuid.UUID) ([]model.ProductBatch, error)
	// BatchesForAllocationTx returns the product's batches with stock > 0,
	// newest reception first, locked FOR UPDATE.
	BatchesForAllocationTx(tx *gorm.DB, productID uuid.UUID) ([]model.ProductBatch, error)
	// DecrementBatchStockTx performs the atomic conditional decrement
	// "stock = stock - qty WHERE stock >= qty". A zero row count means a
	// concurrent allocation won the race.
	DecrementBatchStockTx(tx *gorm.DB, batchID uuid.UUID, qty int) error
	AdjustStockTx(tx *gorm.DB, productID uuid.UUID, delta int) error

	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.CreateTx(r.db.WithContext(ctx), p)
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	if err := tx.Create(p).Error; err != nil {
		return apierror.Store(err)
	}
	return nil
}

func (r *productRepo) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.E(apierror.KindProductNotFound, "product not found")
		}
		return nil, apierror.Store(err)
	}
	return &p, nil
}

func (r *productRepo) FindByIdentifier(ctx context.Context, companyID uuid.UUID, identifier string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Where("identifier = ? AND company_id = ?", identifier, companyID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.E(apierror.KindProductNotFound, "product not found")
		}
		return nil, apierror.Store(err)
	}
	return &p, nil
}

func (r *productRepo) Search(ctx context.Context, companyID uuid.UUID, query string, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("name ILIKE ? OR identifier ILIKE ?", "%"+query+"%", "%"+query+"%").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, apierror.Store(err)
	}
	return products, nil
}

func (r *productRepo) List(ctx context.Context, companyID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("company_id = ? AND is_active = true", companyID)
	if filter.Query != "" {
		q = q.Where("name ILIKE ? OR identifier ILIKE ?", "%"+filter.Query+"%", "%"+filter.Query+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apierror.Store(err)
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	if err != nil {
		return nil, 0, apierror.Store(err)
	}
	return products, total, nil
}

func (r *productRepo) StockValue(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	var value decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("company_id = ? AND is_active = true", companyID).
		Select("COALESCE(SUM(stock * cost), 0)").
		Scan(&value).Error
	if err != nil {
		return decimal.Zero, apierror.Store(err)
	}
	return value, nil
}

func (r *productRepo) SKUExists(ctx context.Context, companyID uuid.UUID, sku string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("company_id = ? AND sku = ?", companyID, sku).
		Count(&count).Error
	if err != nil {
		return false, apierror.Store(err)
	}
	return count > 0, nil
}

func (r *productRepo) UpdatePricesTx(tx *gorm.DB, id uuid.UUID, price, cost decimal.Decimal) error {
	err := tx.Model(&model.Product{}).Where("id = ?", id).Updates(map[string]interface{}{
		"price": price,
		"cost":  cost,
	}).Error
	if err != nil {
		return apierror.Store(err)
	}
	return nil
}

func (r *productRepo) CreateBatchTx(tx *gorm.DB, b *model.ProductBatch) error {
	if err := tx.Create(b).Error; err != nil {
		return apierror.Store(err)
	}
	return nil
}

func (r *productRepo) ListBatches(ctx context.Context, productID uuid.UUID) ([]model.ProductBatch, error) {
	var batches []model.ProductBatch
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("date DESC").
		Find(&batches).Error
	if err != nil {
		return nil, apierror.Store(err)
	}
	return batches, nil
}

func (r *productRepo) BatchesForAllocationTx(tx *gorm.DB, productID uuid.UUID) ([]model.ProductBatch, error) {
	var batches []model.ProductBatch
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND stock > 0", productID).
		Order("date DESC").
		Find(&batches).Error
	if err != nil {
		return nil, apierror.Store(err)
	}
	return batches, nil
}

func (r *productRepo) DecrementBatchStockTx(tx *gorm.DB, batchID uuid.UUID, qty int) error {
	res := tx.Model(&model.ProductBatch{}).
		Where("id = ? AND stock >= ?", batchID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return apierror.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return apierror.E(apierror.KindConcurrencyConflict, "batch stock changed concurrently")
	}
	return nil
}

func (r *productRepo) AdjustStockTx(tx *gorm.DB, productID uuid.UUID, delta int) error {
	err := tx.Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
	if err != nil {
		return apierror.Store(err)
	}
	return nil
}
