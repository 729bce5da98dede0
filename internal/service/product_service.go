package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/dto"
	"github.com/novus0x/nexolocal/internal/model"
	"github.com/novus0x/nexolocal/internal/permission"
	"github.com/novus0x/nexolocal/internal/repository"
)

type ProductService interface {
	Create(ctx context.Context, actorID, companyID uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, actorID, companyID, productID uuid.UUID) (*dto.ProductDetailResponse, error)
	List(ctx context.Context, actorID, companyID uuid.UUID, filter dto.ProductFilter) (*dto.ProductListResponse, error)
}

type productService struct {
	products repository.ProductRepository
	cash     repository.CashRepository
	finance  repository.FinanceRepository
	perm     permission.Checker
}

func NewProductService(products repository.ProductRepository, cash repository.CashRepository, finance repository.FinanceRepository, perm permission.Checker) ProductService {
	return &productService{products: products, cash: cash, finance: finance, perm: perm}
}

// ── Create ────────────────────────────────────────────────────────────────────
// A tracked product with initial stock is received as its first batch; when
// that stock has a cost, the purchase is booked the same way later batch
// receptions are: a supplies Expense plus an expense movement in the open
// session's ledger. Service products skip inventory entirely.

func (s *productService) Create(ctx context.Context, actorID, companyID uuid.UUID, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.ProductsCreate); err != nil {
		return nil, err
	}

	price, err := parsePositiveAmount(req.Price)
	if err != nil {
		return nil, err
	}
	cost, err := parseAmount(req.Cost)
	if err != nil {
		return nil, err
	}
	if price.LessThan(cost) {
		return nil, apierror.E(apierror.KindInvalidAmount, "price must not be below cost")
	}
	stock, err := parseQuantity(req.Stock)
	if err != nil {
		return nil, err
	}
	bonus, err := parseQuantity(req.Bonus)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Identifier:     strings.TrimSpace(req.Identifier),
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		Price:          price,
		Cost:           cost,
		LowStockAlert:  req.LowStockAlert,
		TrackInventory: req.TrackInventory,
		IsService:      req.IsService,
		IsActive:       true,
		CompanyID:      companyID,
	}
	if product.IsService {
		product.TrackInventory = false
		stock, bonus = 0, 0
	}
	product.Stock = stock + bonus

	sku, err := s.resolveSKU(ctx, companyID, req.SKU)
	if err != nil {
		return nil, err
	}
	product.SKU = sku

	// Initial inventory enters as the product's first batch.
	var batch *model.ProductBatch
	if product.TrackInventory && product.Stock > 0 {
		received := time.Now().UTC()
		var expiry *time.Time
		if d, ok := parseFutureDate(req.ExpirationDate); ok {
			expiry = &d
		}
		batch = &model.ProductBatch{
			Stock:            product.Stock,
			StockBonus:       bonus,
			Price:            price,
			Cost:             cost,
			IsActive:         true,
			ExpirationActive: expiry != nil,
			ExpirationDate:   expiry,
			Date:             received,
		}
	}

	// Cost basis covers the paid units only; bonus units are free stock.
	totalCost := cost.Mul(decimal.NewFromInt(int64(stock)))

	err = runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		if err := s.products.CreateTx(tx, product); err != nil {
			return err
		}
		if batch == nil {
			return nil
		}
		batch.ProductID = product.ID

		if totalCost.IsPositive() {
			session, err := s.cash.FindOpenSessionTx(tx, companyID)
			if err != nil {
				return err
			}

			expense := &model.Expense{
				Name:         "Stock purchase: " + product.Name,
				Amount:       cost,
				TotalAmount:  totalCost,
				Category:     model.ExpenseSupplies,
				Status:       model.ExpensePaid,
				ApprovedByID: actorID,
				CompanyID:    companyID,
				Date:         batch.Date,
			}
			if err := s.finance.CreateExpenseTx(tx, expense); err != nil {
				return err
			}
			batch.ExpenseID = &expense.ID

			method := model.PaymentCash
			movement := &model.CashMovement{
				CashSessionID:    session.ID,
				CompanyID:        companyID,
				Type:             model.MovementExpense,
				Amount:           totalCost,
				PaymentMethod:    &method,
				Description:      "Stock purchase: " + product.Name,
				RelatedExpenseID: &expense.ID,
				Date:             batch.Date,
			}
			if err := s.cash.AppendMovementTx(tx, movement); err != nil {
				return err
			}
		}

		return s.products.CreateBatchTx(tx, batch)
	})
	if err != nil {
		return nil, err
	}

	return productToDTO(product), nil
}

// resolveSKU uses the client value when given, otherwise derives one, and
// re-derives on collision within the company.
func (s *productService) resolveSKU(ctx context.Context, companyID uuid.UUID, raw string) (string, error) {
	sku := strings.TrimSpace(raw)
	for i := 0; ; i++ {
		if sku == "" || sku == "0" || i > 0 {
			sku = strings.ToUpper(uuid.NewString()[:8])
		}
		exists, err := s.products.SKUExists(ctx, companyID, sku)
		if err != nil {
			return "", err
		}
		if !exists {
			return sku, nil
		}
		if i >= 5 {
			return "", apierror.E(apierror.KindConcurrencyConflict, "could not allocate a SKU")
		}
	}
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *productService) Get(ctx context.Context, actorID, companyID, productID uuid.UUID) (*dto.ProductDetailResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.ProductsRead); err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	batches, err := s.products.ListBatches(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProductDetailResponse{
		ProductResponse: *productToDTO(product),
		LowStockAlert:   product.LowStockAlert,
		TrackInventory:  product.TrackInventory,
	}
	for i := range batches {
		resp.Batches = append(resp.Batches, *batchToDTO(&batches[i]))
	}
	return resp, nil
}

func (s *productService) List(ctx context.Context, actorID, companyID uuid.UUID, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.ProductsRead); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 15
	}

	products, total, err := s.products.List(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	stockValue, err := s.products.StockValue(ctx, companyID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProductListResponse{
		StockValue: stockValue,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}
	for i := range products {
		resp.Products = append(resp.Products, *productToDTO(&products[i]))
	}
	return resp, nil
}
