package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/dto"
	"github.com/novus0x/nexolocal/internal/model"
	"github.com/novus0x/nexolocal/internal/nxid"
	"github.com/novus0x/nexolocal/internal/permission"
	"github.com/novus0x/nexolocal/internal/repository"
)

const (
	invoiceRetryLimit = 5
	searchCacheTTL    = 60 * time.Second
)

// ReceiptDispatcher enqueues post-sale receipt delivery. Implemented by the
// worker package; nil disables delivery.
type ReceiptDispatcher interface {
	EnqueueReceipt(ctx context.Context, saleID uuid.UUID, email string) error
}

type SaleService interface {
	CreateSale(ctx context.Context, actorID, companyID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleCreatedResponse, error)
	GetSale(ctx context.Context, actorID, companyID, saleID uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, actorID, companyID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	// LookupProduct resolves a scanned identifier to a sellable product.
	LookupProduct(ctx context.Context, actorID, companyID uuid.UUID, identifier string) (*dto.ProductResponse, error)
	SearchProducts(ctx context.Context, actorID, companyID uuid.UUID, query string) ([]dto.ProductResponse, error)
}

type saleService struct {
	sales     repository.SaleRepository
	products  repository.ProductRepository
	cash      repository.CashRepository
	finance   repository.FinanceRepository
	inventory InventoryService
	perm      permission.Checker
	cache     *redis.Client
	receipts  ReceiptDispatcher
}

func NewSaleService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	cash repository.CashRepository,
	finance repository.FinanceRepository,
	inventory InventoryService,
	perm permission.Checker,
	cache *redis.Client,
	receipts ReceiptDispatcher,
) SaleService {
	return &saleService{
		sales: sales, products: products, cash: cash, finance: finance,
		inventory: inventory, perm: perm, cache: cache, receipts: receipts,
	}
}

// ── CreateSale ────────────────────────────────────────────────────────────────
// One transaction covers the whole checkout: the open session row is locked
// first (serializing checkouts per company), every line is resolved and its
// stock allocated, then the sale with its frozen line snapshots, the Income
// marked received and the ledger movement are written together. Any failure
// rolls all of it back, leaving no partial allocation behind.

func (s *saleService) CreateSale(ctx context.Context, actorID, companyID uuid.UUID, req dto.CreateSaleRequest) (*dto.SaleCreatedResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.SalesCreate); err != nil {
		return nil, err
	}

	method, ok := model.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, apierror.Ef(apierror.KindInvalidPaymentMethod, "unknown payment method %q", req.PaymentMethod)
	}
	if len(req.Items) == 0 {
		return nil, apierror.E(apierror.KindInvalidLineItem, "a sale needs at least one item")
	}

	type line struct {
		productID uuid.UUID
		qty       int
	}
	lines := make([]line, 0, len(req.Items))
	for i, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apierror.E(apierror.KindInvalidLineItem, "invalid product id").
				WithField("line", strconv.Itoa(i))
		}
		if item.Quantity < 1 {
			return nil, apierror.E(apierror.KindInvalidLineItem, "quantity must be at least 1").
				WithField("line", strconv.Itoa(i))
		}
		lines = append(lines, line{productID: pid, qty: item.Quantity})
	}

	var sale *model.Sale
	err := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		session, err := s.cash.FindOpenSessionTx(tx, companyID)
		if err != nil {
			return err
		}

		invoice, err := s.uniqueInvoiceTx(tx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		sale = &model.Sale{
			InvoiceNumber: invoice,
			Status:        model.SaleCompleted,
			PaymentMethod: method,
			CompanyID:     companyID,
			SellerUserID:  actorID,
			Date:          now,
		}

		subtotal := decimal.Zero
		for i, l := range lines {
			product, err := s.products.FindByID(ctx, companyID, l.productID)
			if err != nil {
				if apierror.IsKind(err, apierror.KindProductNotFound) {
					return apierror.E(apierror.KindProductNotFound, "product does not exist").
						WithField("line", strconv.Itoa(i))
				}
				return err
			}
			if !product.IsActive {
				return apierror.E(apierror.KindInvalidLineItem, "product is not sellable").
					WithField("line", strconv.Itoa(i))
			}

			if _, err := s.inventory.AllocateTx(tx, product, l.qty); err != nil {
				return err
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(l.qty)))
			sale.Items = append(sale.Items, model.SaleItem{
				ProductID: product.ID,
				Name:      product.Name,
				Quantity:  l.qty,
				UnitPrice: product.Price,
				Total:     lineTotal,
				IsService: product.IsService,
				Date:      now,
			})
			subtotal = subtotal.Add(lineTotal)
		}

		sale.Subtotal = subtotal
		sale.Total = subtotal

		income := &model.Income{
			Name:         "Sale " + invoice,
			Amount:       sale.Total,
			Status:       model.IncomeReceived,
			ApprovedByID: actorID,
			CompanyID:    companyID,
			Date:         now,
		}
		if err := s.finance.CreateIncomeTx(tx, income); err != nil {
			return err
		}
		sale.IncomeID = income.ID

		if err := s.sales.CreateTx(tx, sale); err != nil {
			return err
		}

		movement := &model.CashMovement{
			CashSessionID: session.ID,
			CompanyID:     companyID,
			Type:          model.MovementSale,
			Amount:        sale.Total,
			PaymentMethod: &method,
			Description:   "Sale " + invoice,
			RelatedSaleID: &sale.ID,
			Date:          now,
		}
		return s.cash.AppendMovementTx(tx, movement)
	})
	if err != nil {
		return nil, err
	}

	// Receipt delivery is best-effort after commit: a queue failure never
	// voids a completed sale.
	if req.ReceiptEmail != nil && s.receipts != nil {
		if err := s.receipts.EnqueueReceipt(ctx, sale.ID, *req.ReceiptEmail); err != nil {
			log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("receipt enqueue failed")
		}
	}

	return &dto.SaleCreatedResponse{
		SaleID:        sale.ID.String(),
		InvoiceNumber: sale.InvoiceNumber,
		Total:         sale.Total,
	}, nil
}

// uniqueInvoiceTx draws NX-SALE invoice numbers until one is free. The 32^12
// token space makes a second collision in a row vanishingly unlikely; the
// retry cap only guards against a broken RNG.
func (s *saleService) uniqueInvoiceTx(tx *gorm.DB) (string, error) {
	for i := 0; i < invoiceRetryLimit; i++ {
		invoice := nxid.Generate("sale")
		exists, err := s.sales.InvoiceNumberExistsTx(tx, invoice)
		if err != nil {
			return "", err
		}
		if !exists {
			return invoice, nil
		}
	}
	return "", apierror.E(apierror.KindConcurrencyConflict, "could not allocate an invoice number")
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, actorID, companyID, saleID uuid.UUID) (*dto.SaleResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.SalesRead); err != nil {
		return nil, err
	}
	sale, err := s.sales.FindByID(ctx, companyID, saleID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SaleResponse{
		ID:            sale.ID.String(),
		InvoiceNumber: sale.InvoiceNumber,
		TaxAmount:     sale.TaxAmount,
		Total:         sale.Total,
		PaymentMethod: string(sale.PaymentMethod),
		Status:        string(sale.Status),
		Date:          sale.Date.Format(time.RFC3339),
	}
	if sale.Seller != nil {
		resp.Seller = sale.Seller.FullName
	}
	for _, item := range sale.Items {
		resp.Items = append(resp.Items, dto.SaleItemResponse{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		})
	}
	return resp, nil
}

func (s *saleService) ListSales(ctx context.Context, actorID, companyID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.SalesRead); err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}

	sales, total, err := s.sales.List(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.SaleListResponse{Total: total, Page: filter.Page, Limit: filter.Limit}
	for _, sale := range sales {
		resp.Sales = append(resp.Sales, dto.SaleListItem{
			ID:            sale.ID.String(),
			InvoiceNumber: sale.InvoiceNumber,
			Amount:        sale.Total,
			Date:          sale.Date.Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (s *saleService) LookupProduct(ctx context.Context, actorID, companyID uuid.UUID, identifier string) (*dto.ProductResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.SalesCreate); err != nil {
		return nil, err
	}
	product, err := s.products.FindByIdentifier(ctx, companyID, identifier)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apierror.E(apierror.KindProductNotFound, "product does not exist")
	}
	return productToDTO(product), nil
}

// SearchProducts serves the checkout autocomplete. Results are cached in
// redis for a minute keyed per company+query; cache failures fall through
// to the database.
func (s *saleService) SearchProducts(ctx context.Context, actorID, companyID uuid.UUID, query string) ([]dto.ProductResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.SalesCreate); err != nil {
		return nil, err
	}

	cacheKey := "product_search:" + companyID.String() + ":" + query
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached []dto.ProductResponse
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	products, err := s.products.Search(ctx, companyID, query, 20)
	if err != nil {
		return nil, err
	}
	results := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		results = append(results, *productToDTO(&products[i]))
	}

	if s.cache != nil {
		if raw, err := json.Marshal(results); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, searchCacheTTL).Err(); err != nil {
				log.Debug().Err(err).Msg("product search cache write failed")
			}
		}
	}
	return results, nil
}

func productToDTO(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:         p.ID.String(),
		SKU:        p.SKU,
		Identifier: p.Identifier,
		Name:       p.Name,
		Price:      p.Price,
		Cost:       p.Cost,
		Stock:      p.Stock,
		IsService:  p.IsService,
	}
}
