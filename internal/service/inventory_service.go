package service

import (
	"context"
	"fmt"
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

// BatchTake records that qty units were drawn from one batch during an
// allocation, at that batch's cost basis.
type BatchTake struct {
	BatchID uuid.UUID
	Qty     int
	Cost    decimal.Decimal
}

type InventoryService interface {
	// AllocateTx consumes qty units of a product across its batches,
	// newest reception first, inside the caller's transaction. Service
	// products are a no-op. The product's denormalized stock is kept in
	// step with the batch decrements.
	AllocateTx(tx *gorm.DB, product *model.Product, qty int) ([]BatchTake, error)
	AddBatch(ctx context.Context, actorID, companyID, productID uuid.UUID, req dto.AddBatchRequest) (*dto.BatchResponse, error)
}

type inventoryService struct {
	products repository.ProductRepository
	cash     repository.CashRepository
	finance  repository.FinanceRepository
	perm     permission.Checker
}

func NewInventoryService(products repository.ProductRepository, cash repository.CashRepository, finance repository.FinanceRepository, perm permission.Checker) InventoryService {
	return &inventoryService{products: products, cash: cash, finance: finance, perm: perm}
}

// ── AllocateTx ────────────────────────────────────────────────────────────────
// Batches are locked FOR UPDATE and walked in reception-date order, newest
// first. Each take is a conditional decrement (stock = stock - n WHERE
// stock >= n); a concurrent drain between the read and the decrement
// surfaces as ConcurrencyConflict and aborts the whole transaction.

func (s *inventoryService) AllocateTx(tx *gorm.DB, product *model.Product, qty int) ([]BatchTake, error) {
	if product.IsService || !product.TrackInventory {
		return nil, nil
	}
	if qty <= 0 {
		return nil, apierror.E(apierror.KindInvalidLineItem, "quantity must be positive")
	}

	batches, err := s.products.BatchesForAllocationTx(tx, product.ID)
	if err != nil {
		return nil, err
	}

	available := 0
	for _, b := range batches {
		available += b.Stock
	}
	if available < qty {
		return nil, apierror.E(apierror.KindInsufficientStock,
			fmt.Sprintf("product %s: requested %d, available %d", product.Name, qty, available)).
			WithField("product_id", product.ID.String())
	}

	var takes []BatchTake
	remaining := qty
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		take := b.Stock
		if take > remaining {
			take = remaining
		}
		if err := s.products.DecrementBatchStockTx(tx, b.ID, take); err != nil {
			return nil, err
		}
		takes = append(takes, BatchTake{BatchID: b.ID, Qty: take, Cost: b.Cost})
		remaining -= take
	}

	if err := s.products.AdjustStockTx(tx, product.ID, -qty); err != nil {
		return nil, err
	}
	return takes, nil
}

// ── AddBatch ──────────────────────────────────────────────────────────────────
// Receives a new inventory lot. The reception also books the purchase cost:
// an Expense is created for quantity × cost and, because the purchase moves
// money out of the drawer, an expense movement is appended to the open
// session's ledger. Receiving stock therefore requires an open session.

func (s *inventoryService) AddBatch(ctx context.Context, actorID, companyID, productID uuid.UUID, req dto.AddBatchRequest) (*dto.BatchResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.ProductsCreate); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	if product.IsService {
		return nil, apierror.E(apierror.KindInvalidInput, "service products do not hold inventory")
	}

	qty, err := parseQuantity(req.Quantity)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, apierror.E(apierror.KindInvalidAmount, "quantity must be greater than zero")
	}
	bonus, err := parseQuantity(req.Bonus)
	if err != nil {
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

	received := time.Now().UTC()
	if d, ok := parseFutureDate(req.ReceptionDate); ok {
		received = d
	}
	var expiry *time.Time
	if d, ok := parseFutureDate(req.ExpirationDate); ok {
		expiry = &d
	}

	batch := &model.ProductBatch{
		ProductID:        product.ID,
		Stock:            qty + bonus,
		StockBonus:       bonus,
		Price:            price,
		Cost:             cost,
		IsActive:         true,
		ExpirationActive: expiry != nil,
		ExpirationDate:   expiry,
		Date:             received,
	}

	// Cost basis: only the paid units, bonus units are free stock.
	totalCost := cost.Mul(decimal.NewFromInt(int64(qty)))

	err = runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
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
				Date:         received,
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
				Date:             time.Now().UTC(),
			}
			if err := s.cash.AppendMovementTx(tx, movement); err != nil {
				return err
			}
		}

		if err := s.products.CreateBatchTx(tx, batch); err != nil {
			return err
		}
		if err := s.products.AdjustStockTx(tx, product.ID, batch.Stock); err != nil {
			return err
		}
		// New receptions refresh the product's current price and cost.
		return s.products.UpdatePricesTx(tx, product.ID, price, cost)
	})
	if err != nil {
		return nil, err
	}

	return batchToDTO(batch), nil
}

func batchToDTO(b *model.ProductBatch) *dto.BatchResponse {
	resp := &dto.BatchResponse{
		ID:         b.ID.String(),
		Stock:      b.Stock,
		StockBonus: b.StockBonus,
		Price:      b.Price,
		Cost:       b.Cost,
		IsActive:   b.IsActive,
		ReceivedAt: b.Date.Format(time.RFC3339),
	}
	if b.ExpirationDate != nil {
		exp := b.ExpirationDate.Format("2006-01-02")
		resp.ExpirationDate = &exp
	}
	return resp
}
