package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/dto"
	"github.com/novus0x/nexolocal/internal/model"
	"github.com/novus0x/nexolocal/internal/permission"
)

type inventoryFixture struct {
	svc      InventoryService
	cashSvc  CashService
	cash     *fakeCashRepo
	products *fakeProductRepo
	finance  *fakeFinanceRepo
}

func newInventoryFixture() *inventoryFixture {
	cash := newFakeCashRepo()
	products := newFakeProductRepo()
	finance := newFakeFinanceRepo()
	perm := permission.AllowAll{}
	return &inventoryFixture{
		svc:     NewInventoryService(products, cash, finance, perm),
		cashSvc: NewCashService(cash, finance, perm),
		cash:    cash, products: products, finance: finance,
	}
}

func (f *inventoryFixture) seedProduct(company uuid.UUID, tracked bool) *model.Product {
	p := &model.Product{
		ID:             uuid.New(),
		SKU:            "SKU-9",
		Name:           "Ground Coffee 500g",
		Price:          decimal.RequireFromString("120.00"),
		Cost:           decimal.RequireFromString("70.00"),
		TrackInventory: tracked,
		IsActive:       true,
		CompanyID:      company,
	}
	_ = f.products.CreateTx(nil, p)
	return p
}

func TestAllocateSpansBatchesNewestFirst(t *testing.T) {
	f := newInventoryFixture()
	company := uuid.New()
	p := f.seedProduct(company, true)

	oldest := f.products.addBatch(p.ID, 4, decimal.NewFromInt(60), time.Now().Add(-72*time.Hour))
	middle := f.products.addBatch(p.ID, 3, decimal.NewFromInt(65), time.Now().Add(-48*time.Hour))
	newest := f.products.addBatch(p.ID, 2, decimal.NewFromInt(70), time.Now().Add(-24*time.Hour))
	_ = f.products.AdjustStockTx(nil, p.ID, 9)

	takes, err := f.svc.AllocateTx(nil, p, 6)
	require.NoError(t, err)
	require.Len(t, takes, 3)

	// Newest drains first, then the middle, then one unit of the oldest.
	assert.Equal(t, newest, takes[0].BatchID)
	assert.Equal(t, 2, takes[0].Qty)
	assert.Equal(t, middle, takes[1].BatchID)
	assert.Equal(t, 3, takes[1].Qty)
	assert.Equal(t, oldest, takes[2].BatchID)
	assert.Equal(t, 1, takes[2].Qty)

	// Each take carries that batch's cost basis.
	assert.True(t, takes[0].Cost.Equal(decimal.NewFromInt(70)))
	assert.True(t, takes[2].Cost.Equal(decimal.NewFromInt(60)))

	assert.Equal(t, 3, f.products.batches[oldest].Stock)
	assert.Equal(t, 3, f.products.products[p.ID].Stock)
}

func TestAllocateInsufficientStockNamesProduct(t *testing.T) {
	f := newInventoryFixture()
	company := uuid.New()
	p := f.seedProduct(company, true)
	f.products.addBatch(p.ID, 2, decimal.NewFromInt(60), time.Now())

	_, err := f.svc.AllocateTx(nil, p, 5)
	require.True(t, apierror.IsKind(err, apierror.KindInsufficientStock))

	var domainErr *apierror.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, p.ID.String(), domainErr.Fields["product_id"])
	assert.Contains(t, domainErr.Error(), "requested 5, available 2")
}

func TestAllocateSkipsUntrackedProducts(t *testing.T) {
	f := newInventoryFixture()
	company := uuid.New()
	p := f.seedProduct(company, false)

	takes, err := f.svc.AllocateTx(nil, p, 3)
	require.NoError(t, err)
	assert.Nil(t, takes)
}

func TestAddBatchBooksPurchase(t *testing.T) {
	f := newInventoryFixture()
	actor, company := uuid.New(), uuid.New()
	_, err := f.cashSvc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "500.00"})
	require.NoError(t, err)

	p := f.seedProduct(company, true)

	resp, err := f.svc.AddBatch(context.Background(), actor, company, p.ID, dto.AddBatchRequest{
		Quantity: "10",
		Bonus:    "2",
		Price:    "130.00",
		Cost:     "75.00",
	})
	require.NoError(t, err)

	// Bonus units enter stock but not the cost basis.
	assert.Equal(t, 12, resp.Stock)
	assert.Equal(t, 2, resp.StockBonus)
	assert.Equal(t, 12, f.products.products[p.ID].Stock)

	require.Len(t, f.finance.expenses, 1)
	expense := f.finance.expenses[0]
	assert.Equal(t, model.ExpenseSupplies, expense.Category)
	assert.Equal(t, model.ExpensePaid, expense.Status)
	assert.True(t, expense.TotalAmount.Equal(decimal.RequireFromString("750.00")))

	var expenseMovements []model.CashMovement
	for _, m := range f.cash.movements {
		if m.Type == model.MovementExpense {
			expenseMovements = append(expenseMovements, m)
		}
	}
	require.Len(t, expenseMovements, 1)
	assert.True(t, expenseMovements[0].Amount.Equal(decimal.RequireFromString("750.00")))
	require.NotNil(t, expenseMovements[0].RelatedExpenseID)

	// The reception refreshes the product's live price and cost.
	assert.True(t, f.products.products[p.ID].Price.Equal(decimal.RequireFromString("130.00")))
	assert.True(t, f.products.products[p.ID].Cost.Equal(decimal.RequireFromString("75.00")))
}

func TestAddBatchRequiresOpenSessionWhenCostIsPositive(t *testing.T) {
	f := newInventoryFixture()
	actor, company := uuid.New(), uuid.New()
	p := f.seedProduct(company, true)

	_, err := f.svc.AddBatch(context.Background(), actor, company, p.ID, dto.AddBatchRequest{
		Quantity: "5", Price: "130.00", Cost: "75.00",
	})
	assert.True(t, apierror.IsKind(err, apierror.KindNoOpenSession))

	// Free stock (zero cost) books no expense and needs no session.
	resp, err := f.svc.AddBatch(context.Background(), actor, company, p.ID, dto.AddBatchRequest{
		Quantity: "5", Price: "130.00", Cost: "0",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Stock)
	assert.Empty(t, f.finance.expenses)
	assert.Empty(t, f.cash.movements)
}

func TestAddBatchValidation(t *testing.T) {
	f := newInventoryFixture()
	actor, company := uuid.New(), uuid.New()
	p := f.seedProduct(company, true)

	// Price below cost.
	_, err := f.svc.AddBatch(context.Background(), actor, company, p.ID, dto.AddBatchRequest{
		Quantity: "5", Price: "50.00", Cost: "75.00",
	})
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidAmount))

	// Zero quantity.
	_, err = f.svc.AddBatch(context.Background(), actor, company, p.ID, dto.AddBatchRequest{
		Quantity: "0", Price: "130.00", Cost: "75.00",
	})
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidAmount))

	// Service products hold no inventory.
	svc := f.seedProduct(company, false)
	f.products.products[svc.ID].IsService = true
	_, err = f.svc.AddBatch(context.Background(), actor, company, svc.ID, dto.AddBatchRequest{
		Quantity: "5", Price: "130.00", Cost: "75.00",
	})
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))

	// Unknown product, and products of another company, are invisible.
	_, err = f.svc.AddBatch(context.Background(), actor, uuid.New(), p.ID, dto.AddBatchRequest{
		Quantity: "5", Price: "130.00", Cost: "75.00",
	})
	assert.True(t, apierror.IsKind(err, apierror.KindProductNotFound))
}
