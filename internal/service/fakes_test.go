package service

// In-memory fakes for the repository interfaces. DB() returns nil so runTx
// calls the transaction body directly; the fakes guard their state with a
// mutex so the concurrency tests can hammer them from many goroutines.

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/dto"
	"github.com/novus0x/nexolocal/internal/model"
	"github.com/novus0x/nexolocal/internal/repository"
)

// ── fakeCashRepo ──────────────────────────────────────────────────────────────

type fakeCashRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*model.CashSession
	movements []model.CashMovement
}

func newFakeCashRepo() *fakeCashRepo {
	return &fakeCashRepo{sessions: make(map[uuid.UUID]*model.CashSession)}
}

func (r *fakeCashRepo) DB() *gorm.DB { return nil }

func (r *fakeCashRepo) CreateSession(_ context.Context, s *model.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the partial unique index: one open session per company.
	for _, existing := range r.sessions {
		if existing.CompanyID == s.CompanyID && existing.Status == model.CashSessionOpen {
			return apierror.E(apierror.KindSessionAlreadyOpen, "a cash session is already open for this company")
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeCashRepo) findOpenLocked(companyID uuid.UUID) *model.CashSession {
	for _, s := range r.sessions {
		if s.CompanyID == companyID && s.Status == model.CashSessionOpen {
			return s
		}
	}
	return nil
}

func (r *fakeCashRepo) FindOpenSession(_ context.Context, companyID uuid.UUID) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.findOpenLocked(companyID); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, apierror.E(apierror.KindNoOpenSession, "no open cash session")
}

func (r *fakeCashRepo) FindOpenSessionTx(_ *gorm.DB, companyID uuid.UUID) (*model.CashSession, error) {
	return r.FindOpenSession(context.Background(), companyID)
}

func (r *fakeCashRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, apierror.E(apierror.KindNotFound, "session not found")
	}
	cp := *s
	return &cp, nil
}

func (r *fakeCashRepo) CloseSessionTx(_ *gorm.DB, s *model.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[s.ID]
	if !ok || stored.Status != model.CashSessionOpen {
		return apierror.E(apierror.KindNoOpenSession, "no open cash session")
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeCashRepo) AppendMovement(_ context.Context, m *model.CashMovement) error {
	return r.AppendMovementTx(nil, m)
}

func (r *fakeCashRepo) AppendMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[m.CashSessionID]
	if !ok || s.Status != model.CashSessionOpen {
		return apierror.E(apierror.KindSessionNotOpen, "session is not open")
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeCashRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.CashSessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func typeMatches(t model.CashMovementType, types []model.CashMovementType) bool {
	for _, candidate := range types {
		if t == candidate {
			return true
		}
	}
	return false
}

func (r *fakeCashRepo) SumByTypeAndMethod(_ context.Context, _ *gorm.DB, sessionID uuid.UUID, types []model.CashMovementType, method *model.PaymentMethod) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, m := range r.movements {
		if m.CashSessionID != sessionID || !typeMatches(m.Type, types) {
			continue
		}
		if method != nil && (m.PaymentMethod == nil || *m.PaymentMethod != *method) {
			continue
		}
		sum = sum.Add(m.Amount)
	}
	return sum, nil
}

func (r *fakeCashRepo) SumByMethod(_ context.Context, _ *gorm.DB, sessionID uuid.UUID, types []model.CashMovementType) (map[model.PaymentMethod]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sums := make(map[model.PaymentMethod]decimal.Decimal)
	for _, m := range r.movements {
		if m.CashSessionID == sessionID && typeMatches(m.Type, types) && m.PaymentMethod != nil {
			sums[*m.PaymentMethod] = sums[*m.PaymentMethod].Add(m.Amount)
		}
	}
	return sums, nil
}

// SumCompanyFlow mirrors the SQL projection: display labels in the repo's
// to_char day format, ordered by the bucket's earliest movement.
func (r *fakeCashRepo) SumCompanyFlow(_ context.Context, companyID uuid.UUID, types []model.CashMovementType, _ string) ([]repository.FlowBucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := make(map[string]decimal.Decimal)
	firsts := make(map[string]time.Time)
	for _, m := range r.movements {
		if m.CompanyID != companyID || !typeMatches(m.Type, types) {
			continue
		}
		label := m.Date.Format("02 Jan")
		totals[label] = totals[label].Add(m.Amount)
		if first, ok := firsts[label]; !ok || m.Date.Before(first) {
			firsts[label] = m.Date
		}
	}
	out := make([]repository.FlowBucket, 0, len(totals))
	for label, total := range totals {
		out = append(out, repository.FlowBucket{Label: label, First: firsts[label], Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].First.Before(out[j].First) })
	return out, nil
}

func (r *fakeCashRepo) ListSessions(_ context.Context, companyID uuid.UUID, page, limit int) ([]model.CashSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.CashSession
	for _, s := range r.sessions {
		if s.CompanyID == companyID {
			all = append(all, *s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].OpenedAt.After(all[j].OpenedAt) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// ── fakeProductRepo ───────────────────────────────────────────────────────────

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	batches  map[uuid.UUID]*model.ProductBatch
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		batches:  make(map[uuid.UUID]*model.ProductBatch),
	}
}

func (r *fakeProductRepo) DB() *gorm.DB { return nil }

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	return r.CreateTx(nil, p)
}

func (r *fakeProductRepo) CreateTx(_ *gorm.DB, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, companyID, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.CompanyID != companyID {
		return nil, apierror.E(apierror.KindProductNotFound, "product does not exist")
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindByIdentifier(_ context.Context, companyID uuid.UUID, identifier string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.CompanyID == companyID && p.Identifier == identifier {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apierror.E(apierror.KindProductNotFound, "product does not exist")
}

func (r *fakeProductRepo) Search(_ context.Context, companyID uuid.UUID, query string, limit int) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	q := strings.ToLower(query)
	for _, p := range r.products {
		if p.CompanyID != companyID {
			continue
		}
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Identifier), q) {
			out = append(out, *p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(_ context.Context, companyID uuid.UUID, filter dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.Product
	for _, p := range r.products {
		if p.CompanyID == companyID {
			all = append(all, *p)
		}
	}
	return all, int64(len(all)), nil
}

func (r *fakeProductRepo) StockValue(_ context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, p := range r.products {
		if p.CompanyID == companyID {
			sum = sum.Add(p.Cost.Mul(decimal.NewFromInt(int64(p.Stock))))
		}
	}
	return sum, nil
}

func (r *fakeProductRepo) SKUExists(_ context.Context, companyID uuid.UUID, sku string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.CompanyID == companyID && p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProductRepo) UpdatePricesTx(_ *gorm.DB, id uuid.UUID, price, cost decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.Price = price
		p.Cost = cost
	}
	return nil
}

func (r *fakeProductRepo) CreateBatchTx(_ *gorm.DB, b *model.ProductBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	cp := *b
	r.batches[b.ID] = &cp
	return nil
}

func (r *fakeProductRepo) ListBatches(_ context.Context, productID uuid.UUID) ([]model.ProductBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProductBatch
	for _, b := range r.batches {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *fakeProductRepo) BatchesForAllocationTx(_ *gorm.DB, productID uuid.UUID) ([]model.ProductBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProductBatch
	for _, b := range r.batches {
		if b.ProductID == productID && b.Stock > 0 {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *fakeProductRepo) DecrementBatchStockTx(_ *gorm.DB, batchID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok || b.Stock < qty {
		return apierror.E(apierror.KindConcurrencyConflict, "batch stock changed underneath the allocation")
	}
	b.Stock -= qty
	return nil
}

func (r *fakeProductRepo) AdjustStockTx(_ *gorm.DB, productID uuid.UUID, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[productID]; ok {
		p.Stock += delta
	}
	return nil
}

// addBatch seeds a batch directly, bypassing the reception flow.
func (r *fakeProductRepo) addBatch(productID uuid.UUID, stock int, cost decimal.Decimal, date time.Time) uuid.UUID {
	b := &model.ProductBatch{
		ID:        uuid.New(),
		ProductID: productID,
		Stock:     stock,
		Price:     cost.Mul(decimal.NewFromInt(2)),
		Cost:      cost,
		IsActive:  true,
		Date:      date,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[b.ID] = b
	return b.ID
}

// ── fakeSaleRepo ──────────────────────────────────────────────────────────────

type fakeSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]*model.Sale
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *fakeSaleRepo) DB() *gorm.DB { return nil }

func (r *fakeSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, companyID, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok || s.CompanyID != companyID {
		return nil, apierror.E(apierror.KindNotFound, "sale not found")
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSaleRepo) FindByIDAny(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, apierror.E(apierror.KindNotFound, "sale not found")
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSaleRepo) InvoiceNumberExistsTx(_ *gorm.DB, invoice string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.InvoiceNumber == invoice {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSaleRepo) List(_ context.Context, companyID uuid.UUID, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if s.CompanyID == companyID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

// ── fakeFinanceRepo ───────────────────────────────────────────────────────────

type fakeFinanceRepo struct {
	mu       sync.Mutex
	incomes  []model.Income
	expenses []model.Expense
}

func newFakeFinanceRepo() *fakeFinanceRepo { return &fakeFinanceRepo{} }

func (r *fakeFinanceRepo) DB() *gorm.DB { return nil }

func (r *fakeFinanceRepo) CreateIncomeTx(_ *gorm.DB, i *model.Income) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	r.incomes = append(r.incomes, *i)
	return nil
}

func (r *fakeFinanceRepo) CreateExpenseTx(_ *gorm.DB, e *model.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.expenses = append(r.expenses, *e)
	return nil
}
