package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/model"
)

// CashRepository is the ledger store: persistence and invariant enforcement
// for CashSession and CashMovement. Movements are write-once; the interface
// deliberately exposes no update or delete for them, and the model hooks
// reject both at the gorm layer.
type CashRepository interface {
	CreateSession(ctx context.Context, s *model.CashSession) error
	FindOpenSession(ctx context.Context, companyID uuid.UUID) (*model.CashSession, error)
	// FindOpenSessionTx locks the open session row FOR UPDATE, used by
	// close and by the sale orchestrator to serialize per-company writes.
	FindOpenSessionTx(tx *gorm.DB, companyID uuid.UUID) (*model.CashSession, error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	// CloseSession applies the one-and-only mutation a session ever
	// receives. The WHERE guard on status makes a double close report
	// NoOpenSession instead of silently re-reconciling.
	CloseSessionTx(tx *gorm.DB, s *model.CashSession) error
	AppendMovement(ctx context.Context, m *model.CashMovement) error
	AppendMovementTx(tx *gorm.DB, m *model.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	// SumByTypeAndMethod returns SUM(amount) over the session's movements
	// matching any of types; method nil means all payment methods.
	SumByTypeAndMethod(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, types []model.CashMovementType, method *model.PaymentMethod) (decimal.Decimal, error)
	// SumByMethod groups the same sum per payment method, for reporting.
	SumByMethod(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, types []model.CashMovementType) (map[model.PaymentMethod]decimal.Decimal, error)
	SumCompanyFlow(ctx context.Context, companyID uuid.UUID, types []model.CashMovementType, bucket string) ([]FlowBucket, error)
	ListSessions(ctx context.Context, companyID uuid.UUID, page, limit int) ([]model.CashSession, int64, error)
	DB() *gorm.DB
}

// FlowBucket is one point of the cash-flow projection. Label is the display
// value ("14:00", "03 Sep", "Sep 2026"); First is the earliest movement in
// the bucket and is what callers must order by, since the display labels do
// not sort chronologically as strings.
type FlowBucket struct {
	Label string
	First time.Time
	Total decimal.Decimal
}

type cashRepo struct{ db *gorm.DB }

func NewCashRepository(db *gorm.DB) CashRepository { return &cashRepo{db: db} }

func (r *cashRepo) DB() *gorm.DB { return r.db }

func (r *cashRepo) CreateSession(ctx context.Context, s *model.CashSession) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if err != nil {
		// The partial unique index on (company_id) WHERE status='open'
		// turns a lost open/open race into a duplicate-key error.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apierror.E(apierror.KindSessionAlreadyOpen, "a cash session is already open for this company")
		}
		return apierror.Store(err)
	}
	return nil
}

func (r *cashRepo) FindOpenSession(ctx context.Context, companyID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, model.CashSessionOpen).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.E(apierror.KindNoOpenSession, "no open cash session for this company")
		}
		return nil, apierror.Store(err)
	}
	return &s, nil
}

func (r *cashRepo) FindOpenSessionTx(tx *gorm.DB, companyID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ? AND status = ?", companyID, model.CashSessionOpen).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.E(apierror.KindNoOpenSession, "no open cash session for this company")
		}
		return nil, apierror.Store(err)
	}
	return &s, nil
}

func (r *cashRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.E(apierror.KindNotFound, "cash session not found")
		}
		return nil, apierror.Store(err)
	}
	return &s, nil
}

func (r *cashRepo) CloseSessionTx(tx *gorm.DB, s *model.CashSession) error {
	res := tx.Model(&model.CashSession{}).
		Where("id = ? AND status = ?", s.ID, model.CashSessionOpen).
		Updates(map[string]interface{}{
			"status":            model.CashSessionClosed,
			"expected_cash":     s.ExpectedCash,
			"counted_cash":      s.CountedCash,
			"difference":        s.Difference,
			"difference_exists": s.DifferenceExists,
			"description":       s.Description,
			"closed_at":         s.ClosedAt,
		})
	if res.Error != nil {
		return apierror.Store(res.Error)
	}
	if res.RowsAffected == 0 {
		return apierror.E(apierror.KindNoOpenSession, "session is not open")
	}
	return nil
}

func (r *cashRepo) AppendMovement(ctx context.Context, m *model.CashMovement) error {
	return r.AppendMovementTx(r.db.WithContext(ctx), m)
}

func (r *cashRepo) AppendMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	// The target session must be OPEN at write time.
	var count int64
	if err := tx.Model(&model.CashSession{}).
		Where("id = ? AND status = ?", m.CashSessionID, model.CashSessionOpen).
		Count(&count).Error; err != nil {
		return apierror.Store(err)
	}
	if count == 0 {
		return apierror.E(apierror.KindSessionNotOpen, "target session is not open")
	}
	if err := tx.Create(m).Error; err != nil {
		return apierror.Store(err)
	}
	return nil
}

func (r *cashRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("cash_session_id = ?", sessionID).
		Order("date ASC").
		Find(&movs).Error
	if err != nil {
		return nil, apierror.Store(err)
	}
	return movs, nil
}

func (r *cashRepo) SumByTypeAndMethod(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, types []model.CashMovementType, method *model.PaymentMethod) (decimal.Decimal, error) {
	db := r.db.WithContext(ctx)
	if tx != nil {
		db = tx
	}
	q := db.Model(&model.CashMovement{}).
		Where("cash_session_id = ? AND type IN ?", sessionID, types)
	if method != nil {
		q = q.Where("payment_method = ?", *method)
	}

	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return decimal.Zero, apierror.Store(err)
	}
	return total, nil
}

func (r *cashRepo) SumByMethod(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, types []model.CashMovementType) (map[model.PaymentMethod]decimal.Decimal, error) {
	db := r.db.WithContext(ctx)
	if tx != nil {
		db = tx
	}

	var rows []struct {
		PaymentMethod model.PaymentMethod
		Total         decimal.Decimal
	}
	err := db.Model(&model.CashMovement{}).
		Select("payment_method, COALESCE(SUM(amount), 0) AS total").
		Where("cash_session_id = ? AND type IN ? AND payment_method IS NOT NULL", sessionID, types).
		Group("payment_method").
		Scan(&rows).Error
	if err != nil {
		return nil, apierror.Store(err)
	}

	sums := make(map[model.PaymentMethod]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.PaymentMethod] = row.Total
	}
	return sums, nil
}

func (r *cashRepo) SumCompanyFlow(ctx context.Context, companyID uuid.UUID, types []model.CashMovementType, bucket string) ([]FlowBucket, error) {
	// bucket: "hour" (today), "day" (last 30 days), "month" (last 12 months)
	var expr, since string
	switch bucket {
	case "hour":
		expr = "to_char(date, 'HH24:00')"
		since = "date >= date_trunc('day', now())"
	case "month":
		expr = "to_char(date, 'Mon YYYY')"
		since = "date >= date_trunc('month', now()) - interval '11 months'"
	default:
		expr = "to_char(date, 'DD Mon')"
		since = "date >= date_trunc('day', now()) - interval '29 days'"
	}

	var rows []struct {
		Label string
		First time.Time
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.CashMovement{}).
		Select(expr+" AS label, MIN(date) AS first, COALESCE(SUM(amount), 0) AS total").
		Where("company_id = ? AND type IN ?", companyID, types).
		Where(since).
		Group("label").
		Order("first").
		Scan(&rows).Error
	if err != nil {
		return nil, apierror.Store(err)
	}

	buckets := make([]FlowBucket, 0, len(rows))
	for _, row := range rows {
		buckets = append(buckets, FlowBucket{Label: row.Label, First: row.First, Total: row.Total})
	}
	return buckets, nil
}

func (r *cashRepo) ListSessions(ctx context.Context, companyID uuid.UUID, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashSession{}).Where("company_id = ?", companyID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apierror.Store(err)
	}

	offset := (page - 1) * limit
	err := q.Order("opened_at DESC").Limit(limit).Offset(offset).Find(&sessions).Error
	if err != nil {
		return nil, 0, apierror.Store(err)
	}
	return sessions, total, nil
}
