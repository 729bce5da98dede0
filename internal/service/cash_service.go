package service

import (
	"context"
	"sort"
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

type CashService interface {
	Open(ctx context.Context, actorID, companyID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Close(ctx context.Context, actorID, companyID uuid.UUID, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error)
	RecordMovement(ctx context.Context, actorID, companyID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error)
	CurrentSession(ctx context.Context, actorID, companyID uuid.UUID) (*dto.SessionResponse, error)
	SessionReport(ctx context.Context, actorID, companyID, sessionID uuid.UUID) (*dto.SessionReportResponse, error)
	ListSessions(ctx context.Context, actorID, companyID uuid.UUID, page, limit int) (*dto.SessionListResponse, error)
	CashFlow(ctx context.Context, actorID, companyID uuid.UUID, bucket string) (*dto.CashFlowResponse, error)
}

type cashService struct {
	cash    repository.CashRepository
	finance repository.FinanceRepository
	perm    permission.Checker
}

func NewCashService(cash repository.CashRepository, finance repository.FinanceRepository, perm permission.Checker) CashService {
	return &cashService{cash: cash, finance: finance, perm: perm}
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (s *cashService) Open(ctx context.Context, actorID, companyID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.CashOpen); err != nil {
		return nil, err
	}

	initial, err := parseAmount(req.InitialCash)
	if err != nil {
		return nil, err
	}

	// Fast pre-check for a friendly error. The partial unique index on
	// (company_id) WHERE status = 'open' is what actually guarantees a
	// single winner when two opens race past this read.
	if _, err := s.cash.FindOpenSession(ctx, companyID); err == nil {
		return nil, apierror.E(apierror.KindSessionAlreadyOpen, "a cash session is already open for this company")
	} else if !apierror.IsKind(err, apierror.KindNoOpenSession) {
		return nil, err
	}

	session := &model.CashSession{
		CompanyID:   companyID,
		OpenedByID:  actorID,
		Status:      model.CashSessionOpen,
		InitialCash: initial,
		Description: req.Description,
		OpenedAt:    time.Now().UTC(),
	}
	if err := s.cash.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return sessionToDTO(session), nil
}

// ── Close ─────────────────────────────────────────────────────────────────────
// Reconciliation. Expected cash considers ONLY cash-method movements:
//
//	expected = initial + cash inflows − cash outflows
//	difference = counted − expected
//
// A non-zero difference without an operator justification leaves the session
// untouched and reports requires_description; the caller resubmits with
// description_provided set and a non-blank description (the flag alone is
// not a justification). Everything runs under a FOR UPDATE lock on the
// session row so a concurrent sale cannot slip a movement in mid-count.

func (s *cashService) Close(ctx context.Context, actorID, companyID uuid.UUID, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.CashClose); err != nil {
		return nil, err
	}

	counted, err := parseAmount(req.CountedCash)
	if err != nil {
		return nil, err
	}

	// The flag only counts when it comes with an actual justification; a
	// bare description_provided=true would close a discrepant session with
	// nothing on record.
	justification := strings.TrimSpace(req.Description)
	justified := req.DescriptionProvided && justification != ""

	var resp *dto.CloseSessionResponse
	err = runTx(ctx, s.cash.DB(), func(tx *gorm.DB) error {
		session, err := s.cash.FindOpenSessionTx(tx, companyID)
		if err != nil {
			return err
		}

		cashMethod := model.PaymentCash
		cashIn, err := s.cash.SumByTypeAndMethod(ctx, tx, session.ID, model.MovementInflows, &cashMethod)
		if err != nil {
			return err
		}
		cashOut, err := s.cash.SumByTypeAndMethod(ctx, tx, session.ID, model.MovementOutflows, &cashMethod)
		if err != nil {
			return err
		}

		expected := session.InitialCash.Add(cashIn).Sub(cashOut)
		difference := counted.Sub(expected)
		differenceExists := !difference.IsZero()

		inflows, err := s.cash.SumByMethod(ctx, tx, session.ID, model.MovementInflows)
		if err != nil {
			return err
		}
		outflows, err := s.cash.SumByMethod(ctx, tx, session.ID, model.MovementOutflows)
		if err != nil {
			return err
		}

		resp = &dto.CloseSessionResponse{
			SessionID:        session.ID.String(),
			ExpectedCash:     expected,
			CountedCash:      counted,
			Difference:       difference,
			DifferenceExists: differenceExists,
			Inflows:          methodBreakdown(inflows),
			Outflows:         methodBreakdown(outflows),
			Status:           string(model.CashSessionOpen),
		}

		if differenceExists && !justified {
			// No mutation was made; the session stays open.
			resp.RequiresDescription = true
			return nil
		}

		now := time.Now().UTC()
		session.Status = model.CashSessionClosed
		session.ExpectedCash = &expected
		session.CountedCash = &counted
		session.Difference = &difference
		session.DifferenceExists = differenceExists
		session.ClosedAt = &now
		if justified {
			session.Description = &justification
		}

		if err := s.cash.CloseSessionTx(tx, session); err != nil {
			return err
		}
		resp.Status = string(model.CashSessionClosed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ── RecordMovement ────────────────────────────────────────────────────────────
// Manual ledger entry. income / expense types also spawn the matching finance
// record so the drawer ledger and the books stay in step; sale movements are
// never recorded here; only the sale orchestrator writes those.

func (s *cashService) RecordMovement(ctx context.Context, actorID, companyID uuid.UUID, req dto.MovementRequest) (*dto.MovementResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.CashMove); err != nil {
		return nil, err
	}

	movType := model.CashMovementType(req.Type)
	switch movType {
	case model.MovementIncome, model.MovementExpense, model.MovementWithdraw, model.MovementAdjustment:
	default:
		return nil, apierror.Ef(apierror.KindInvalidInput, "unknown movement type %q", req.Type)
	}

	amount, err := parsePositiveAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	var method *model.PaymentMethod
	if movType != model.MovementAdjustment {
		raw := req.PaymentMethod
		if raw == "" {
			raw = string(model.PaymentCash)
		}
		m, ok := model.ParsePaymentMethod(raw)
		if !ok {
			return nil, apierror.Ef(apierror.KindInvalidPaymentMethod, "unknown payment method %q", raw)
		}
		method = &m
	}

	var movement *model.CashMovement
	err = runTx(ctx, s.cash.DB(), func(tx *gorm.DB) error {
		session, err := s.cash.FindOpenSessionTx(tx, companyID)
		if err != nil {
			return err
		}

		movement = &model.CashMovement{
			CashSessionID: session.ID,
			CompanyID:     companyID,
			Type:          movType,
			Amount:        amount,
			PaymentMethod: method,
			Description:   req.Title,
			Date:          time.Now().UTC(),
		}
		if req.Description != "" {
			movement.Description = req.Title + " - " + req.Description
		}

		switch movType {
		case model.MovementIncome:
			income := &model.Income{
				Name:         req.Title,
				Amount:       amount,
				Status:       model.IncomeReceived,
				ApprovedByID: actorID,
				CompanyID:    companyID,
				Date:         movement.Date,
			}
			if req.Description != "" {
				income.Description = &req.Description
			}
			if err := s.finance.CreateIncomeTx(tx, income); err != nil {
				return err
			}
			movement.RelatedIncomeID = &income.ID
		case model.MovementExpense:
			expense := &model.Expense{
				Name:         req.Title,
				Amount:       amount,
				TotalAmount:  amount,
				Category:     model.ExpenseOther,
				Status:       model.ExpensePaid,
				ApprovedByID: actorID,
				CompanyID:    companyID,
				Date:         movement.Date,
			}
			if req.Description != "" {
				expense.Description = &req.Description
			}
			if err := s.finance.CreateExpenseTx(tx, expense); err != nil {
				return err
			}
			movement.RelatedExpenseID = &expense.ID
		}

		return s.cash.AppendMovementTx(tx, movement)
	})
	if err != nil {
		return nil, err
	}

	return movementToDTO(movement), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *cashService) CurrentSession(ctx context.Context, actorID, companyID uuid.UUID) (*dto.SessionResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.CashRead); err != nil {
		return nil, err
	}
	session, err := s.cash.FindOpenSession(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return sessionToDTO(session), nil
}

func (s *cashService) SessionReport(ctx context.Context, actorID, companyID, sessionID uuid.UUID) (*dto.SessionReportResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.CashRead); err != nil {
		return nil, err
	}
	session, err := s.cash.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CompanyID != companyID {
		return nil, apierror.E(apierror.KindNotFound, "session not found")
	}

	movements, err := s.cash.ListMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	inflows, err := s.cash.SumByMethod(ctx, nil, sessionID, model.MovementInflows)
	if err != nil {
		return nil, err
	}
	outflows, err := s.cash.SumByMethod(ctx, nil, sessionID, model.MovementOutflows)
	if err != nil {
		return nil, err
	}

	report := &dto.SessionReportResponse{
		Session:  *sessionToDTO(session),
		Inflows:  methodBreakdown(inflows),
		Outflows: methodBreakdown(outflows),
	}
	for i := range movements {
		report.Movements = append(report.Movements, *movementToDTO(&movements[i]))
	}
	return report, nil
}

func (s *cashService) ListSessions(ctx context.Context, actorID, companyID uuid.UUID, page, limit int) (*dto.SessionListResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.CashRead); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	sessions, total, err := s.cash.ListSessions(ctx, companyID, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.SessionListResponse{Total: total, Page: page, Limit: limit}
	for i := range sessions {
		resp.Sessions = append(resp.Sessions, *sessionToDTO(&sessions[i]))
	}
	return resp, nil
}

// CashFlow buckets company-wide inflows and outflows by hour, day or month
// for the dashboard chart.
func (s *cashService) CashFlow(ctx context.Context, actorID, companyID uuid.UUID, bucket string) (*dto.CashFlowResponse, error) {
	if err := s.perm.Allowed(ctx, actorID, companyID, permission.CashRead); err != nil {
		return nil, err
	}
	switch bucket {
	case "hour", "day", "month":
	default:
		bucket = "day"
	}

	in, err := s.cash.SumCompanyFlow(ctx, companyID, model.MovementInflows, bucket)
	if err != nil {
		return nil, err
	}
	out, err := s.cash.SumCompanyFlow(ctx, companyID, model.MovementOutflows, bucket)
	if err != nil {
		return nil, err
	}

	// Union of the two series keyed by label. Display labels ("03 Sep",
	// "Sep 2026") do not sort as strings, so ordering uses each bucket's
	// earliest movement instead.
	type flowPoint struct {
		first   time.Time
		in, out decimal.Decimal
	}
	points := make(map[string]*flowPoint, len(in)+len(out))
	for _, b := range in {
		points[b.Label] = &flowPoint{first: b.First, in: b.Total}
	}
	for _, b := range out {
		p, ok := points[b.Label]
		if !ok {
			points[b.Label] = &flowPoint{first: b.First, out: b.Total}
			continue
		}
		p.out = b.Total
		if b.First.Before(p.first) {
			p.first = b.First
		}
	}

	labels := make([]string, 0, len(points))
	for l := range points {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		return points[labels[i]].first.Before(points[labels[j]].first)
	})

	resp := &dto.CashFlowResponse{Labels: labels}
	for _, l := range labels {
		resp.Inflows = append(resp.Inflows, orZero(points[l].in))
		resp.Outflows = append(resp.Outflows, orZero(points[l].out))
	}
	return resp, nil
}

// ── Mapping helpers ───────────────────────────────────────────────────────────

func sessionToDTO(s *model.CashSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		SessionID:        s.ID.String(),
		CompanyID:        s.CompanyID.String(),
		OpenedBy:         s.OpenedByID.String(),
		Status:           string(s.Status),
		InitialCash:      s.InitialCash,
		ExpectedCash:     s.ExpectedCash,
		CountedCash:      s.CountedCash,
		Difference:       s.Difference,
		DifferenceExists: s.DifferenceExists,
		Description:      s.Description,
		OpenedAt:         s.OpenedAt.Format(time.RFC3339),
	}
	if s.ClosedAt != nil {
		closed := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &closed
	}
	return resp
}

func movementToDTO(m *model.CashMovement) *dto.MovementResponse {
	resp := &dto.MovementResponse{
		ID:          m.ID.String(),
		Type:        string(m.Type),
		Amount:      m.Amount,
		Description: m.Description,
		Date:        m.Date.Format(time.RFC3339),
	}
	if m.PaymentMethod != nil {
		method := string(*m.PaymentMethod)
		resp.PaymentMethod = &method
	}
	return resp
}

func methodBreakdown(sums map[model.PaymentMethod]decimal.Decimal) dto.MethodBreakdown {
	return dto.MethodBreakdown{
		Cash:     orZero(sums[model.PaymentCash]),
		Card:     orZero(sums[model.PaymentCard]),
		Transfer: orZero(sums[model.PaymentTransfer]),
		Digital:  orZero(sums[model.PaymentDigital]),
	}
}

// orZero normalizes a zero-value decimal so JSON shows "0" instead of a
// null-like uninitialized value.
func orZero(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	return d
}
