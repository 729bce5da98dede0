package service

import (
	"context"
	"sync"
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

func newCashFixture() (CashService, *fakeCashRepo, *fakeFinanceRepo) {
	cash := newFakeCashRepo()
	finance := newFakeFinanceRepo()
	svc := NewCashService(cash, finance, permission.AllowAll{})
	return svc, cash, finance
}

func TestOpenSession(t *testing.T) {
	svc, _, _ := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	resp, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "100.00"})
	require.NoError(t, err)
	assert.Equal(t, "open", resp.Status)
	assert.True(t, resp.InitialCash.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, company.String(), resp.CompanyID)
}

func TestOpenSessionRejectsBadAmounts(t *testing.T) {
	svc, _, _ := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	for _, raw := range []string{"abc", "-5", ""} {
		_, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: raw})
		assert.True(t, apierror.IsKind(err, apierror.KindInvalidAmount), "amount %q", raw)
	}
}

func TestOpenSessionAlreadyOpen(t *testing.T) {
	svc, _, _ := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	_, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "50"})
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "50"})
	assert.True(t, apierror.IsKind(err, apierror.KindSessionAlreadyOpen))

	// A different company is unaffected.
	_, err = svc.Open(context.Background(), actor, uuid.New(), dto.OpenSessionRequest{InitialCash: "50"})
	assert.NoError(t, err)
}

func TestOpenSessionConcurrentSingleWinner(t *testing.T) {
	svc, _, _ := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "10"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.True(t, apierror.IsKind(err, apierror.KindSessionAlreadyOpen))
		}
	}
	assert.Equal(t, 1, wins, "exactly one open must win")
}

// seedMovements records one cash income of 50 and one cash expense of 20,
// plus a card income that must never touch the drawer expectation.
func seedMovements(t *testing.T, svc CashService, actor, company uuid.UUID) {
	t.Helper()
	_, err := svc.RecordMovement(context.Background(), actor, company, dto.MovementRequest{
		Type: "income", Amount: "50.00", PaymentMethod: "cash", Title: "owner top-up",
	})
	require.NoError(t, err)
	_, err = svc.RecordMovement(context.Background(), actor, company, dto.MovementRequest{
		Type: "expense", Amount: "20.00", PaymentMethod: "cash", Title: "cleaning supplies",
	})
	require.NoError(t, err)
	_, err = svc.RecordMovement(context.Background(), actor, company, dto.MovementRequest{
		Type: "income", Amount: "500.00", PaymentMethod: "card", Title: "card settlement",
	})
	require.NoError(t, err)
}

func TestCloseWithDifferenceRequiresDescription(t *testing.T) {
	svc, cash, _ := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	_, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "100.00"})
	require.NoError(t, err)
	seedMovements(t, svc, actor, company)

	// expected = 100 + 50 - 20 = 130; counted 125 → difference -5
	resp, err := svc.Close(context.Background(), actor, company, dto.CloseSessionRequest{CountedCash: "125.00"})
	require.NoError(t, err)
	assert.True(t, resp.ExpectedCash.Equal(decimal.RequireFromString("130.00")), "expected %s", resp.ExpectedCash)
	assert.True(t, resp.Difference.Equal(decimal.RequireFromString("-5.00")))
	assert.True(t, resp.DifferenceExists)
	assert.True(t, resp.RequiresDescription)
	assert.Equal(t, "open", resp.Status)

	// The session must still be open and untouched.
	open, err := cash.FindOpenSession(context.Background(), company)
	require.NoError(t, err)
	assert.Nil(t, open.CountedCash)

	// Resubmit with the operator justification.
	resp, err = svc.Close(context.Background(), actor, company, dto.CloseSessionRequest{
		CountedCash:         "125.00",
		Description:         "missing change from till",
		DescriptionProvided: true,
	})
	require.NoError(t, err)
	assert.False(t, resp.RequiresDescription)
	assert.Equal(t, "closed", resp.Status)

	closed, err := cash.FindSessionByID(context.Background(), uuid.MustParse(resp.SessionID))
	require.NoError(t, err)
	assert.Equal(t, model.CashSessionClosed, closed.Status)
	require.NotNil(t, closed.Difference)
	assert.True(t, closed.Difference.Equal(decimal.RequireFromString("-5.00")))
	require.NotNil(t, closed.Description)
	assert.Equal(t, "missing change from till", *closed.Description)
	assert.NotNil(t, closed.ClosedAt)
}

func TestCloseFlagWithoutDescriptionDoesNotClose(t *testing.T) {
	svc, cash, _ := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	_, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "100.00"})
	require.NoError(t, err)

	// The flag alone, with a blank or whitespace description, is not a
	// justification: the session must stay open.
	for _, desc := range []string{"", "   "} {
		resp, err := svc.Close(context.Background(), actor, company, dto.CloseSessionRequest{
			CountedCash:         "90.00",
			Description:         desc,
			DescriptionProvided: true,
		})
		require.NoError(t, err)
		assert.True(t, resp.RequiresDescription, "description %q", desc)
		assert.Equal(t, "open", resp.Status)
	}

	open, err := cash.FindOpenSession(context.Background(), company)
	require.NoError(t, err)
	assert.Nil(t, open.CountedCash)

	// A real justification closes it and is stored trimmed.
	resp, err := svc.Close(context.Background(), actor, company, dto.CloseSessionRequest{
		CountedCash:         "90.00",
		Description:         "  drawer shorted at shift change  ",
		DescriptionProvided: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "closed", resp.Status)

	closed, err := cash.FindSessionByID(context.Background(), uuid.MustParse(resp.SessionID))
	require.NoError(t, err)
	require.NotNil(t, closed.Description)
	assert.Equal(t, "drawer shorted at shift change", *closed.Description)
}

func TestCloseExactCount(t *testing.T) {
	svc, _, _ := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	_, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "100.00"})
	require.NoError(t, err)
	seedMovements(t, svc, actor, company)

	resp, err := svc.Close(context.Background(), actor, company, dto.CloseSessionRequest{CountedCash: "130.00"})
	require.NoError(t, err)
	assert.False(t, resp.DifferenceExists)
	assert.False(t, resp.RequiresDescription)
	assert.Equal(t, "closed", resp.Status)
	assert.True(t, resp.Difference.IsZero())

	// The card income shows up in the method breakdown, not in expected cash.
	assert.True(t, resp.Inflows.Card.Equal(decimal.RequireFromString("500.00")))
	assert.True(t, resp.Inflows.Cash.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, resp.Outflows.Cash.Equal(decimal.RequireFromString("20.00")))
}

func TestDoubleClose(t *testing.T) {
	svc, _, _ := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	_, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "10"})
	require.NoError(t, err)
	_, err = svc.Close(context.Background(), actor, company, dto.CloseSessionRequest{CountedCash: "10"})
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), actor, company, dto.CloseSessionRequest{CountedCash: "10"})
	assert.True(t, apierror.IsKind(err, apierror.KindNoOpenSession))
}

func TestRecordMovementSpawnsFinanceRecords(t *testing.T) {
	svc, cash, finance := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	_, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "0"})
	require.NoError(t, err)

	income, err := svc.RecordMovement(context.Background(), actor, company, dto.MovementRequest{
		Type: "income", Amount: "30.00", Title: "found in drawer",
	})
	require.NoError(t, err)
	require.NotNil(t, income.PaymentMethod)
	assert.Equal(t, "cash", *income.PaymentMethod) // method defaults to cash

	_, err = svc.RecordMovement(context.Background(), actor, company, dto.MovementRequest{
		Type: "expense", Amount: "12.50", PaymentMethod: "cash", Title: "window repair",
	})
	require.NoError(t, err)

	_, err = svc.RecordMovement(context.Background(), actor, company, dto.MovementRequest{
		Type: "adjustment", Amount: "1.00", Title: "rounding",
	})
	require.NoError(t, err)

	require.Len(t, finance.incomes, 1)
	assert.Equal(t, model.IncomeReceived, finance.incomes[0].Status)
	require.Len(t, finance.expenses, 1)
	assert.Equal(t, model.ExpensePaid, finance.expenses[0].Status)

	// Movements link back to their finance records; adjustments carry no method.
	var adjustment *model.CashMovement
	for i := range cash.movements {
		m := &cash.movements[i]
		switch m.Type {
		case model.MovementIncome:
			assert.NotNil(t, m.RelatedIncomeID)
		case model.MovementExpense:
			assert.NotNil(t, m.RelatedExpenseID)
		case model.MovementAdjustment:
			adjustment = m
		}
	}
	require.NotNil(t, adjustment)
	assert.Nil(t, adjustment.PaymentMethod)
}

func TestRecordMovementWithoutOpenSession(t *testing.T) {
	svc, _, _ := newCashFixture()

	_, err := svc.RecordMovement(context.Background(), uuid.New(), uuid.New(), dto.MovementRequest{
		Type: "income", Amount: "5", Title: "late entry",
	})
	assert.True(t, apierror.IsKind(err, apierror.KindNoOpenSession))
}

func TestCashFlowOrdersBucketsChronologically(t *testing.T) {
	svc, cash, _ := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	open, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "0"})
	require.NoError(t, err)
	sessionID := uuid.MustParse(open.SessionID)

	// Day buckets across a month boundary: these labels string-sort as
	// "01 Sep" < "30 Aug", so the ordering must come from the dates.
	method := model.PaymentCash
	for _, m := range []struct {
		date   time.Time
		typ    model.CashMovementType
		amount string
	}{
		{time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), model.MovementIncome, "10.00"},
		{time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC), model.MovementIncome, "20.00"},
		{time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC), model.MovementExpense, "5.00"},
		{time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), model.MovementIncome, "30.00"},
	} {
		cash.movements = append(cash.movements, model.CashMovement{
			ID:            uuid.New(),
			CashSessionID: sessionID,
			CompanyID:     company,
			Type:          m.typ,
			Amount:        decimal.RequireFromString(m.amount),
			PaymentMethod: &method,
			Date:          m.date,
		})
	}

	resp, err := svc.CashFlow(context.Background(), actor, company, "day")
	require.NoError(t, err)
	assert.Equal(t, []string{"30 Aug", "31 Aug", "01 Sep"}, resp.Labels)

	// Series stay aligned with the reordered labels.
	require.Len(t, resp.Inflows, 3)
	require.Len(t, resp.Outflows, 3)
	assert.True(t, resp.Inflows[0].Equal(decimal.RequireFromString("10.00")))
	assert.True(t, resp.Inflows[1].Equal(decimal.RequireFromString("20.00")))
	assert.True(t, resp.Inflows[2].Equal(decimal.RequireFromString("30.00")))
	assert.True(t, resp.Outflows[0].IsZero())
	assert.True(t, resp.Outflows[1].Equal(decimal.RequireFromString("5.00")))
	assert.True(t, resp.Outflows[2].IsZero())
}

func TestSessionReportScopedToCompany(t *testing.T) {
	svc, _, _ := newCashFixture()
	actor, company := uuid.New(), uuid.New()

	open, err := svc.Open(context.Background(), actor, company, dto.OpenSessionRequest{InitialCash: "10"})
	require.NoError(t, err)

	// Another company cannot read this session.
	_, err = svc.SessionReport(context.Background(), actor, uuid.New(), uuid.MustParse(open.SessionID))
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))

	report, err := svc.SessionReport(context.Background(), actor, company, uuid.MustParse(open.SessionID))
	require.NoError(t, err)
	assert.Equal(t, open.SessionID, report.Session.SessionID)
}
