package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// OpenSessionRequest opens a new cash session. InitialCash arrives as a raw
// string so the service can reject unparseable or negative values with a
// precise error kind instead of a JSON bind failure.
type OpenSessionRequest struct {
	InitialCash string  `json:"initial_cash" validate:"required"`
	Description *string `json:"description"`
}

// CloseSessionRequest reconciles and closes the open session.
// DescriptionProvided is an explicit flag: when the count differs from the
// ledger, the close is rejected until the operator resubmits with this flag
// set AND a non-blank Description. The flag alone does not count as a
// justification.
type CloseSessionRequest struct {
	CountedCash         string `json:"counted_cash" validate:"required"`
	Description         string `json:"description"`
	DescriptionProvided bool   `json:"description_provided"`
}

// MovementRequest records a manual ledger entry against the open session.
type MovementRequest struct {
	Type          string `json:"type"           validate:"required,oneof=income expense withdraw adjustment"`
	Amount        string `json:"amount"         validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=cash card transfer digital"`
	Title         string `json:"title"          validate:"required,min=3"`
	Description   string `json:"description"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// MethodBreakdown groups ledger sums by payment method, for reporting.
// Only the cash column funds the physical drawer.
type MethodBreakdown struct {
	Cash     decimal.Decimal `json:"cash"`
	Card     decimal.Decimal `json:"card"`
	Transfer decimal.Decimal `json:"transfer"`
	Digital  decimal.Decimal `json:"digital"`
}

// CloseSessionResponse is the reconciliation outcome.
// When RequiresDescription is true the session was left untouched and the
// caller must resubmit with an operator justification.
type CloseSessionResponse struct {
	SessionID           string          `json:"session_id"`
	ExpectedCash        decimal.Decimal `json:"expected_cash"`
	CountedCash         decimal.Decimal `json:"counted_cash"`
	Difference          decimal.Decimal `json:"difference"`
	DifferenceExists    bool            `json:"difference_exists"`
	RequiresDescription bool            `json:"requires_description"`
	Inflows             MethodBreakdown `json:"inflows"`
	Outflows            MethodBreakdown `json:"outflows"`
	Status              string          `json:"status"`
}

type SessionResponse struct {
	SessionID        string           `json:"session_id"`
	CompanyID        string           `json:"company_id"`
	OpenedBy         string           `json:"opened_by"`
	Status           string           `json:"status"`
	InitialCash      decimal.Decimal  `json:"initial_cash"`
	ExpectedCash     *decimal.Decimal `json:"expected_cash,omitempty"`
	CountedCash      *decimal.Decimal `json:"counted_cash,omitempty"`
	Difference       *decimal.Decimal `json:"difference,omitempty"`
	DifferenceExists bool             `json:"difference_exists"`
	Description      *string          `json:"description,omitempty"`
	OpenedAt         string           `json:"opened_at"`
	ClosedAt         *string          `json:"closed_at,omitempty"`
}

type MovementResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod *string         `json:"payment_method,omitempty"`
	Description   string          `json:"description"`
	Date          string          `json:"date"`
}

// SessionReportResponse is the full picture of one session: its header, the
// ordered ledger, and per-method sums of inflows and outflows.
type SessionReportResponse struct {
	Session   SessionResponse    `json:"session"`
	Movements []MovementResponse `json:"movements"`
	Inflows   MethodBreakdown    `json:"inflows"`
	Outflows  MethodBreakdown    `json:"outflows"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// CashFlowResponse feeds the dashboard chart: parallel label/series arrays.
type CashFlowResponse struct {
	Labels   []string          `json:"labels"`
	Inflows  []decimal.Decimal `json:"sales"`
	Outflows []decimal.Decimal `json:"expenses"`
}
