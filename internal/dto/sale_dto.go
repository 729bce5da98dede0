package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type CreateSaleRequest struct {
	PaymentMethod string            `json:"payment_method" validate:"required"`
	Items         []SaleLineRequest `json:"items"          validate:"required,min=1,dive"`
	// ReceiptEmail is optional; when present, a PDF receipt is mailed async.
	ReceiptEmail *string `json:"receipt_email" validate:"omitempty,email"`
}

// SaleFilter is bound from the query string of GET sales.
type SaleFilter struct {
	Query string `form:"q"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=10" validate:"min=1,max=100"`
}

// ProductLookupRequest resolves a product by its scan identifier or by a
// free-text search, depending on the endpoint.
type ProductLookupRequest struct {
	Identifier string `json:"identifier" validate:"required"`
}

type ProductSearchRequest struct {
	Query string `json:"query" validate:"required,min=2"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

type SaleCreatedResponse struct {
	SaleID        string          `json:"sale_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Total         decimal.Decimal `json:"total"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	InvoiceNumber string             `json:"invoice_number"`
	Items         []SaleItemResponse `json:"items"`
	TaxAmount     decimal.Decimal    `json:"tax"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	Status        string             `json:"status"`
	Seller        string             `json:"seller"`
	Date          string             `json:"date"`
}

type SaleListItem struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
}

type SaleListResponse struct {
	Sales []SaleListItem `json:"sales"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
