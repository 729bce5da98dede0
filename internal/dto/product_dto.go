package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateProductRequest carries the raw payload for product creation.
// Monetary and quantity fields arrive as strings and are parsed by the
// service so sign/zero violations map to precise error kinds.
type CreateProductRequest struct {
	Name        string `json:"name"        validate:"required"`
	SKU         string `json:"sku"`
	Identifier  string `json:"identifier"  validate:"required"`
	Description string `json:"description"`
	Price       string `json:"sale_price"  validate:"required"`
	Cost        string `json:"sale_cost"   validate:"required"`
	Stock       string `json:"stock"`
	Bonus       string `json:"bonus"`

	TrackInventory bool   `json:"track_product"`
	LowStockAlert  int    `json:"low_stock" validate:"min=0"`
	IsService      bool   `json:"is_service"`
	ExpirationDate string `json:"expiration_date"` // YYYY-MM-DD, empty = no expiry
}

// AddBatchRequest receives a new inventory lot for an existing product.
type AddBatchRequest struct {
	Quantity       string `json:"quantity"  validate:"required"`
	Bonus          string `json:"bonus"`
	Price          string `json:"price"     validate:"required"`
	Cost           string `json:"cost"      validate:"required"`
	ReceptionDate  string `json:"reception_date"`  // YYYY-MM-DD, empty = today
	ExpirationDate string `json:"expiration_date"` // YYYY-MM-DD, empty = no expiry
}

type ProductFilter struct {
	Query string `form:"q"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=15" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID         string          `json:"id"`
	SKU        string          `json:"sku"`
	Identifier string          `json:"identifier"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Cost       decimal.Decimal `json:"cost"`
	Stock      int             `json:"stock"`
	IsService  bool            `json:"is_service"`
}

type BatchResponse struct {
	ID             string          `json:"id"`
	Stock          int             `json:"stock"`
	StockBonus     int             `json:"stock_bonus"`
	Price          decimal.Decimal `json:"price"`
	Cost           decimal.Decimal `json:"cost"`
	IsActive       bool            `json:"is_active"`
	ExpirationDate *string         `json:"expiration_date,omitempty"`
	ReceivedAt     string          `json:"received_at"`
}

type ProductDetailResponse struct {
	ProductResponse
	LowStockAlert  int             `json:"low_stock_alert"`
	TrackInventory bool            `json:"track_inventory"`
	Batches        []BatchResponse `json:"batches"`
}

type ProductListResponse struct {
	Products   []ProductResponse `json:"products"`
	StockValue decimal.Decimal   `json:"stock_value"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}
