package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/dto"
	"github.com/novus0x/nexolocal/internal/service"
)

type ProductHandler struct {
	svc       service.ProductService
	inventory service.InventoryService
}

func NewProductHandler(svc service.ProductService, inventory service.InventoryService) *ProductHandler {
	return &ProductHandler{svc: svc, inventory: inventory}
}

// Create godoc
// @Summary Creates a product, optionally receiving its initial stock
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param body body dto.CreateProductRequest true "Product data"
// @Success 201 {object} dto.ProductResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/companies/{company_id}/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actorID, companyID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AddBatch godoc
// @Summary Receives a new inventory batch for a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param id path string true "Product ID"
// @Param body body dto.AddBatchRequest true "Batch data"
// @Success 201 {object} dto.BatchResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/companies/{company_id}/products/{id}/batches [post]
func (h *ProductHandler) AddBatch(c *gin.Context) {
	var req dto.AddBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	resp, err := h.inventory.AddBatch(c.Request.Context(), actorID, companyID, productID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary Returns one product with its batches
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param id path string true "Product ID"
// @Success 200 {object} dto.ProductDetailResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/companies/{company_id}/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), actorID, companyID, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Lists products with the company's current stock value
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Success 200 {object} dto.ProductListResponse
// @Router /v1/companies/{company_id}/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query parameters"))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), actorID, companyID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
