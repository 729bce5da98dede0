package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/dto"
	"github.com/novus0x/nexolocal/internal/service"
)

type SaleHandler struct{ svc service.SaleService }

func NewSaleHandler(svc service.SaleService) *SaleHandler { return &SaleHandler{svc: svc} }

// Create godoc
// @Summary Creates a sale against the open cash session
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param body body dto.CreateSaleRequest true "Sale lines"
// @Success 201 {object} dto.SaleCreatedResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/companies/{company_id}/sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.CreateSale(c.Request.Context(), actorID, companyID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary Returns one sale with its line snapshots
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param id path string true "Sale ID"
// @Success 200 {object} dto.SaleResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/companies/{company_id}/sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale id"))
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), actorID, companyID, saleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary Lists sales of the company
// @Tags sales
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Success 200 {object} dto.SaleListResponse
// @Router /v1/companies/{company_id}/sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	var filter dto.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query parameters"))
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), actorID, companyID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Lookup godoc
// @Summary Resolves a scanned identifier to a sellable product
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param body body dto.ProductLookupRequest true "Scan identifier"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/companies/{company_id}/sales/lookup [post]
func (h *SaleHandler) Lookup(c *gin.Context) {
	var req dto.ProductLookupRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.LookupProduct(c.Request.Context(), actorID, companyID, req.Identifier)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Search godoc
// @Summary Free-text product search for the checkout autocomplete
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param body body dto.ProductSearchRequest true "Search query"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/companies/{company_id}/sales/search [post]
func (h *SaleHandler) Search(c *gin.Context) {
	var req dto.ProductSearchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.SearchProducts(c.Request.Context(), actorID, companyID, req.Query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
