package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/novus0x/nexolocal/internal/apierror"
	"github.com/novus0x/nexolocal/internal/dto"
	"github.com/novus0x/nexolocal/internal/service"
)

type CashHandler struct{ svc service.CashService }

func NewCashHandler(svc service.CashService) *CashHandler { return &CashHandler{svc: svc} }

// Open godoc
// @Summary Opens a new cash session
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param body body dto.OpenSessionRequest true "Opening data"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/companies/{company_id}/cash/open [post]
func (h *CashHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), actorID, companyID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Reconciles and closes the open cash session
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param body body dto.CloseSessionRequest true "Counted cash declaration"
// @Success 200 {object} dto.CloseSessionResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/companies/{company_id}/cash/close [post]
func (h *CashHandler) Close(c *gin.Context) {
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), actorID, companyID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordMovement godoc
// @Summary Records a manual movement in the open session's ledger
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param body body dto.MovementRequest true "Manual movement"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/companies/{company_id}/cash/movements [post]
func (h *CashHandler) RecordMovement(c *gin.Context) {
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.RecordMovement(c.Request.Context(), actorID, companyID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Current godoc
// @Summary Returns the currently open session
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/companies/{company_id}/cash/current [get]
func (h *CashHandler) Current(c *gin.Context) {
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.CurrentSession(c.Request.Context(), actorID, companyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary Returns the full report of one session
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/companies/{company_id}/cash/sessions/{id} [get]
func (h *CashHandler) Report(c *gin.Context) {
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	resp, err := h.svc.SessionReport(c.Request.Context(), actorID, companyID, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListSessions godoc
// @Summary Lists past and present sessions of the company
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Success 200 {object} dto.SessionListResponse
// @Router /v1/companies/{company_id}/cash/sessions [get]
func (h *CashHandler) ListSessions(c *gin.Context) {
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)
	resp, err := h.svc.ListSessions(c.Request.Context(), actorID, companyID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CashFlow godoc
// @Summary Company-wide cash-flow chart data
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param company_id path string true "Company ID"
// @Param bucket query string false "hour | day | month"
// @Success 200 {object} dto.CashFlowResponse
// @Router /v1/companies/{company_id}/cash/flow [get]
func (h *CashHandler) CashFlow(c *gin.Context) {
	actorID, companyID, ok := requestScope(c)
	if !ok {
		return
	}
	resp, err := h.svc.CashFlow(c.Request.Context(), actorID, companyID, c.Query("bucket"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
