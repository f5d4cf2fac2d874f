package handler

import (
	"net/http"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/apierror"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/dto"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/middleware"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/repository"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// Finalize godoc
// @Summary      Finalize a sale
// @Description  Atomically records the sale, decrements stock through the ledger and books the cash entry. Payments must sum exactly to the cart total.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.FinalizeSaleRequest true "Cart and payments"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) Finalize(c *gin.Context) {
	var req dto.FinalizeSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.OperatorID)

	resp, err := h.svc.Finalize(c.Request.Context(), operatorID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cancel godoc
// @Summary      Cancel a completed sale
// @Description  Restores stock through reversal ledger entries and books the compensating cash exit. Safe to retry: already-restored units are never restored twice.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                true "Sale UUID"
// @Param        body body     dto.CancelSaleRequest true "Cancellation reason"
// @Success      204
// @Failure      409  {object} apierror.APIError
// @Failure      503  {object} apierror.APIError
// @Router       /v1/sales/{id} [delete]
func (h *SalesHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.CancelSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List godoc
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        date   query string false "Date YYYY-MM-DD (default: today)"
// @Param        status query string false "completed | cancelled | pending | suspended | all"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Rows per page (default 50)"
// @Success      200    {object} dto.SaleListResponse
// @Router       /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter repository.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list sales"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Fetch one sale with its items
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      200 {object} dto.SaleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id} [get]
func (h *SalesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SaveDraft godoc
// @Summary      Save a draft sale
// @Description  Persists the cart with computed totals but no stock or cash effects. Payments are ignored until the draft is finalized.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.SaleDraftRequest true "Cart"
// @Success      201  {object} dto.SaleResponse
// @Router       /v1/sales/drafts [post]
func (h *SalesHandler) SaveDraft(c *gin.Context) {
	var req dto.SaleDraftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.OperatorID)

	resp, err := h.svc.SaveDraft(c.Request.Context(), operatorID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// FinalizeDraft godoc
// @Summary      Finalize a draft sale
// @Description  Applies stock and cash effects for a pending or suspended draft. Payments must sum exactly to the stored total.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Sale UUID"
// @Param        body body dto.FinalizeDraftRequest true "Session and payments"
// @Success      200  {object} dto.SaleResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales/drafts/{id}/finalize [post]
func (h *SalesHandler) FinalizeDraft(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.FinalizeDraftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session_id"))
		return
	}
	resp, err := h.svc.FinalizeDraft(c.Request.Context(), id, sessionID, req.Payments)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Suspend godoc
// @Summary      Suspend a pending draft
// @Tags         sales
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/sales/drafts/{id}/suspend [post]
func (h *SalesHandler) Suspend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.Suspend(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteDraft godoc
// @Summary      Discard a draft sale
// @Description  Only pending or suspended drafts can be deleted; completed sales must be cancelled instead.
// @Tags         sales
// @Security     BearerAuth
// @Param        id path string true "Sale UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/sales/drafts/{id} [delete]
func (h *SalesHandler) DeleteDraft(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	if err := h.svc.DeleteDraft(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
