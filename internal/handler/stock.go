package handler

import (
	"net/http"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/apierror"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/dto"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/model"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/repository"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StockHandler struct{ svc service.StockService }

func NewStockHandler(svc service.StockService) *StockHandler { return &StockHandler{svc: svc} }

// Adjust godoc
// @Summary      Manual stock adjustment
// @Description  Applies a signed correction to one product through the ledger. Manual corrections may drive the quantity negative; sales cannot.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                      true "Product UUID"
// @Param        body body dto.ManualAdjustmentRequest true "Delta and note"
// @Success      200  {object} dto.AdjustmentResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/stock/products/{id}/adjust [post]
func (h *StockHandler) Adjust(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	var req dto.ManualAdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	newQty, err := h.svc.Adjust(c.Request.Context(), productID, req.Delta, model.ReasonManual, nil, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AdjustmentResponse{
		ProductID:   productID.String(),
		NewQuantity: newQty,
		Delta:       req.Delta,
		Reason:      model.ReasonManual,
	})
}

// Receive godoc
// @Summary      Receive purchased units
// @Description  Books received purchase units into stock, referencing the purchase order for traceability.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ReceivePurchaseRequest true "Purchase receipt"
// @Success      200  {object} dto.AdjustmentResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/stock/receive [post]
func (h *StockHandler) Receive(c *gin.Context) {
	var req dto.ReceivePurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid product_id"))
		return
	}
	purchaseID, err := uuid.Parse(req.PurchaseID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid purchase_id"))
		return
	}
	newQty, err := h.svc.Adjust(c.Request.Context(), productID, req.Quantity, model.ReasonPurchase, &purchaseID, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AdjustmentResponse{
		ProductID:   req.ProductID,
		NewQuantity: newQty,
		Delta:       req.Quantity,
		Reason:      model.ReasonPurchase,
		ReferenceID: req.PurchaseID,
	})
}

// History godoc
// @Summary      Stock adjustment history
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        product_id query string false "Filter by product UUID"
// @Param        reason     query string false "sale | sale_reversal | purchase | manual"
// @Param        page       query int    false "Page (default 1)"
// @Param        limit      query int    false "Rows per page (default 50)"
// @Success      200 {array} model.StockAdjustment
// @Router       /v1/stock/adjustments [get]
func (h *StockHandler) History(c *gin.Context) {
	var filter repository.StockAdjustmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	rows, total, err := h.svc.History(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list adjustments"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "total": total})
}

// Verify godoc
// @Summary      Verify ledger consistency for one product
// @Description  Folds the full adjustment ledger and compares it with the materialized stock quantity.
// @Tags         stock
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      200 {object} dto.StockVerifyResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/stock/products/{id}/verify [get]
func (h *StockHandler) Verify(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	ledger, materialized, err := h.svc.VerifyProduct(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StockVerifyResponse{
		ProductID:    productID.String(),
		LedgerSum:    ledger,
		Materialized: materialized,
		Consistent:   ledger == materialized,
	})
}
