package handler

import (
	"net/http"
	"strconv"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/apierror"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/dto"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/middleware"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RegisterHandler struct{ svc service.RegisterService }

func NewRegisterHandler(svc service.RegisterService) *RegisterHandler {
	return &RegisterHandler{svc: svc}
}

// Open godoc
// @Summary      Open a register session
// @Description  Starts a session with a counted opening float. One open session per operator.
// @Tags         register
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.OpenRegisterRequest true "Opening balance"
// @Success      201  {object} dto.RegisterSessionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/register/open [post]
func (h *RegisterHandler) Open(c *gin.Context) {
	var req dto.OpenRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.OperatorID)

	resp, err := h.svc.Open(c.Request.Context(), operatorID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary      Close a register session
// @Description  Computes the expected balance from the opening float and the recorded movements, stores the counted balance and the difference, and closes the session. A session closes once.
// @Tags         register
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CloseRegisterRequest true "Counted balance"
// @Success      200  {object} dto.CloseRegisterResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/register/close [post]
func (h *RegisterHandler) Close(c *gin.Context) {
	var req dto.CloseRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movement godoc
// @Summary      Record a manual cash movement
// @Description  Books an entrada (cash in) or saida (cash out) outside of a sale, e.g. float top-ups or cash drops.
// @Tags         register
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ManualMovementRequest true "Movement"
// @Success      201
// @Failure      409 {object} apierror.APIError
// @Router       /v1/register/movements [post]
func (h *RegisterHandler) Movement(c *gin.Context) {
	var req dto.ManualMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.RecordMovement(c.Request.Context(), req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// Report godoc
// @Summary      Session report
// @Description  Returns the session with its movement totals and running expected balance.
// @Tags         register
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session UUID"
// @Success      200 {object} dto.RegisterSessionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/register/sessions/{id} [get]
func (h *RegisterHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Current godoc
// @Summary      Current open session for the authenticated operator
// @Tags         register
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.RegisterSessionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/register/current [get]
func (h *RegisterHandler) Current(c *gin.Context) {
	claims := middleware.GetClaims(c)
	operatorID, _ := uuid.Parse(claims.OperatorID)

	resp, err := h.svc.Current(c.Request.Context(), operatorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if resp == nil {
		c.JSON(http.StatusNotFound, apierror.New("no open register session"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary      Closed session history
// @Tags         register
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page (default 1)"
// @Param        limit query int false "Rows per page (default 20)"
// @Success      200 {array} dto.RegisterSessionResponse
// @Router       /v1/register/sessions [get]
func (h *RegisterHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	resp, err := h.svc.History(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("failed to list sessions"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
