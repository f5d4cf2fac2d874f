package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/apierror"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondServiceError maps service-layer sentinels onto HTTP status codes and
// writes the error response.
func respondServiceError(c *gin.Context, err error) {
	var insufficient *service.InsufficientStockError
	switch {
	case errors.Is(err, service.ErrInvalidCart),
		errors.Is(err, service.ErrPaymentMismatch):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.As(err, &insufficient),
		errors.Is(err, service.ErrNoOpenRegister),
		errors.Is(err, service.ErrRegisterAlreadyOpen),
		errors.Is(err, service.ErrSessionClosed),
		errors.Is(err, service.ErrInvalidStateTransition),
		errors.Is(err, service.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, apierror.New("record not found"))
	case errors.Is(err, service.ErrReversalIncomplete),
		errors.Is(err, service.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
	}
}

