package handler

import (
	"errors"
	"net/http"
	"reflect"

	"fiscalpos/internal/apierror"
	"fiscalpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
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
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
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

// respondError maps the typed domain failures onto HTTP statuses. The
// terminal fiscal failures return 409 with the message verbatim: the
// cashier UI must show it as a hard stop, not retry quietly.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRangoAgotado),
		errors.Is(err, service.ErrCAIVencido),
		errors.Is(err, service.ErrSinCAIActivo),
		errors.Is(err, service.ErrCAINoActivo),
		errors.Is(err, service.ErrCAIEnUso),
		errors.Is(err, service.ErrCorrelativoInmutable),
		errors.Is(err, service.ErrSesionYaAbierta),
		errors.Is(err, service.ErrSesionNoAbierta):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrConflictoTransaccion):
		// Retries exhausted — the client may attempt a fresh operation.
		c.JSON(http.StatusServiceUnavailable, apierror.New(err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}
