package handler

import (
	"net/http"

	"fiscalpos/internal/apierror"
	"fiscalpos/internal/dto"
	"fiscalpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FacturacionHandler struct{ svc service.FacturacionService }

func NewFacturacionHandler(svc service.FacturacionService) *FacturacionHandler {
	return &FacturacionHandler{svc: svc}
}

// Emitir godoc
// @Summary Emite una factura fiscal con el siguiente correlativo del CAI activo
// @Tags facturacion
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EmitirFacturaRequest true "Orden, totales y pagos"
// @Success 201 {object} dto.FacturaResponse
// @Failure 409 {object} apierror.APIError "CAI agotado/vencido o sesión cerrada — venta bloqueada"
// @Router /v1/facturas [post]
func (h *FacturacionHandler) Emitir(c *gin.Context) {
	var req dto.EmitirFacturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Emitir(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Reimprimir godoc
// @Summary Registra una copia de factura reutilizando el número original
// @Tags facturacion
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la factura original"
// @Success 201 {object} dto.FacturaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/facturas/{id}/reimprimir [post]
func (h *FacturacionHandler) Reimprimir(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Reimprimir(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *FacturacionHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarPorSesion feeds the reporting screens read-only.
func (h *FacturacionHandler) ListarPorSesion(c *gin.Context) {
	sesionID, err := uuid.Parse(c.Param("sesion_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de sesión inválido"))
		return
	}
	resp, err := h.svc.ListarPorSesion(c.Request.Context(), sesionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
