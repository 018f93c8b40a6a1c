package handler

import (
	"net/http"

	"fiscalpos/internal/apierror"
	"fiscalpos/internal/dto"
	"fiscalpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CuadreHandler struct{ svc service.CuadreService }

func NewCuadreHandler(svc service.CuadreService) *CuadreHandler { return &CuadreHandler{svc: svc} }

// Previo godoc
// @Summary Calcula el cuadre de una sesión sin cerrarla (vista previa)
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de la sesión"
// @Param body body dto.CuadrePrevioRequest true "Conteo del cajero"
// @Success 200 {object} dto.CuadreResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/{id}/cuadre-previo [post]
func (h *CuadreHandler) Previo(c *gin.Context) {
	sesionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de sesión inválido"))
		return
	}
	var req dto.CuadrePrevioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reconciliar(c.Request.Context(), sesionID, req.Conteo, req.Denominaciones)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
