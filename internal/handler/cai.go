package handler

import (
	"net/http"

	"fiscalpos/internal/apierror"
	"fiscalpos/internal/dto"
	"fiscalpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CAIHandler struct{ svc service.CAIService }

func NewCAIHandler(svc service.CAIService) *CAIHandler { return &CAIHandler{svc: svc} }

// Crear godoc
// @Summary Registra una nueva autorización de numeración (CAI)
// @Tags cai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearCAIRequest true "Datos del CAI"
// @Success 201 {object} dto.CAIResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/cai [post]
func (h *CAIHandler) Crear(c *gin.Context) {
	var req dto.CrearCAIRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Actualizar godoc
// @Summary Actualiza un CAI; el correlativo solo es editable sin facturas emitidas
// @Tags cai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del CAI"
// @Param body body dto.ActualizarCAIRequest true "Campos a actualizar"
// @Success 200 {object} dto.CAIResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cai/{id} [put]
func (h *CAIHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.ActualizarCAIRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Activar godoc
// @Summary Activa un CAI desactivando el vigente en un solo paso atómico
// @Tags cai
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del CAI"
// @Success 200 {object} dto.CAIResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cai/{id}/activar [post]
func (h *CAIHandler) Activar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Activar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary Elimina un CAI sin facturas emitidas
// @Tags cai
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID del CAI"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/cai/{id} [delete]
func (h *CAIHandler) Eliminar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ObtenerActivo returns the single active authorization — the one
// source of truth every screen must consult.
func (h *CAIHandler) ObtenerActivo(c *gin.Context) {
	resp, err := h.svc.ObtenerActivo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CAIHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Restante exposes the advisory remaining-numbers count for low-stock
// warnings in the admin UI.
func (h *CAIHandler) Restante(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Restante(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}
