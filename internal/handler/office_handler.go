package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clearhub-ng/clearance-api/internal/registry"
	appErrors "github.com/clearhub-ng/clearance-api/pkg/errors"
	"github.com/clearhub-ng/clearance-api/pkg/response"
)

// OfficeHandler serves the static office registry.
type OfficeHandler struct {
	registry *registry.Registry
}

// NewOfficeHandler creates a new handler.
func NewOfficeHandler(reg *registry.Registry) *OfficeHandler {
	return &OfficeHandler{registry: reg}
}

// List godoc
// @Summary List clearance offices
// @Description Every office in step order, the sequence students traverse
// @Tags Offices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /offices [get]
func (h *OfficeHandler) List(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.registry.List(), nil)
}

// Get godoc
// @Summary Fetch one clearance office
// @Tags Offices
// @Produce json
// @Param id path string true "Office ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /offices/{id} [get]
func (h *OfficeHandler) Get(c *gin.Context) {
	office, ok := h.registry.Get(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown clearance office"))
		return
	}
	response.JSON(c, http.StatusOK, office, nil)
}
