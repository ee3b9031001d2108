package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ship-tracking-backend/internal/model"
)

type createPortRequest struct {
	Name      string  `json:"name" binding:"required"`
	Unlocode  string  `json:"unlocode" binding:"required"`
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
	RadiusNm  float64 `json:"radiusNm"`
}

// GetPorts handles GET /api/ports.
func (h *Handler) GetPorts(c *gin.Context) {
	ports, err := h.store.ListPorts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list ports"})
		return
	}
	c.JSON(http.StatusOK, ports)
}

// CreatePort handles POST /api/ports.
func (h *Handler) CreatePort(c *gin.Context) {
	var req createPortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	radius := req.RadiusNm
	if radius <= 0 {
		radius = model.DefaultPortRadiusNm
	}
	port := model.Port{
		Name:      req.Name,
		Unlocode:  req.Unlocode,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		RadiusNm:  radius,
	}
	if err := h.store.CreatePort(c.Request.Context(), &port); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create port"})
		return
	}
	c.JSON(http.StatusCreated, port)
}
