package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ship-tracking-backend/internal/model"
	"ship-tracking-backend/internal/store"
)

type engineerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required"`
}

// GetEngineers handles GET /api/engineers.
func (h *Handler) GetEngineers(c *gin.Context) {
	engineers, err := h.store.ListEngineers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list engineers"})
		return
	}
	c.JSON(http.StatusOK, engineers)
}

// CreateEngineer handles POST /api/engineers.
func (h *Handler) CreateEngineer(c *gin.Context) {
	var req engineerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	engineer := model.Engineer{Name: req.Name, Email: req.Email, Phone: req.Phone}
	err := h.store.CreateEngineer(c.Request.Context(), &engineer)
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "an engineer with this email already exists"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create engineer"})
		return
	}
	c.JSON(http.StatusCreated, engineer)
}

// UpdateEngineer handles PUT /api/engineers/:id. Vessels already registered
// keep their snapshot of the engineer; only future registrations pick up
// the change.
func (h *Handler) UpdateEngineer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid engineer id"})
		return
	}

	var req engineerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	engineer := model.Engineer{ID: id, Name: req.Name, Email: req.Email, Phone: req.Phone}
	err = h.store.UpdateEngineer(c.Request.Context(), &engineer)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "engineer not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update engineer"})
		return
	}
	c.JSON(http.StatusOK, engineer)
}

// DeleteEngineer handles DELETE /api/engineers/:id.
func (h *Handler) DeleteEngineer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid engineer id"})
		return
	}

	err = h.store.DeleteEngineer(c.Request.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "engineer not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete engineer"})
		return
	}
	c.Status(http.StatusNoContent)
}
