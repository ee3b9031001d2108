package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ship-tracking-backend/internal/model"
	"ship-tracking-backend/internal/store"
)

type registerVesselRequest struct {
	MMSI        string  `json:"mmsi" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	PortID      int64   `json:"portId" binding:"required"`
	EngineerIDs []int64 `json:"engineerIds" binding:"required"`
}

// vesselResponse is the wire form of a vessel. The notification ledger is
// exposed so the UI can show which alerts already went out.
type vesselResponse struct {
	MMSI              string                   `json:"mmsi"`
	IMO               string                   `json:"imo,omitempty"`
	Name              string                   `json:"name"`
	Callsign          string                   `json:"callsign,omitempty"`
	Latitude          float64                  `json:"latitude"`
	Longitude         float64                  `json:"longitude"`
	SOG               float64                  `json:"sog"`
	COG               float64                  `json:"cog"`
	Destination       string                   `json:"destination"`
	ETA               string                   `json:"eta"`
	Port              model.PortSnapshot       `json:"port"`
	Engineers         []model.EngineerSnapshot `json:"engineers"`
	Status            string                   `json:"status"`
	Notified12h       bool                     `json:"notified12h"`
	Notified48h       bool                     `json:"notified48h"`
	NotifiedZoneEntry bool                     `json:"notifiedZoneEntry"`
	NotifiedArrival   bool                     `json:"notifiedArrival"`
	TrackingStartedAt string                   `json:"trackingStartedAt"`
	LastUpdated       string                   `json:"lastUpdated,omitempty"`
}

func toVesselResponse(v *model.Vessel) vesselResponse {
	resp := vesselResponse{
		MMSI:              v.MMSI,
		IMO:               v.IMO,
		Name:              v.Name,
		Callsign:          v.Callsign,
		Latitude:          v.Latitude,
		Longitude:         v.Longitude,
		SOG:               v.SOG,
		COG:               v.COG,
		Destination:       v.Destination,
		ETA:               v.ETA,
		Port:              v.Port,
		Engineers:         v.Engineers,
		Status:            v.Status,
		Notified12h:       v.Notified12h,
		Notified48h:       v.Notified48h,
		NotifiedZoneEntry: v.NotifiedZoneEntry,
		NotifiedArrival:   v.NotifiedArrival,
		TrackingStartedAt: v.TrackingStartedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if v.LastUpdated != nil {
		resp.LastUpdated = v.LastUpdated.UTC().Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// RegisterVessel handles POST /api/vessels. Registering an MMSI already
// tracked toward the same port merges the engineer assignment; a different
// port is a conflict the caller must resolve by deactivating first.
func (h *Handler) RegisterVessel(c *gin.Context) {
	var req registerVesselRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vessel, outcome, err := h.store.RegisterVessel(c.Request.Context(), store.Registration{
		MMSI:        req.MMSI,
		Name:        req.Name,
		PortID:      req.PortID,
		EngineerIDs: req.EngineerIDs,
	})
	switch {
	case errors.Is(err, store.ErrPortConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":       "vessel is already tracked toward a different port",
			"currentPort": vessel.Port.Name,
		})
		return
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register vessel"})
		return
	}

	status := http.StatusOK
	if outcome == store.OutcomeCreated {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"outcome": outcome, "vessel": toVesselResponse(vessel)})
}

// DeactivateVessel handles POST /api/vessels/:mmsi/deactivate.
func (h *Handler) DeactivateVessel(c *gin.Context) {
	vessel, err := h.store.DeactivateVessel(c.Request.Context(), c.Param("mmsi"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "vessel not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate vessel"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vessel": toVesselResponse(vessel)})
}

// GetVessel handles GET /api/vessels/:mmsi.
func (h *Handler) GetVessel(c *gin.Context) {
	vessel, err := h.store.GetVessel(c.Request.Context(), c.Param("mmsi"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "vessel not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve vessel"})
		return
	}
	c.JSON(http.StatusOK, toVesselResponse(vessel))
}

func (h *Handler) listVessels(c *gin.Context, status string) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	vessels, total, err := h.store.ListVesselsByStatus(c.Request.Context(), status, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list vessels"})
		return
	}

	responses := make([]vesselResponse, 0, len(vessels))
	for i := range vessels {
		responses = append(responses, toVesselResponse(&vessels[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"vessels": responses,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// GetTrackingVessels handles GET /api/vessels/tracking.
func (h *Handler) GetTrackingVessels(c *gin.Context) {
	h.listVessels(c, model.StatusTracking)
}

// GetCompletedVessels handles GET /api/vessels/completed.
func (h *Handler) GetCompletedVessels(c *gin.Context) {
	h.listVessels(c, model.StatusArrived)
}

// mapVesselResponse is the reduced projection for the live map.
type mapVesselResponse struct {
	MMSI        string  `json:"mmsi"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	SOG         float64 `json:"sog"`
	Destination string  `json:"destination"`
	Status      string  `json:"status"`
}

// GetMapVessels handles GET /api/vessels/map.
func (h *Handler) GetMapVessels(c *gin.Context) {
	vessels, err := h.store.MapVessels(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list vessels"})
		return
	}

	responses := make([]mapVesselResponse, 0, len(vessels))
	for _, v := range vessels {
		responses = append(responses, mapVesselResponse{
			MMSI:        v.MMSI,
			Name:        v.Name,
			Latitude:    v.Latitude,
			Longitude:   v.Longitude,
			SOG:         v.SOG,
			Destination: v.Destination,
			Status:      v.Status,
		})
	}
	c.JSON(http.StatusOK, responses)
}
