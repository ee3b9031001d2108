package model

import "time"

// Vessel statuses. A vessel is "tracking" from registration until arrival is
// finalized, then "arrived" until its retention window lapses.
const (
	StatusTracking = "tracking"
	StatusArrived  = "arrived"
	StatusInactive = "inactive"
)

// PortSnapshot is the port assignment copied onto the vessel at registration
// time. It is a value snapshot, not a live reference: re-assigning a vessel
// to another port requires an explicit update through the registration flow.
type PortSnapshot struct {
	Name      string  `json:"name"`
	Unlocode  string  `json:"unlocode"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusNm  float64 `json:"radiusNm"`
}

// EngineerSnapshot is the contact snapshot of an assigned engineer.
type EngineerSnapshot struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Vessel is a tracked ship. MMSI is the sole external join key.
type Vessel struct {
	MMSI     string `gorm:"primaryKey;size:16"`
	IMO      string `gorm:"size:16"`
	Name     string `gorm:"size:128"`
	Callsign string `gorm:"size:16"`
	Type     int

	Latitude  float64
	Longitude float64
	SOG       float64 `gorm:"column:sog"`
	COG       float64 `gorm:"column:cog"`
	Draught   float64

	// Itinerary as last reported by the provider. Destination is free text;
	// ETA keeps the raw provider value because formats differ per provider.
	Destination string `gorm:"size:64"`
	ETA         string `gorm:"column:eta;size:64"`

	Port      PortSnapshot       `gorm:"serializer:json"`
	Engineers []EngineerSnapshot `gorm:"serializer:json"`

	// Notification ledger. One flag per configured threshold plus zone entry
	// and arrival. IndicatedArrival records the one-off caution sent when a
	// provider reports arrival before the vessel entered the port zone.
	Notified12h       bool
	Notified48h       bool
	NotifiedZoneEntry bool
	NotifiedArrival   bool
	IndicatedArrival  bool

	Status   string `gorm:"size:16;index;default:tracking"`
	IsActive bool   `gorm:"index"`

	LastUpdated         *time.Time
	LastSecondaryUpdate *time.Time
	TrackingStartedAt   time.Time
	ExpiresAt           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Threshold flag keys. Stable names used by the notification config.
const (
	Threshold12h = "12h"
	Threshold48h = "48h"
)

// ThresholdNotified reports whether the flag for the named threshold is set.
// Unknown keys read as already notified so a misconfigured threshold can
// never fire.
func (v *Vessel) ThresholdNotified(key string) bool {
	switch key {
	case Threshold12h:
		return v.Notified12h
	case Threshold48h:
		return v.Notified48h
	}
	return true
}

// SetThresholdNotified sets the flag for the named threshold.
func (v *Vessel) SetThresholdNotified(key string) {
	switch key {
	case Threshold12h:
		v.Notified12h = true
	case Threshold48h:
		v.Notified48h = true
	}
}

// ResetLedger clears every notification flag. Used when a previously arrived
// vessel is re-registered for a new tracking session.
func (v *Vessel) ResetLedger() {
	v.Notified12h = false
	v.Notified48h = false
	v.NotifiedZoneEntry = false
	v.NotifiedArrival = false
	v.IndicatedArrival = false
}
