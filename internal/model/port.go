package model

import "time"

// DefaultPortRadiusNm is the geofence radius used when a port does not
// configure its own.
const DefaultPortRadiusNm = 25.0

// Port represents an arrival port with its geofence.
type Port struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:128;not null"`
	Unlocode  string `gorm:"uniqueIndex;size:8;not null"`
	Latitude  float64
	Longitude float64
	RadiusNm  float64 `gorm:"default:25"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot copies the port into the denormalized form stored on a vessel.
func (p *Port) Snapshot() PortSnapshot {
	radius := p.RadiusNm
	if radius <= 0 {
		radius = DefaultPortRadiusNm
	}
	return PortSnapshot{
		Name:      p.Name,
		Unlocode:  p.Unlocode,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		RadiusNm:  radius,
	}
}
