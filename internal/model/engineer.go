package model

import "time"

// Engineer is an on-call engineer notified about vessel movements. The phone
// number is the delivery endpoint for the messaging transport.
type Engineer struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:128;not null"`
	Email     string `gorm:"uniqueIndex;size:128;not null"`
	Phone     string `gorm:"size:32;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot copies the engineer into the denormalized form stored on a vessel.
func (e *Engineer) Snapshot() EngineerSnapshot {
	return EngineerSnapshot{ID: e.ID, Name: e.Name, Email: e.Email, Phone: e.Phone}
}
