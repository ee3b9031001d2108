package model

import "time"

// Provider sources recorded for call statistics.
const (
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
)

// ProviderCall records a single upstream AIS provider request, used by the
// statistics endpoint to watch request budgets per provider.
type ProviderCall struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Source    string    `gorm:"size:16;not null;index"`
	CreatedAt time.Time `gorm:"index"`
}
