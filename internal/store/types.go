package store

import "errors"

// Domain errors surfaced to the API layer.
var (
	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPortConflict means the vessel is already tracking toward a
	// different port; it must be deactivated before re-assignment.
	ErrPortConflict = errors.New("vessel is tracking toward a different port")
	// ErrDuplicateEmail means an engineer with that email already exists.
	ErrDuplicateEmail = errors.New("engineer with this email already exists")
)

// Registration is a request to start (or extend) tracking of a vessel.
type Registration struct {
	MMSI        string
	Name        string
	PortID      int64
	EngineerIDs []int64
}

// Registration outcomes.
const (
	OutcomeCreated     = "created"
	OutcomeReactivated = "reactivated"
	OutcomeMerged      = "merged"
	OutcomeUpdated     = "updated"
)

// DailyCalls is one day of provider call counts for the statistics endpoint.
type DailyCalls struct {
	Date      string `json:"date"`
	Primary   int64  `json:"primary"`
	Secondary int64  `json:"secondary"`
}

// CallStats aggregates provider usage over a date range.
type CallStats struct {
	Total          int64        `json:"total"`
	TotalPrimary   int64        `json:"totalPrimary"`
	TotalSecondary int64        `json:"totalSecondary"`
	Daily          []DailyCalls `json:"daily"`
}
