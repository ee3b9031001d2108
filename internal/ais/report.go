// Package ais fetches vessel positions from AIS data providers. A primary
// provider is queried in batch; vessels it cannot resolve fall back, under a
// cooldown rule, to a per-vessel secondary provider. Field names and units
// differ between the two, so each provider normalizes its records into a
// Report before anything downstream sees them.
package ais

// Provenance values carried on every Report. Downstream consumers use them
// for call statistics and for the secondary-fetch bookkeeping on the vessel.
const (
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
)

// Report is a provider-normalized position record for a single vessel.
type Report struct {
	Source string

	MMSI     string
	IMO      string
	Name     string
	Callsign string
	Type     int

	Latitude  float64
	Longitude float64
	SOG       float64
	COG       float64
	Draught   float64

	// Destination and ETA stay raw: destination strings are normalized by
	// the destination gate, ETA by the estimator's parser chain.
	Destination string
	ETA         string
}
