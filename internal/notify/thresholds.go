// Package notify holds the notification threshold configuration, the
// outbound delivery queue, and the delivery worker that drains it through a
// messaging transport.
package notify

import (
	"fmt"
	"strings"

	"ship-tracking-backend/internal/model"
)

// Threshold is an advance-warning milestone: when a vessel's ETA drops to or
// below Hours and the flag named by Key is still unset, one message per
// assigned engineer is queued.
type Threshold struct {
	Hours   float64
	Key     string
	Message func(vesselName, portName string) string
}

// Thresholds returns the configured milestones ordered from most urgent
// (smallest hour value) to least. The ordering is load-bearing: the
// processor fires the first unsent threshold covering the current ETA and
// back-fills every less urgent flag.
func Thresholds() []Threshold {
	return []Threshold{
		{
			Hours: 12,
			Key:   model.Threshold12h,
			Message: func(vesselName, portName string) string {
				return fmt.Sprintf("%s is ~12 hours away from %s. However, this is guidance only. "+
					"Please see vessel tracking or wait for message when vessel is in port zone to plan attendance.",
					vesselName, portName)
			},
		},
		{
			Hours: 48,
			Key:   model.Threshold48h,
			Message: func(vesselName, portName string) string {
				return fmt.Sprintf("%s is ~48 hours away from %s. However, this is guidance only. "+
					"Please see vessel tracking or wait for message when vessel is in port zone to plan attendance.",
					vesselName, portName)
			},
		},
	}
}

// ZoneEntryMessage builds the port-zone entry notification. The wording is
// port-specific where local pilotage makes the channel transit time known.
func ZoneEntryMessage(vesselName, unlocode, portName string) string {
	switch unlocode {
	case "BEANR":
		return fmt.Sprintf("%s has entered the Port Channel of Antwerp. Vessel will arrive in 3-4 hours. Please plan accordingly.", vesselName)
	case "NLRTM":
		return fmt.Sprintf("%s has entered the Port Channel of Rotterdam. Vessel will arrive in 2-3 hours. Please plan accordingly.", vesselName)
	case "BEZEE":
		return fmt.Sprintf("%s has entered the Port Channel of Zeebrugge. Vessel will arrive in approximately 3 hours. Please plan accordingly.", vesselName)
	default:
		return fmt.Sprintf("%s has entered the Port Channel of %s. Vessel will arrive soon. Please plan accordingly.", vesselName, portName)
	}
}

// ArrivalMessage builds the final arrival notification.
func ArrivalMessage(vesselName, portName string) string {
	return fmt.Sprintf("%s has arrived at %s", vesselName, portName)
}

// IndicatedArrivalMessage builds the one-off caution sent when AIS data
// indicates arrival but the vessel never crossed the port zone.
func IndicatedArrivalMessage(vesselName, portName string) string {
	return fmt.Sprintf("%s AIS indicates arrival at %s but vessel has NOT entered port zone yet. Plan with caution.",
		vesselName, portName)
}

// NormalizePhone strips the leading plus the transport does not accept.
// Empty input stays empty and callers skip the engineer.
func NormalizePhone(phone string) string {
	return strings.TrimPrefix(strings.TrimSpace(phone), "+")
}
