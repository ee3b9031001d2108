// Package eta estimates hours-until-arrival for a tracked vessel. Providers
// report ETA in wildly different shapes (epoch numbers, compact MMDDHHmm
// integers, short "MM-DD HH:mm" strings, full timestamps) and frequently not
// at all, in which case the estimate falls back to distance over speed.
package eta

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ship-tracking-backend/internal/geo"
)

const (
	// maxPlausibleHours rejects timestamps too far out to be a live ETA.
	maxPlausibleHours = 1000.0
	// recentPastHours is the window in which a just-passed ETA is read as
	// "effectively arrived" instead of being discarded.
	recentPastHours = 6.0
	// yearRolloverDays: providers reuse month/day without a year, so a
	// resolved date this far in the past belongs to next year.
	yearRolloverDays = 30
)

// Estimator holds the tunables for ETA estimation and arrival detection.
type Estimator struct {
	// MinSpeedKn is the SOG floor below which a distance/speed estimate is
	// not attempted (a drifting vessel would fabricate absurd ETAs).
	MinSpeedKn float64

	// Arrival detection: close enough (in time or distance) and slow enough.
	ArrivalMaxHours   float64
	ArrivalRadiusNm   float64
	ArrivalMaxSpeedKn float64
}

// Default returns an estimator with the production tunables.
func Default() Estimator {
	return Estimator{
		MinSpeedKn:        0.1,
		ArrivalMaxHours:   0.1, // 6 minutes
		ArrivalRadiusNm:   3,
		ArrivalMaxSpeedKn: 0.5,
	}
}

// EstimateHours returns the hours until arrival, or +Inf when no usable
// estimate exists. It never fails: every parse strategy that comes up empty
// falls through to the next, ending at the distance/speed fallback.
//
// A parsed timestamp is accepted when it lies in (0, maxPlausibleHours)
// hours from now; a timestamp in (-recentPastHours, 0] means the ETA just
// passed and the vessel is treated as effectively arrived (0 hours).
func (e Estimator) EstimateHours(rawETA string, pos geo.Point, sog float64, port geo.Point, now time.Time) float64 {
	raw := strings.TrimSpace(rawETA)
	if raw != "" {
		for _, parse := range parserChain {
			ts, ok := parse(raw, now)
			if !ok {
				continue
			}
			hours := ts.Sub(now).Hours()
			switch {
			case hours > 0 && hours < maxPlausibleHours:
				return hours
			case hours > -recentPastHours && hours <= 0:
				return 0
			}
			// Implausible resolution for this strategy, try the next one.
		}
	}

	return e.hoursFromDistance(pos, sog, port)
}

// hoursFromDistance is the fallback estimate: great-circle distance to the
// port divided by speed over ground.
func (e Estimator) hoursFromDistance(pos geo.Point, sog float64, port geo.Point) float64 {
	if !isFinite(sog) || sog <= e.MinSpeedKn {
		return math.Inf(1)
	}
	return geo.DistanceNm(pos, port) / sog
}

// ShouldMarkArrived reports whether the vessel's kinematics read as berthed:
// either the ETA or the remaining distance is inside the arrival envelope,
// and the vessel has effectively stopped.
func (e Estimator) ShouldMarkArrived(etaHours, sog, distanceNm float64) bool {
	closeEnough := etaHours <= e.ArrivalMaxHours || distanceNm <= e.ArrivalRadiusNm
	slowEnough := isFinite(sog) && sog <= e.ArrivalMaxSpeedKn
	return closeEnough && slowEnough
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// --- parser chain -----------------------------------------------------------

// parserFn is one pure parse strategy. It returns the resolved timestamp and
// whether the input matched this strategy's shape at all; plausibility of the
// result is judged by the caller.
type parserFn func(raw string, now time.Time) (time.Time, bool)

var parserChain = []parserFn{
	parseEpochNumber,
	parseCompactDate,
	parseShortDate,
	parseAbsolute,
}

var digitsRe = regexp.MustCompile(`^\d+$`)

// parseEpochNumber interprets an all-digit value as an epoch timestamp in
// milliseconds (> 1e12), seconds (> 1e9), or minutes (> 1e6).
func parseEpochNumber(raw string, _ time.Time) (time.Time, bool) {
	if !digitsRe.MatchString(raw) {
		return time.Time{}, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	switch {
	case n > 1e12:
		return time.UnixMilli(n).UTC(), true
	case n > 1e9:
		return time.Unix(n, 0).UTC(), true
	case n > 1e6:
		return time.Unix(n*60, 0).UTC(), true
	}
	return time.Time{}, false
}

// parseCompactDate interprets an up-to-8-digit value as MMDDHHmm in UTC with
// the current year assumed.
func parseCompactDate(raw string, now time.Time) (time.Time, bool) {
	if !digitsRe.MatchString(raw) || len(raw) > 8 {
		return time.Time{}, false
	}
	s := strings.Repeat("0", 8-len(raw)) + raw
	month, _ := strconv.Atoi(s[0:2])
	day, _ := strconv.Atoi(s[2:4])
	hour, _ := strconv.Atoi(s[4:6])
	minute, _ := strconv.Atoi(s[6:8])
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	ts := time.Date(now.UTC().Year(), time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return rollYearForward(ts, now), true
}

var shortDateRe = regexp.MustCompile(`^(\d{2})-(\d{2}) (\d{2}):(\d{2})$`)

// parseShortDate interprets the "MM-DD HH:mm" shape (UTC, current year).
func parseShortDate(raw string, now time.Time) (time.Time, bool) {
	m := shortDateRe.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	hour, _ := strconv.Atoi(m[3])
	minute, _ := strconv.Atoi(m[4])
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	ts := time.Date(now.UTC().Year(), time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return rollYearForward(ts, now), true
}

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// parseAbsolute interprets a fully qualified date/time string.
func parseAbsolute(raw string, _ time.Time) (time.Time, bool) {
	for _, layout := range absoluteLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// rollYearForward bumps a year-less resolution into next year when it lands
// more than yearRolloverDays in the past.
func rollYearForward(ts, now time.Time) time.Time {
	if now.Sub(ts) > yearRolloverDays*24*time.Hour {
		return ts.AddDate(1, 0, 0)
	}
	return ts
}
