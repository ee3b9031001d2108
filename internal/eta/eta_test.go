package eta

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ship-tracking-backend/internal/geo"
)

var (
	// Fixed clock so short-date cases never straddle a year boundary.
	testNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

	vesselPos = geo.Point{Latitude: 52.5, Longitude: 3.2}
	portPos   = geo.Point{Latitude: 51.9225, Longitude: 4.47917}
)

func TestEstimateHours_EpochFormats(t *testing.T) {
	e := Default()
	target := testNow.Add(10 * time.Hour)

	testCases := []struct {
		name string
		raw  string
	}{
		{"Epoch milliseconds", fmt.Sprintf("%d", target.UnixMilli())},
		{"Epoch seconds", fmt.Sprintf("%d", target.Unix())},
		{"Epoch minutes", fmt.Sprintf("%d", target.Unix()/60)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			hours := e.EstimateHours(tc.raw, vesselPos, 12, portPos, testNow)
			assert.InDelta(t, 10.0, hours, 0.02)
		})
	}
}

func TestEstimateHours_CompactDate(t *testing.T) {
	e := Default()

	// 06-16 02:30 UTC as MMDDHHmm, 14.5 hours after testNow.
	hours := e.EstimateHours("06160230", vesselPos, 12, portPos, testNow)
	assert.InDelta(t, 14.5, hours, 0.01)

	// Leading-zero month survives the padding ("01020304" -> Jan 2 03:04,
	// rolled into next year because it is months in the past).
	hours = e.EstimateHours("1020304", vesselPos, 12, portPos, testNow)
	expected := time.Date(2027, time.January, 2, 3, 4, 0, 0, time.UTC).Sub(testNow).Hours()
	assert.InDelta(t, expected, hours, 0.01)
}

func TestEstimateHours_ShortDate(t *testing.T) {
	e := Default()

	hours := e.EstimateHours("06-15 14:00", vesselPos, 12, portPos, testNow)
	assert.InDelta(t, 2.0, hours, 0.01)
}

func TestEstimateHours_ShortDateYearRollover(t *testing.T) {
	e := Default()

	// A January date seen in June is more than 30 days stale, so it is read
	// as next January rather than discarded.
	hours := e.EstimateHours("01-10 08:00", vesselPos, 12, portPos, testNow)
	expected := time.Date(2027, time.January, 10, 8, 0, 0, 0, time.UTC).Sub(testNow).Hours()
	assert.InDelta(t, expected, hours, 0.01)
}

func TestEstimateHours_AbsoluteTimestamp(t *testing.T) {
	e := Default()

	hours := e.EstimateHours("2026-06-16T12:00:00Z", vesselPos, 12, portPos, testNow)
	assert.InDelta(t, 24.0, hours, 0.01)
}

func TestEstimateHours_JustPassedReadsAsArrived(t *testing.T) {
	e := Default()

	raw := fmt.Sprintf("%d", testNow.Add(-2*time.Hour).Unix())
	assert.Equal(t, 0.0, e.EstimateHours(raw, vesselPos, 12, portPos, testNow))
}

func TestEstimateHours_StaleTimestampFallsThrough(t *testing.T) {
	e := Default()

	// 8 hours past exceeds the recent-past allowance; the estimate falls
	// back to distance/speed.
	raw := fmt.Sprintf("%d", testNow.Add(-8*time.Hour).Unix())
	hours := e.EstimateHours(raw, vesselPos, 12, portPos, testNow)

	expected := geo.DistanceNm(vesselPos, portPos) / 12
	assert.InDelta(t, expected, hours, 0.01)
}

func TestEstimateHours_DistanceSpeedFallback(t *testing.T) {
	e := Default()

	hours := e.EstimateHours("", vesselPos, 12, portPos, testNow)
	expected := geo.DistanceNm(vesselPos, portPos) / 12
	assert.InDelta(t, expected, hours, 0.001)

	// Garbage ETA string behaves the same as no ETA.
	hours = e.EstimateHours("WHEN READY", vesselPos, 12, portPos, testNow)
	assert.InDelta(t, expected, hours, 0.001)
}

func TestEstimateHours_UnknowableWithoutSpeed(t *testing.T) {
	e := Default()

	assert.True(t, math.IsInf(e.EstimateHours("", vesselPos, 0, portPos, testNow), 1))
	assert.True(t, math.IsInf(e.EstimateHours("", vesselPos, 0.05, portPos, testNow), 1))
	assert.True(t, math.IsInf(e.EstimateHours("", vesselPos, math.NaN(), portPos, testNow), 1))
}

func TestShouldMarkArrived(t *testing.T) {
	e := Default()

	testCases := []struct {
		name       string
		etaHours   float64
		sog        float64
		distanceNm float64
		expected   bool
	}{
		{"Close and stopped", 0.05, 0.2, 1.0, true},
		{"Inside arrival radius, eta unknown", 500, 0.1, 2.5, true},
		{"Close but still moving", 0.05, 4.0, 1.0, false},
		{"Stopped but far away", 20, 0.1, 80, false},
		{"ETA at exact threshold", 0.1, 0.5, 10, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, e.ShouldMarkArrived(tc.etaHours, tc.sog, tc.distanceNm))
		})
	}
}
