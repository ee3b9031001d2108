package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ship-tracking-backend/config"
	"ship-tracking-backend/internal/ais"
	"ship-tracking-backend/internal/api"
	"ship-tracking-backend/internal/eta"
	"ship-tracking-backend/internal/model"
	"ship-tracking-backend/internal/notify"
	"ship-tracking-backend/internal/store"
	"ship-tracking-backend/internal/tracker"
)

// Rotterdam port mark used across the lifecycle test. Positions are placed
// due south so distance is just the latitude delta.
const (
	itPortLat = 51.9
	itPortLon = 4.4
)

type primaryPosition struct {
	distanceNm float64
	sog        float64
}

// captureTransport records deliveries instead of calling a real gateway.
type captureTransport struct {
	sent []string
}

func (t *captureTransport) Send(ctx context.Context, destination, body string) error {
	t.sent = append(t.sent, body)
	return nil
}

func (t *captureTransport) Connected() bool { return true }

// TestVesselLifecycle walks one vessel from registration to arrival: the
// advance warning fires on approach, the zone entry alert fires when the
// vessel crosses the geofence, and arrival finalizes the session.
func TestVesselLifecycle(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file:lifecycle?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	err = testDB.AutoMigrate(&model.Vessel{}, &model.Port{}, &model.Engineer{}, &model.ProviderCall{})
	require.NoError(t, err)

	appStore := store.NewGormStore(testDB)

	// Scripted primary provider: each tracking cycle sees the vessel a bit
	// closer to the port.
	positions := []primaryPosition{
		{distanceNm: 300, sog: 12},  // ~25h out: 48h warning
		{distanceNm: 50, sog: 12},   // ~4h out: 12h warning
		{distanceNm: 10, sog: 8},    // inside the 25nm geofence
		{distanceNm: 1, sog: 0.2},   // berthed
	}
	var cycle int
	providerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pos := positions[len(positions)-1]
		if cycle < len(positions) {
			pos = positions[cycle]
		}
		cycle++

		header := map[string]any{"ERROR": false, "RECORDS": 1}
		record := map[string]any{
			"MMSI":      244110352,
			"NAME":      "EVER GLORY",
			"LATITUDE":  itPortLat - pos.distanceNm/60,
			"LONGITUDE": itPortLon,
			"SOG":       pos.sog,
			"COG":       0.0,
			"DEST":      "ROTTERDAM NLRTM",
			"ETA":       "",
		}
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode([]any{header, []any{record}})
		assert.NoError(t, err)
	}))
	defer providerSrv.Close()

	fetcher := ais.NewFetcher(
		ais.NewPrimaryClient(providerSrv.URL, "testuser", 0),
		ais.NewSecondaryClient("http://unused.invalid", "unused"),
		ais.FetcherConfig{MaxAttempts: 1},
	)

	outbox := notify.NewQueue()
	processor := tracker.NewProcessor(eta.Default(), notify.Thresholds(), 168*time.Hour)
	trackerSvc := tracker.NewService(appStore, fetcher, processor, outbox, time.Minute, 50)

	transport := &captureTransport{}
	worker := notify.NewWorker(outbox, transport, time.Second, 3)

	router := api.NewRouter(appStore, &config.ServerConfig{CacheTTLSeconds: 1})

	// Seed the port and engineer through the API.
	portBody, _ := json.Marshal(map[string]any{
		"name": "Rotterdam", "unlocode": "NLRTM",
		"latitude": itPortLat, "longitude": itPortLon, "radiusNm": 25,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ports", bytes.NewReader(portBody))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var port model.Port
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &port))

	engBody, _ := json.Marshal(map[string]any{
		"name": "Alice", "email": "alice@example.com", "phone": "+31611111111",
	})
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/engineers", bytes.NewReader(engBody))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var engineer model.Engineer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &engineer))

	// Register the vessel.
	regBody, _ := json.Marshal(map[string]any{
		"mmsi": "244110352", "name": "EVER GLORY",
		"portId": port.ID, "engineerIds": []int64{engineer.ID},
	})
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/api/vessels", bytes.NewReader(regBody))
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	ctx := context.Background()
	drain := func() {
		for outbox.Len() > 0 {
			worker.ProcessOne(ctx)
		}
	}

	t.Run("Cycle 1: 48h warning on approach", func(t *testing.T) {
		trackerSvc.TrackOnce(ctx)
		drain()

		require.Len(t, transport.sent, 1)
		assert.Contains(t, transport.sent[0], "~48 hours")

		v, err := appStore.GetVessel(ctx, "244110352")
		require.NoError(t, err)
		assert.True(t, v.Notified48h)
		assert.False(t, v.Notified12h)
		assert.Equal(t, model.StatusTracking, v.Status)
	})

	t.Run("Cycle 2: 12h warning", func(t *testing.T) {
		trackerSvc.TrackOnce(ctx)
		drain()

		require.Len(t, transport.sent, 2)
		assert.Contains(t, transport.sent[1], "~12 hours")
	})

	t.Run("Cycle 3: zone entry", func(t *testing.T) {
		trackerSvc.TrackOnce(ctx)
		drain()

		require.Len(t, transport.sent, 3)
		assert.Contains(t, transport.sent[2], "Port Channel of Rotterdam")

		v, err := appStore.GetVessel(ctx, "244110352")
		require.NoError(t, err)
		assert.True(t, v.NotifiedZoneEntry)
	})

	t.Run("Cycle 4: arrival finalizes the session", func(t *testing.T) {
		trackerSvc.TrackOnce(ctx)
		drain()

		require.Len(t, transport.sent, 4)
		assert.Contains(t, transport.sent[3], "has arrived at Rotterdam")

		v, err := appStore.GetVessel(ctx, "244110352")
		require.NoError(t, err)
		assert.Equal(t, model.StatusArrived, v.Status)
		assert.False(t, v.IsActive)
		require.NotNil(t, v.ExpiresAt)

		// The vessel left the active rotation.
		mmsis, err := appStore.ActiveVesselMMSIs(ctx)
		require.NoError(t, err)
		assert.Empty(t, mmsis)

		// And it shows up in the completed list.
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/vessels/completed", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"arrived"`)
	})

	t.Run("Provider calls were recorded", func(t *testing.T) {
		stats, err := appStore.CallStatsRange(ctx,
			time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(4), stats.TotalPrimary)
		assert.Equal(t, int64(0), stats.TotalSecondary)
	})
}

// TestDivertedVesselStaysQuiet covers the destination gate end to end: a
// vessel reporting a different destination keeps getting position updates
// but produces no notifications.
func TestDivertedVesselStaysQuiet(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file:diverted?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	err = testDB.AutoMigrate(&model.Vessel{}, &model.Port{}, &model.Engineer{}, &model.ProviderCall{})
	require.NoError(t, err)

	appStore := store.NewGormStore(testDB)
	ctx := context.Background()

	port := model.Port{Name: "Rotterdam", Unlocode: "NLRTM", Latitude: itPortLat, Longitude: itPortLon, RadiusNm: 25}
	require.NoError(t, appStore.CreatePort(ctx, &port))
	engineer := model.Engineer{Name: "Alice", Email: "alice@example.com", Phone: "31611111111"}
	require.NoError(t, appStore.CreateEngineer(ctx, &engineer))

	_, _, err = appStore.RegisterVessel(ctx, store.Registration{
		MMSI: "244110352", Name: "EVER GLORY", PortID: port.ID, EngineerIDs: []int64{engineer.ID},
	})
	require.NoError(t, err)

	providerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := map[string]any{"ERROR": false, "RECORDS": 1}
		record := map[string]any{
			"MMSI": 244110352, "NAME": "EVER GLORY",
			"LATITUDE": itPortLat - 10.0/60, "LONGITUDE": itPortLon,
			"SOG": 8.0, "DEST": "HAMBURG DEHAM", "ETA": "",
		}
		json.NewEncoder(w).Encode([]any{header, []any{record}})
	}))
	defer providerSrv.Close()

	fetcher := ais.NewFetcher(
		ais.NewPrimaryClient(providerSrv.URL, "testuser", 0),
		ais.NewSecondaryClient("http://unused.invalid", "unused"),
		ais.FetcherConfig{MaxAttempts: 1},
	)
	outbox := notify.NewQueue()
	processor := tracker.NewProcessor(eta.Default(), notify.Thresholds(), 168*time.Hour)
	trackerSvc := tracker.NewService(appStore, fetcher, processor, outbox, time.Minute, 50)

	trackerSvc.TrackOnce(ctx)

	assert.Equal(t, 0, outbox.Len())

	v, err := appStore.GetVessel(ctx, "244110352")
	require.NoError(t, err)
	assert.False(t, v.NotifiedZoneEntry)
	assert.Equal(t, "HAMBURG DEHAM", v.Destination)
	require.NotNil(t, v.LastUpdated)
}
