package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ship-tracking-backend/internal/ais"
	"ship-tracking-backend/internal/eta"
	"ship-tracking-backend/internal/model"
	"ship-tracking-backend/internal/notify"
	"ship-tracking-backend/internal/store"
)

// mockStore implements store.Store with overridable functions.
type mockStore struct {
	ActiveVesselMMSIsFunc  func(ctx context.Context) ([]string, error)
	VesselsByMMSIFunc      func(ctx context.Context, mmsis []string) ([]model.Vessel, error)
	SaveVesselFunc         func(ctx context.Context, v *model.Vessel) error
	RecordProviderCallFunc func(ctx context.Context, source string) error
	DeleteExpiredFunc      func(ctx context.Context, now time.Time) (int64, error)

	saved    []model.Vessel
	recorded []string
}

func (m *mockStore) DB() *gorm.DB { return nil }

func (m *mockStore) ActiveVesselMMSIs(ctx context.Context) ([]string, error) {
	if m.ActiveVesselMMSIsFunc != nil {
		return m.ActiveVesselMMSIsFunc(ctx)
	}
	return nil, nil
}

func (m *mockStore) VesselsByMMSI(ctx context.Context, mmsis []string) ([]model.Vessel, error) {
	if m.VesselsByMMSIFunc != nil {
		return m.VesselsByMMSIFunc(ctx, mmsis)
	}
	return nil, nil
}

func (m *mockStore) SaveVessel(ctx context.Context, v *model.Vessel) error {
	m.saved = append(m.saved, *v)
	if m.SaveVesselFunc != nil {
		return m.SaveVesselFunc(ctx, v)
	}
	return nil
}

func (m *mockStore) RecordProviderCall(ctx context.Context, source string) error {
	m.recorded = append(m.recorded, source)
	if m.RecordProviderCallFunc != nil {
		return m.RecordProviderCallFunc(ctx, source)
	}
	return nil
}

func (m *mockStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, now)
	}
	return 0, nil
}

func (m *mockStore) RegisterVessel(ctx context.Context, reg store.Registration) (*model.Vessel, string, error) {
	return nil, "", nil
}
func (m *mockStore) DeactivateVessel(ctx context.Context, mmsi string) (*model.Vessel, error) {
	return nil, nil
}
func (m *mockStore) GetVessel(ctx context.Context, mmsi string) (*model.Vessel, error) {
	return nil, nil
}
func (m *mockStore) ListVesselsByStatus(ctx context.Context, status string, page, limit int) ([]model.Vessel, int64, error) {
	return nil, 0, nil
}
func (m *mockStore) MapVessels(ctx context.Context) ([]model.Vessel, error)  { return nil, nil }
func (m *mockStore) ListPorts(ctx context.Context) ([]model.Port, error)     { return nil, nil }
func (m *mockStore) CreatePort(ctx context.Context, p *model.Port) error     { return nil }
func (m *mockStore) ListEngineers(ctx context.Context) ([]model.Engineer, error) {
	return nil, nil
}
func (m *mockStore) CreateEngineer(ctx context.Context, e *model.Engineer) error { return nil }
func (m *mockStore) UpdateEngineer(ctx context.Context, e *model.Engineer) error { return nil }
func (m *mockStore) DeleteEngineer(ctx context.Context, id int64) error          { return nil }
func (m *mockStore) CallStatsRange(ctx context.Context, from, to time.Time) (store.CallStats, error) {
	return store.CallStats{}, nil
}

// mockSource implements PositionSource.
type mockSource struct {
	FetchBatchFunc func(ctx context.Context, vessels []model.Vessel) (map[string]ais.Report, []model.Vessel, error)
	calls          int
}

func (m *mockSource) FetchBatch(ctx context.Context, vessels []model.Vessel) (map[string]ais.Report, []model.Vessel, error) {
	m.calls++
	return m.FetchBatchFunc(ctx, vessels)
}

func TestTrackOnce_HappyPath(t *testing.T) {
	vessel := testVessel()

	st := &mockStore{
		ActiveVesselMMSIsFunc: func(ctx context.Context) ([]string, error) {
			return []string{vessel.MMSI}, nil
		},
		VesselsByMMSIFunc: func(ctx context.Context, mmsis []string) ([]model.Vessel, error) {
			assert.Equal(t, []string{vessel.MMSI}, mmsis)
			return []model.Vessel{vessel}, nil
		},
	}
	source := &mockSource{
		FetchBatchFunc: func(ctx context.Context, vessels []model.Vessel) (map[string]ais.Report, []model.Vessel, error) {
			return map[string]ais.Report{vessel.MMSI: reportAt(50, 12)}, nil, nil
		},
	}
	outbox := notify.NewQueue()
	svc := NewService(st, source, newTestProcessor(), outbox, time.Minute, 50)

	svc.TrackOnce(context.Background())

	require.Len(t, st.saved, 1)
	assert.True(t, st.saved[0].Notified12h)
	assert.Equal(t, []string{ais.SourcePrimary}, st.recorded)
	// One queued message per engineer.
	assert.Equal(t, 2, outbox.Len())
}

func TestTrackOnce_BatchFailureRequeues(t *testing.T) {
	vessel := testVessel()

	st := &mockStore{
		ActiveVesselMMSIsFunc: func(ctx context.Context) ([]string, error) {
			return []string{vessel.MMSI}, nil
		},
		VesselsByMMSIFunc: func(ctx context.Context, mmsis []string) ([]model.Vessel, error) {
			return []model.Vessel{vessel}, nil
		},
	}
	source := &mockSource{
		FetchBatchFunc: func(ctx context.Context, vessels []model.Vessel) (map[string]ais.Report, []model.Vessel, error) {
			return nil, vessels, ais.ErrBatchFailed
		},
	}
	outbox := notify.NewQueue()
	svc := NewService(st, source, newTestProcessor(), outbox, time.Minute, 50)

	svc.TrackOnce(context.Background())

	assert.Empty(t, st.saved)
	assert.Empty(t, st.recorded)
	assert.Equal(t, 0, outbox.Len())
	assert.Equal(t, 1, svc.batches.FailedCount())

	// The next cycle retries the same batch.
	source.FetchBatchFunc = func(ctx context.Context, vessels []model.Vessel) (map[string]ais.Report, []model.Vessel, error) {
		require.Len(t, vessels, 1)
		return map[string]ais.Report{vessel.MMSI: reportAt(300, 12)}, nil, nil
	}
	svc.TrackOnce(context.Background())

	assert.Len(t, st.saved, 1)
	assert.Equal(t, 0, svc.batches.FailedCount())
}

func TestTrackOnce_UnresolvedVesselsAreSkippedNotSaved(t *testing.T) {
	a := testVessel()
	b := testVessel()
	b.MMSI = "211234567"

	st := &mockStore{
		ActiveVesselMMSIsFunc: func(ctx context.Context) ([]string, error) {
			return []string{a.MMSI, b.MMSI}, nil
		},
		VesselsByMMSIFunc: func(ctx context.Context, mmsis []string) ([]model.Vessel, error) {
			return []model.Vessel{a, b}, nil
		},
	}
	source := &mockSource{
		FetchBatchFunc: func(ctx context.Context, vessels []model.Vessel) (map[string]ais.Report, []model.Vessel, error) {
			// Only vessel a resolves; b stays on secondary cooldown.
			return map[string]ais.Report{a.MMSI: reportAt(400, 12)}, []model.Vessel{b}, nil
		},
	}
	outbox := notify.NewQueue()
	svc := NewService(st, source, newTestProcessor(), outbox, time.Minute, 50)

	svc.TrackOnce(context.Background())

	require.Len(t, st.saved, 1)
	assert.Equal(t, a.MMSI, st.saved[0].MMSI)
}

func TestTrackOnce_SaveErrorDoesNotBlockOthers(t *testing.T) {
	a := testVessel()
	b := testVessel()
	b.MMSI = "211234567"

	st := &mockStore{
		ActiveVesselMMSIsFunc: func(ctx context.Context) ([]string, error) {
			return []string{a.MMSI, b.MMSI}, nil
		},
		VesselsByMMSIFunc: func(ctx context.Context, mmsis []string) ([]model.Vessel, error) {
			return []model.Vessel{a, b}, nil
		},
		SaveVesselFunc: func(ctx context.Context, v *model.Vessel) error {
			if v.MMSI == a.MMSI {
				return errors.New("disk full")
			}
			return nil
		},
	}
	source := &mockSource{
		FetchBatchFunc: func(ctx context.Context, vessels []model.Vessel) (map[string]ais.Report, []model.Vessel, error) {
			return map[string]ais.Report{
				a.MMSI: reportAt(400, 12),
				b.MMSI: reportAt(400, 12),
			}, nil, nil
		},
	}
	svc := NewService(st, source, newTestProcessor(), notify.NewQueue(), time.Minute, 50)

	svc.TrackOnce(context.Background())

	// Both vessels were attempted despite the first save failing.
	assert.Len(t, st.saved, 2)
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(&mockStore{}, &mockSource{}, newTestProcessor(), notify.NewQueue(), 0, 0)
	assert.Equal(t, 3*time.Minute, svc.interval)
	assert.Equal(t, 50, svc.batchSize)
}

func TestEstimatorDefaultsUsedByProcessor(t *testing.T) {
	// Guard the arrival envelope the processor depends on.
	e := eta.Default()
	assert.Equal(t, 0.1, e.MinSpeedKn)
	assert.Equal(t, 3.0, e.ArrivalRadiusNm)
	assert.Equal(t, 0.5, e.ArrivalMaxSpeedKn)
}
