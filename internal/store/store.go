package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ship-tracking-backend/internal/model"
)

// Store defines all database operations the schedulers and the API depend on.
type Store interface {
	DB() *gorm.DB

	// Tracking pipeline.
	ActiveVesselMMSIs(ctx context.Context) ([]string, error)
	VesselsByMMSI(ctx context.Context, mmsis []string) ([]model.Vessel, error)
	SaveVessel(ctx context.Context, v *model.Vessel) error
	RecordProviderCall(ctx context.Context, source string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// Vessel lifecycle.
	RegisterVessel(ctx context.Context, reg Registration) (*model.Vessel, string, error)
	DeactivateVessel(ctx context.Context, mmsi string) (*model.Vessel, error)
	GetVessel(ctx context.Context, mmsi string) (*model.Vessel, error)
	ListVesselsByStatus(ctx context.Context, status string, page, limit int) ([]model.Vessel, int64, error)
	MapVessels(ctx context.Context) ([]model.Vessel, error)

	// Ports and engineers.
	ListPorts(ctx context.Context) ([]model.Port, error)
	CreatePort(ctx context.Context, p *model.Port) error
	ListEngineers(ctx context.Context) ([]model.Engineer, error)
	CreateEngineer(ctx context.Context, e *model.Engineer) error
	UpdateEngineer(ctx context.Context, e *model.Engineer) error
	DeleteEngineer(ctx context.Context, id int64) error

	// Statistics.
	CallStatsRange(ctx context.Context, from, to time.Time) (CallStats, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// --- tracking pipeline -------------------------------------------------------

func (s *gormStore) ActiveVesselMMSIs(ctx context.Context) ([]string, error) {
	var mmsis []string
	err := s.db.WithContext(ctx).
		Model(&model.Vessel{}).
		Where("is_active = ?", true).
		Order("mmsi").
		Pluck("mmsi", &mmsis).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active vessels: %w", err)
	}
	return mmsis, nil
}

func (s *gormStore) VesselsByMMSI(ctx context.Context, mmsis []string) ([]model.Vessel, error) {
	if len(mmsis) == 0 {
		return nil, nil
	}
	var vessels []model.Vessel
	if err := s.db.WithContext(ctx).Where("mmsi IN ?", mmsis).Find(&vessels).Error; err != nil {
		return nil, fmt.Errorf("failed to hydrate batch: %w", err)
	}
	return vessels, nil
}

func (s *gormStore) SaveVessel(ctx context.Context, v *model.Vessel) error {
	if err := s.db.WithContext(ctx).Save(v).Error; err != nil {
		return fmt.Errorf("failed to save vessel %s: %w", v.MMSI, err)
	}
	return nil
}

func (s *gormStore) RecordProviderCall(ctx context.Context, source string) error {
	if source != model.SourcePrimary && source != model.SourceSecondary {
		return nil
	}
	return s.db.WithContext(ctx).Create(&model.ProviderCall{Source: source}).Error
}

// DeleteExpired reclaims arrived vessels whose retention window has lapsed.
func (s *gormStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&model.Vessel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired vessels: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// --- vessel lifecycle --------------------------------------------------------

// RegisterVessel creates, merges, reactivates, or conflicts a tracking
// registration. Port and engineer details are copied onto the vessel as
// value snapshots: later edits to the port or an engineer do not leak into
// vessels already registered.
func (s *gormStore) RegisterVessel(ctx context.Context, reg Registration) (*model.Vessel, string, error) {
	var port model.Port
	if err := s.db.WithContext(ctx).First(&port, reg.PortID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("port %d: %w", reg.PortID, ErrNotFound)
		}
		return nil, "", err
	}

	var engineers []model.Engineer
	if len(reg.EngineerIDs) > 0 {
		if err := s.db.WithContext(ctx).Find(&engineers, reg.EngineerIDs).Error; err != nil {
			return nil, "", err
		}
	}
	if len(engineers) != len(reg.EngineerIDs) {
		return nil, "", fmt.Errorf("engineer: %w", ErrNotFound)
	}

	portSnap := port.Snapshot()
	engSnaps := make([]model.EngineerSnapshot, len(engineers))
	for i := range engineers {
		engSnaps[i] = engineers[i].Snapshot()
	}

	var vessel model.Vessel
	var outcome string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("mmsi = ?", reg.MMSI).First(&vessel).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			vessel = model.Vessel{
				MMSI:              reg.MMSI,
				Name:              reg.Name,
				Port:              portSnap,
				Engineers:         engSnaps,
				Status:            model.StatusTracking,
				IsActive:          true,
				TrackingStartedAt: time.Now().UTC(),
			}
			outcome = OutcomeCreated
			return tx.Create(&vessel).Error

		case err != nil:
			return err
		}

		switch vessel.Status {
		case model.StatusArrived:
			// A completed vessel is re-registered for a fresh tracking
			// session: ledger reset, new start time, new assignment.
			vessel.Name = reg.Name
			vessel.Port = portSnap
			vessel.Engineers = engSnaps
			vessel.ResetLedger()
			vessel.Status = model.StatusTracking
			vessel.IsActive = true
			vessel.TrackingStartedAt = time.Now().UTC()
			vessel.ExpiresAt = nil
			outcome = OutcomeReactivated
			return tx.Save(&vessel).Error

		case model.StatusTracking:
			if vessel.Port.Unlocode != portSnap.Unlocode {
				return ErrPortConflict
			}
			vessel.Engineers = mergeEngineers(vessel.Engineers, engSnaps)
			outcome = OutcomeMerged
			return tx.Save(&vessel).Error

		default:
			// Previously deactivated vessel: take the new assignment as-is.
			// The ledger is intentionally kept; deactivation is a pause,
			// not a completed session.
			vessel.Name = reg.Name
			vessel.Port = portSnap
			vessel.Engineers = engSnaps
			vessel.Status = model.StatusTracking
			vessel.IsActive = true
			outcome = OutcomeUpdated
			return tx.Save(&vessel).Error
		}
	})
	if err != nil {
		if errors.Is(err, ErrPortConflict) {
			return &vessel, "", ErrPortConflict
		}
		return nil, "", err
	}
	return &vessel, outcome, nil
}

// mergeEngineers unions two snapshot lists by engineer id, keeping the
// existing order first.
func mergeEngineers(existing, incoming []model.EngineerSnapshot) []model.EngineerSnapshot {
	seen := make(map[int64]bool, len(existing))
	merged := append([]model.EngineerSnapshot(nil), existing...)
	for _, e := range existing {
		seen[e.ID] = true
	}
	for _, e := range incoming {
		if !seen[e.ID] {
			merged = append(merged, e)
			seen[e.ID] = true
		}
	}
	return merged
}

func (s *gormStore) DeactivateVessel(ctx context.Context, mmsi string) (*model.Vessel, error) {
	var vessel model.Vessel
	if err := s.db.WithContext(ctx).Where("mmsi = ?", mmsi).First(&vessel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	vessel.Status = model.StatusInactive
	vessel.IsActive = false
	if err := s.db.WithContext(ctx).Save(&vessel).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate vessel %s: %w", mmsi, err)
	}
	return &vessel, nil
}

func (s *gormStore) GetVessel(ctx context.Context, mmsi string) (*model.Vessel, error) {
	var vessel model.Vessel
	if err := s.db.WithContext(ctx).Where("mmsi = ?", mmsi).First(&vessel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vessel, nil
}

func (s *gormStore) ListVesselsByStatus(ctx context.Context, status string, page, limit int) ([]model.Vessel, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	q := s.db.WithContext(ctx).Model(&model.Vessel{}).Where("status = ?", status)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var vessels []model.Vessel
	err := q.Order("tracking_started_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&vessels).Error
	if err != nil {
		return nil, 0, err
	}
	return vessels, total, nil
}

func (s *gormStore) MapVessels(ctx context.Context) ([]model.Vessel, error) {
	var vessels []model.Vessel
	err := s.db.WithContext(ctx).
		Select("mmsi", "name", "latitude", "longitude", "destination", "sog", "status").
		Find(&vessels).Error
	return vessels, err
}

// --- ports and engineers -----------------------------------------------------

func (s *gormStore) ListPorts(ctx context.Context) ([]model.Port, error) {
	var ports []model.Port
	err := s.db.WithContext(ctx).Order("name").Find(&ports).Error
	return ports, err
}

func (s *gormStore) CreatePort(ctx context.Context, p *model.Port) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *gormStore) ListEngineers(ctx context.Context) ([]model.Engineer, error) {
	var engineers []model.Engineer
	err := s.db.WithContext(ctx).Order("name").Find(&engineers).Error
	return engineers, err
}

func (s *gormStore) CreateEngineer(ctx context.Context, e *model.Engineer) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Engineer{}).
		Where("email = ?", e.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *gormStore) UpdateEngineer(ctx context.Context, e *model.Engineer) error {
	res := s.db.WithContext(ctx).Model(&model.Engineer{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{"name": e.Name, "email": e.Email, "phone": e.Phone})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeleteEngineer(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Engineer{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- statistics --------------------------------------------------------------

// CallStatsRange aggregates provider call counts over [from, to).
func (s *gormStore) CallStatsRange(ctx context.Context, from, to time.Time) (CallStats, error) {
	var stats CallStats

	type row struct {
		Date   string
		Source string
		Count  int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&model.ProviderCall{}).
		Select("DATE(created_at) AS date, source, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("DATE(created_at), source").
		Order("date").
		Scan(&rows).Error
	if err != nil {
		return stats, fmt.Errorf("failed to aggregate provider calls: %w", err)
	}

	daily := make(map[string]*DailyCalls)
	var order []string
	for _, r := range rows {
		d, ok := daily[r.Date]
		if !ok {
			d = &DailyCalls{Date: r.Date}
			daily[r.Date] = d
			order = append(order, r.Date)
		}
		switch r.Source {
		case model.SourcePrimary:
			d.Primary += r.Count
			stats.TotalPrimary += r.Count
		case model.SourceSecondary:
			d.Secondary += r.Count
			stats.TotalSecondary += r.Count
		}
	}
	for _, date := range order {
		stats.Daily = append(stats.Daily, *daily[date])
	}
	stats.Total = stats.TotalPrimary + stats.TotalSecondary
	return stats, nil
}
