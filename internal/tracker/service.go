package tracker

import (
	"context"
	"errors"
	"log"
	"time"

	"ship-tracking-backend/internal/ais"
	"ship-tracking-backend/internal/model"
	"ship-tracking-backend/internal/notify"
	"ship-tracking-backend/internal/store"
)

// PositionSource resolves a batch of tracked vessels to fresh position
// reports. *ais.Fetcher is the production implementation.
type PositionSource interface {
	FetchBatch(ctx context.Context, vessels []model.Vessel) (map[string]ais.Report, []model.Vessel, error)
}

// Service drives the tracking cycle: it rotates active vessels through the
// batch queue, resolves positions, runs the notification decision for each
// vessel, and hands generated messages to the delivery queue.
type Service struct {
	store     store.Store
	source    PositionSource
	processor *Processor
	batches   *Queue
	outbox    *notify.Queue

	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewService creates the tracking scheduler.
func NewService(st store.Store, source PositionSource, processor *Processor, outbox *notify.Queue, interval time.Duration, batchSize int) *Service {
	if interval <= 0 {
		interval = 3 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Service{
		store:     st,
		source:    source,
		processor: processor,
		batches:   NewQueue(),
		outbox:    outbox,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run starts the tracking cycle in a loop until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	log.Println("Starting tracking service...")

	s.TrackOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Tracking service shutting down.")
			return
		case <-timer.C:
			s.TrackOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// TrackOnce performs a single tracking cycle over the next batch of vessels.
func (s *Service) TrackOnce(ctx context.Context) {
	log.Println("Executing tracking cycle...")

	active, err := s.store.ActiveVesselMMSIs(ctx)
	if err != nil {
		log.Printf("Error listing active vessels: %v", err)
		return
	}
	s.batches.Refill(active)

	batch := s.batches.NextBatch(s.batchSize)
	if len(batch) == 0 {
		log.Println("Tracking cycle finished: no active vessels.")
		return
	}

	vessels, err := s.store.VesselsByMMSI(ctx, batch)
	if err != nil {
		log.Printf("Error hydrating batch: %v", err)
		s.batches.Requeue(batch)
		return
	}

	reports, unresolved, err := s.source.FetchBatch(ctx, vessels)
	if err != nil {
		if errors.Is(err, ais.ErrBatchFailed) {
			// Total provider outage. Put the batch back so no vessel loses
			// its turn, and retry on the next cycle.
			log.Printf("Batch fetch failed, requeueing %d vessels: %v", len(batch), err)
			s.batches.Requeue(batch)
			return
		}
		log.Printf("Error fetching batch: %v", err)
	}
	s.batches.ClearFailed(batch)

	resolved := 0
	for i := range vessels {
		report, ok := reports[vessels[i].MMSI]
		if !ok {
			continue
		}
		resolved++

		if err := s.store.RecordProviderCall(ctx, report.Source); err != nil {
			log.Printf("Error recording provider call: %v", err)
		}

		updated, messages := s.processor.Decide(vessels[i], report)
		for _, m := range messages {
			s.outbox.Enqueue(m)
		}
		if err := s.store.SaveVessel(ctx, &updated); err != nil {
			log.Printf("Error saving vessel %s: %v", updated.MMSI, err)
			continue
		}
		if len(messages) > 0 {
			log.Printf("Vessel %s: queued %d notification(s)", updated.MMSI, len(messages))
		}
	}

	if deleted, err := s.store.DeleteExpired(ctx, s.now()); err != nil {
		log.Printf("Error deleting expired vessels: %v", err)
	} else if deleted > 0 {
		log.Printf("Removed %d expired vessel(s)", deleted)
	}

	log.Printf("Tracking cycle finished: %d/%d vessels resolved, %d unresolved.",
		resolved, len(batch), len(unresolved))
}
