package tracker

import (
	"log"
	"sync"
)

// Queue round-robins the active vessel set into fixed-size batches across
// tracking ticks. It is mutex-guarded because the scheduler pops batches
// while failed ones are pushed back.
type Queue struct {
	mu      sync.Mutex
	working []string
	all     []string
	failed  [][]string
}

// NewQueue creates an empty tracking queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Refill replaces the authoritative active-vessel list. The working set is
// only re-seeded from it when drained, so vessels already waiting keep their
// position in the rotation.
func (q *Queue) Refill(active []string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.all = append(q.all[:0], active...)
	if len(q.working) == 0 {
		q.working = append([]string(nil), q.all...)
		log.Printf("Tracking queue refilled with %d vessels", len(q.working))
	}
}

// NextBatch pops up to size MMSIs from the head of the working set,
// restarting the rotation when it has been fully consumed.
func (q *Queue) NextBatch(size int) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.working) == 0 {
		q.working = append([]string(nil), q.all...)
	}
	if len(q.working) == 0 {
		return nil
	}

	if size > len(q.working) {
		size = len(q.working)
	}
	batch := append([]string(nil), q.working[:size]...)
	q.working = q.working[size:]

	log.Printf("Handing out batch of %d vessels, %d left in rotation, %d failed batches waiting",
		len(batch), len(q.working), len(q.failed))
	return batch
}

// Requeue pushes a wholly failed batch back to the tail of the working set
// so it is retried after the rest of the rotation, without starving anyone.
func (q *Queue) Requeue(batch []string) {
	if len(batch) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.working = append(q.working, batch...)
	q.failed = append(q.failed, append([]string(nil), batch...))
	log.Printf("Failed batch of %d vessels requeued at the tail", len(batch))
}

// ClearFailed forgets failed-batch bookkeeping for batches fully contained
// in the successfully processed one.
func (q *Queue) ClearFailed(batch []string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	processed := make(map[string]bool, len(batch))
	for _, mmsi := range batch {
		processed[mmsi] = true
	}

	kept := q.failed[:0]
	for _, f := range q.failed {
		covered := true
		for _, mmsi := range f {
			if !processed[mmsi] {
				covered = false
				break
			}
		}
		if !covered {
			kept = append(kept, f)
		}
	}
	q.failed = kept
}

// FailedCount returns how many failed batches are awaiting retry.
func (q *Queue) FailedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.failed)
}
