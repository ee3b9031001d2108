package notify

import (
	"context"
	"log"
	"time"
)

// Worker drains the delivery queue through the transport on its own timer,
// independent of the tracking scheduler: a slow provider call never delays
// message delivery.
type Worker struct {
	queue       *Queue
	transport   Transport
	interval    time.Duration
	maxAttempts int
}

// NewWorker creates a delivery worker.
func NewWorker(queue *Queue, transport Transport, interval time.Duration, maxAttempts int) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Worker{
		queue:       queue,
		transport:   transport,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Run processes the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log.Println("Starting delivery worker...")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Delivery worker shutting down.")
			return
		case <-ticker.C:
			w.ProcessOne(ctx)
		}
	}
}

// ProcessOne attempts delivery of at most one queued message. While the
// transport is disconnected nothing is dequeued; that is deliberate
// backpressure, not a failure.
func (w *Worker) ProcessOne(ctx context.Context) {
	if !w.transport.Connected() {
		if w.queue.Len() > 0 {
			log.Printf("Transport not connected, %d message(s) waiting", w.queue.Len())
		}
		return
	}

	msg, ok := w.queue.Dequeue()
	if !ok {
		return
	}

	if err := w.transport.Send(ctx, msg.Destination, msg.Body); err != nil {
		msg.Attempts++
		if msg.Attempts < w.maxAttempts {
			log.Printf("Delivery to %s failed (attempt %d/%d), requeueing: %v",
				msg.Destination, msg.Attempts, w.maxAttempts, err)
			w.queue.Enqueue(msg)
		} else {
			log.Printf("Dropping message for %s (vessel %s) after %d attempts: %v",
				msg.Destination, msg.VesselName, msg.Attempts, err)
		}
		return
	}
	log.Printf("Delivered message for vessel %s to %s", msg.VesselName, msg.Destination)
}
