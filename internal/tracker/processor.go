package tracker

import (
	"log"
	"math"
	"time"

	"ship-tracking-backend/internal/ais"
	"ship-tracking-backend/internal/eta"
	"ship-tracking-backend/internal/geo"
	"ship-tracking-backend/internal/model"
	"ship-tracking-backend/internal/notify"
	"ship-tracking-backend/internal/parse"
)

// coordPrecision rounds merged coordinates to 5 decimal places (~1 m) so
// downstream equality checks are stable across providers.
const coordPrecision = 1e5

// Processor holds the per-vessel decision logic: merge the fresh position,
// gate on destination, detect zone entry, fire threshold notifications, and
// finalize arrival.
type Processor struct {
	estimator  eta.Estimator
	thresholds []notify.Threshold
	retention  time.Duration

	now func() time.Time
}

// NewProcessor creates a processor. retention is how long an arrived vessel
// is kept before reclamation.
func NewProcessor(estimator eta.Estimator, thresholds []notify.Threshold, retention time.Duration) *Processor {
	return &Processor{
		estimator:  estimator,
		thresholds: thresholds,
		retention:  retention,
		now:        time.Now,
	}
}

// Decide applies one fresh position report to a vessel. It is pure with
// respect to shared state: the input vessel is copied, and the messages to
// enqueue come back as an explicit list. Persisting the returned vessel and
// queueing the messages is the caller's job, whichever branch was taken.
func (p *Processor) Decide(v model.Vessel, report ais.Report) (model.Vessel, []notify.Message) {
	now := p.now()
	merge(&v, report, now)

	// Destination gate: a vessel whose reported destination no longer
	// resolves to its assigned port gets its position update persisted and
	// nothing else. Notifying engineers about unrelated course changes is
	// worse than staying quiet.
	if !parse.DestinationMatches(v.Destination, v.Port.Unlocode) {
		log.Printf("[vessel %s] destination %q does not match port %s, skipping notifications",
			v.MMSI, v.Destination, v.Port.Unlocode)
		return v, nil
	}

	pos := geo.Point{Latitude: v.Latitude, Longitude: v.Longitude}
	portPos := geo.Point{Latitude: v.Port.Latitude, Longitude: v.Port.Longitude}
	etaHours := p.estimator.EstimateHours(v.ETA, pos, v.SOG, portPos, now)
	distanceNm := geo.DistanceNm(pos, portPos)
	log.Printf("[vessel %s] eta %.2fh, distance %.1fnm, sog %.1fkn", v.MMSI, etaHours, distanceNm, v.SOG)

	var messages []notify.Message
	messages = append(messages, p.checkZoneEntry(&v, distanceNm)...)
	messages = append(messages, p.sweepThresholds(&v, etaHours)...)
	messages = append(messages, p.checkArrival(&v, etaHours, distanceNm, now)...)
	return v, messages
}

// merge normalizes the provider report into the vessel's canonical
// attribute set. Identity fields only overwrite when the provider actually
// supplied them; itinerary fields always reflect the latest report.
func merge(v *model.Vessel, report ais.Report, now time.Time) {
	if report.Name != "" {
		v.Name = report.Name
	}
	if report.IMO != "" {
		v.IMO = report.IMO
	}
	if report.Callsign != "" {
		v.Callsign = report.Callsign
	}
	if report.Type != 0 {
		v.Type = report.Type
	}

	v.Latitude = roundCoord(report.Latitude)
	v.Longitude = roundCoord(report.Longitude)
	v.SOG = report.SOG
	v.COG = report.COG
	v.Draught = report.Draught
	v.Destination = report.Destination
	v.ETA = report.ETA

	v.LastUpdated = &now
	if report.Source == ais.SourceSecondary {
		v.LastSecondaryUpdate = &now
	}
}

func roundCoord(c float64) float64 {
	return math.Round(c*coordPrecision) / coordPrecision
}

// checkZoneEntry fires the one-time port-zone notification. Zone entry is a
// stronger signal than any time-based threshold, so both advance-warning
// flags are marked fired with it.
func (p *Processor) checkZoneEntry(v *model.Vessel, distanceNm float64) []notify.Message {
	if v.NotifiedZoneEntry {
		return nil
	}
	radius := v.Port.RadiusNm
	if radius <= 0 {
		radius = model.DefaultPortRadiusNm
	}
	if distanceNm > radius {
		return nil
	}

	log.Printf("[vessel %s] entered the %s zone (%.1fnm <= %.0fnm)", v.MMSI, v.Port.Unlocode, distanceNm, radius)
	body := notify.ZoneEntryMessage(v.Name, v.Port.Unlocode, v.Port.Name)
	messages := p.messagesForEngineers(v, body)

	v.NotifiedZoneEntry = true
	v.Notified12h = true
	v.Notified48h = true
	return messages
}

// sweepThresholds fires at most one advance-warning threshold per tick: the
// most urgent unsent one covering the current ETA. Firing also back-fills
// every less urgent flag so a vessel that skipped ticks cannot re-fire a
// stale farther-out alert later.
func (p *Processor) sweepThresholds(v *model.Vessel, etaHours float64) []notify.Message {
	for i, t := range p.thresholds {
		if etaHours > t.Hours || v.ThresholdNotified(t.Key) {
			continue
		}

		for _, later := range p.thresholds[i+1:] {
			v.SetThresholdNotified(later.Key)
		}
		v.SetThresholdNotified(t.Key)

		log.Printf("[vessel %s] firing %.0fh threshold (eta %.2fh)", v.MMSI, t.Hours, etaHours)
		return p.messagesForEngineers(v, t.Message(v.Name, v.Port.Name))
	}
	return nil
}

// checkArrival finalizes a vessel when its data reads as berthed: ETA
// unknowable (the provider stopped giving usable data near the expected
// arrival) or close-and-stopped per the estimator's envelope.
//
// Arrival only fires after zone entry. When a provider reports arrival
// before the vessel ever crossed the zone, a one-off caution goes out and
// the ledger is otherwise left alone; the vessel stays in tracking until
// zone entry is observed.
func (p *Processor) checkArrival(v *model.Vessel, etaHours, distanceNm float64, now time.Time) []notify.Message {
	if v.NotifiedArrival {
		return nil
	}
	if !math.IsInf(etaHours, 1) && !p.estimator.ShouldMarkArrived(etaHours, v.SOG, distanceNm) {
		return nil
	}

	if !v.NotifiedZoneEntry {
		log.Printf("[vessel %s] indicates arrival at %s but never entered the port zone", v.MMSI, v.Port.Name)
		if v.IndicatedArrival {
			return nil
		}
		v.IndicatedArrival = true
		return p.messagesForEngineers(v, notify.IndicatedArrivalMessage(v.Name, v.Port.Name))
	}

	log.Printf("[vessel %s] arrived at %s", v.MMSI, v.Port.Name)
	messages := p.messagesForEngineers(v, notify.ArrivalMessage(v.Name, v.Port.Name))

	v.NotifiedArrival = true
	v.IndicatedArrival = true
	v.Status = model.StatusArrived
	v.IsActive = false
	expires := now.Add(p.retention)
	v.ExpiresAt = &expires
	return messages
}

// messagesForEngineers builds one message per assigned engineer with a
// usable phone number.
func (p *Processor) messagesForEngineers(v *model.Vessel, body string) []notify.Message {
	var messages []notify.Message
	for _, eng := range v.Engineers {
		phone := notify.NormalizePhone(eng.Phone)
		if phone == "" {
			log.Printf("[vessel %s] engineer %s has no phone number, skipping", v.MMSI, eng.Name)
			continue
		}
		messages = append(messages, notify.Message{
			Destination: phone,
			Body:        body,
			VesselName:  v.Name,
		})
	}
	if len(messages) == 0 {
		log.Printf("[vessel %s] no engineers reachable for notification", v.MMSI)
	}
	return messages
}
