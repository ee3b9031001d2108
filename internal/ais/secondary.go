package ais

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNoData signals that the secondary provider has no record for the
// requested vessel. Not an outage, just absence.
var ErrNoData = errors.New("secondary provider has no data for vessel")

// SecondaryClient queries the fallback provider one vessel at a time. Its
// field names and units differ from the primary's; normalization here keeps
// that difference out of the processing logic.
type SecondaryClient struct {
	baseURL string
	userkey string
	client  *http.Client
}

// NewSecondaryClient creates a secondary provider client.
func NewSecondaryClient(baseURL, userkey string) *SecondaryClient {
	return &SecondaryClient{
		baseURL: baseURL,
		userkey: userkey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// secondaryRecord is the provider's per-vessel payload, wrapped in an "AIS"
// envelope. Speed and course come as SPEED/COURSE rather than SOG/COG, and
// the ETA field is ETA_AIS in "MM-DD HH:mm" form.
type secondaryRecord struct {
	MMSI        int64   `json:"MMSI"`
	IMO         int64   `json:"IMO"`
	Name        string  `json:"NAME"`
	Callsign    string  `json:"CALLSIGN"`
	Type        int     `json:"TYPE"`
	Latitude    float64 `json:"LATITUDE"`
	Longitude   float64 `json:"LONGITUDE"`
	Speed       float64 `json:"SPEED"`
	Course      float64 `json:"COURSE"`
	Draught     float64 `json:"DRAUGHT"`
	Destination string  `json:"DESTINATION"`
	EtaAIS      string  `json:"ETA_AIS"`
}

type secondaryEnvelope struct {
	AIS *secondaryRecord `json:"AIS"`
}

func (r secondaryRecord) report() Report {
	var imo string
	if r.IMO > 0 {
		imo = strconv.FormatInt(r.IMO, 10)
	}
	return Report{
		Source:      SourceSecondary,
		MMSI:        strconv.FormatInt(r.MMSI, 10),
		IMO:         imo,
		Name:        r.Name,
		Callsign:    r.Callsign,
		Type:        r.Type,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		SOG:         r.Speed,
		COG:         r.Course,
		Draught:     r.Draught,
		Destination: r.Destination,
		ETA:         r.EtaAIS,
	}
}

// Fetch requests a single vessel's latest position.
func (c *SecondaryClient) Fetch(ctx context.Context, mmsi string) (Report, error) {
	params := url.Values{}
	params.Set("userkey", c.userkey)
	params.Set("mmsi", mmsi)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Report{}, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read response body: %w", err)
	}

	// The provider answers with either an array of envelopes or a single
	// envelope object.
	var envelopes []secondaryEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		var single secondaryEnvelope
		if err := json.Unmarshal(body, &single); err != nil {
			return Report{}, fmt.Errorf("failed to unmarshal provider response: %w", err)
		}
		envelopes = []secondaryEnvelope{single}
	}

	for _, env := range envelopes {
		if env.AIS != nil {
			return env.AIS.report(), nil
		}
	}
	return Report{}, ErrNoData
}
