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
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited signals an explicit "too frequent requests" response from
// the primary provider. The fetcher cools down instead of counting the batch
// as unresolved.
var ErrRateLimited = errors.New("primary provider rate limited")

const rateLimitMessage = "Too frequent requests!"

// PrimaryClient queries the primary AIS provider, which accepts a full MMSI
// list per request and answers with a two-element JSON array of
// [header, records]. A client-side limiter keeps retries inside the
// provider's request budget.
type PrimaryClient struct {
	baseURL  string
	username string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewPrimaryClient creates a primary provider client. minRequestGap is the
// smallest allowed spacing between two requests.
func NewPrimaryClient(baseURL, username string, minRequestGap time.Duration) *PrimaryClient {
	limit := rate.Inf
	if minRequestGap > 0 {
		limit = rate.Every(minRequestGap)
	}
	return &PrimaryClient{
		baseURL:  baseURL,
		username: username,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

type primaryHeader struct {
	Error        bool   `json:"ERROR"`
	ErrorMessage string `json:"ERROR_MESSAGE"`
	Records      int    `json:"RECORDS"`
}

type primaryRecord struct {
	MMSI      int64   `json:"MMSI"`
	IMO       int64   `json:"IMO"`
	Name      string  `json:"NAME"`
	Callsign  string  `json:"CALLSIGN"`
	Type      int     `json:"TYPE"`
	Latitude  float64 `json:"LATITUDE"`
	Longitude float64 `json:"LONGITUDE"`
	SOG       float64 `json:"SOG"`
	COG       float64 `json:"COG"`
	Draught   float64 `json:"DRAUGHT"`
	Dest      string  `json:"DEST"`
	ETA       string  `json:"ETA"`
}

// report maps the provider's uppercase field set onto the canonical Report.
func (r primaryRecord) report() Report {
	var imo string
	if r.IMO > 0 {
		imo = strconv.FormatInt(r.IMO, 10)
	}
	return Report{
		Source:      SourcePrimary,
		MMSI:        strconv.FormatInt(r.MMSI, 10),
		IMO:         imo,
		Name:        r.Name,
		Callsign:    r.Callsign,
		Type:        r.Type,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		SOG:         r.SOG,
		COG:         r.COG,
		Draught:     r.Draught,
		Destination: r.Dest,
		ETA:         r.ETA,
	}
}

// Fetch requests the given MMSIs in one call and returns the reports keyed
// by MMSI. Vessels absent from the response are simply absent from the map.
func (c *PrimaryClient) Fetch(ctx context.Context, mmsis []string) (map[string]Report, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("username", c.username)
	params.Set("output", "json")
	params.Set("compress", "0")
	params.Set("format", "1") // decimal coordinates
	params.Set("mmsi", strings.Join(mmsis, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return decodePrimaryResponse(body)
}

// decodePrimaryResponse handles both response shapes the provider produces:
// a bare header object on errors and a [header, records] array otherwise.
func decodePrimaryResponse(body []byte) (map[string]Report, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		var header primaryHeader
		if err := json.Unmarshal(body, &header); err != nil {
			return nil, fmt.Errorf("failed to unmarshal provider response: %w", err)
		}
		return nil, headerError(header)
	}

	if len(parts) == 0 {
		return nil, errors.New("empty provider response")
	}

	var header primaryHeader
	if err := json.Unmarshal(parts[0], &header); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response header: %w", err)
	}
	if header.Error {
		return nil, headerError(header)
	}

	reports := make(map[string]Report)
	if len(parts) < 2 {
		return reports, nil
	}

	var records []primaryRecord
	if err := json.Unmarshal(parts[1], &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position records: %w", err)
	}
	for _, rec := range records {
		report := rec.report()
		reports[report.MMSI] = report
	}
	return reports, nil
}

func headerError(header primaryHeader) error {
	if header.ErrorMessage == rateLimitMessage {
		return ErrRateLimited
	}
	if header.ErrorMessage != "" {
		return fmt.Errorf("provider error: %s", header.ErrorMessage)
	}
	return errors.New("provider returned an unspecified error")
}
