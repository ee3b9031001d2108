package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Transport is the injected messaging capability. Connected is a gate, not a
// failure mode: while the transport reports itself disconnected, delivery is
// skipped and messages stay queued.
type Transport interface {
	Send(ctx context.Context, destination, body string) error
	Connected() bool
}

// GatewayTransport delivers messages through an HTTP messaging gateway that
// forwards them to the engineers' phones.
type GatewayTransport struct {
	baseURL string
	token   string
	client  *http.Client

	// Connection status is polled lazily and cached briefly so the delivery
	// cadence does not turn into a health-check hammer.
	mu          sync.Mutex
	connected   bool
	lastChecked time.Time
	checkTTL    time.Duration
}

// NewGatewayTransport creates a transport against the given gateway.
func NewGatewayTransport(baseURL, token string) *GatewayTransport {
	return &GatewayTransport{
		baseURL:  baseURL,
		token:    token,
		client:   &http.Client{Timeout: 15 * time.Second},
		checkTTL: 30 * time.Second,
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send posts one message to the gateway.
func (t *GatewayTransport) Send(ctx context.Context, destination, body string) error {
	payload, err := json.Marshal(sendRequest{To: destination, Message: body})
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return nil
}

type statusResponse struct {
	Connected bool `json:"connected"`
}

// Connected reports whether the gateway currently holds a live session with
// the downstream messaging network.
func (t *GatewayTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if time.Since(t.lastChecked) < t.checkTTL {
		return t.connected
	}
	t.lastChecked = time.Now()
	t.connected = t.checkStatus()
	return t.connected
}

func (t *GatewayTransport) checkStatus() bool {
	req, err := http.NewRequest(http.MethodGet, t.baseURL+"/status", nil)
	if err != nil {
		return false
	}
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false
	}
	return status.Connected
}
