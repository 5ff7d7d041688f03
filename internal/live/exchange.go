package live

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Exchanger trades a long-lived session token for a short-lived channel
// handle. Each call issues a new, independent handle.
type Exchanger interface {
	Exchange(ctx context.Context, token, roomCode string) (string, error)
}

// HTTPExchanger performs the exchange against the live server's REST
// surface. The token travels in the POST body only; it must never
// appear in a URL or a log line, so errors returned from here carry the
// server's diagnostic text but never echo the token.
type HTTPExchanger struct {
	BaseURL string // e.g. "http://127.0.0.1:8080"
	Client  *http.Client
}

func NewHTTPExchanger(baseURL string) *HTTPExchanger {
	return &HTTPExchanger{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (e *HTTPExchanger) Exchange(ctx context.Context, token, roomCode string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("exchange: empty session token")
	}
	if roomCode == "" {
		return "", fmt.Errorf("exchange: empty room code")
	}

	body, err := json.Marshal(ExchangeRequest{Token: token, RoomCode: roomCode})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/api/live/exchange", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("exchange rejected (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("exchange rejected (%d)", resp.StatusCode)
	}

	var out ExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode exchange response: %w", err)
	}
	if out.SSESessionID == "" {
		return "", fmt.Errorf("exchange response missing sseSessionId")
	}
	return out.SSESessionID, nil
}
