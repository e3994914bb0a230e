package guardian

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Actor delivers guardian-angel messages via the chat endpoint.
type Actor struct {
	BaseURL    string
	WorldID    string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting one world on the given API base URL.
func NewActor(baseURL, worldID string) *Actor {
	return &Actor{
		BaseURL: baseURL,
		WorldID: worldID,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Advise sends one message to one pookie.
func (a *Actor) Advise(pookieName, message string) error {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/worlds/%s/pookies/%s/chat", a.BaseURL, a.WorldID, pookieName)
	resp, err := a.HTTPClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("POST chat: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chat failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}
