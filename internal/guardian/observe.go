// Package guardian implements the automated guardian-angel steward.
// It observes a world through the public API, triages the flock's
// wellbeing, decides on zero or one piece of advice via the oracle, and
// delivers it through the chat endpoint like any human guardian would.
package guardian

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pookielabs/pookieverse/internal/world"
)

// Observer fetches world state from the API.
type Observer struct {
	BaseURL    string
	WorldID    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting one world on the given API base
// URL.
func NewObserver(baseURL, worldID string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		WorldID: worldID,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the current world snapshot.
func (o *Observer) Observe() (*world.State, error) {
	var snap world.State
	if err := o.fetchJSON("/api/v1/worlds/"+o.WorldID, &snap); err != nil {
		return nil, fmt.Errorf("fetch world state: %w", err)
	}
	return &snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
