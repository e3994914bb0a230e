package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Decider produces the next decision for one pookie from its perception
// snapshot. Implementations may block on network I/O; the engine calls
// Decide from dedicated worker goroutines and maps any error to the idle
// fallback, so Deciders never need to recover themselves.
type Decider interface {
	Decide(p *Perception) (Decision, error)
}

// LLMDecider asks the model for a decision and validates whatever comes back.
type LLMDecider struct {
	Client    *Client
	MaxTokens int
}

// NewLLMDecider wraps an API client in a Decider.
func NewLLMDecider(client *Client) *LLMDecider {
	return &LLMDecider{Client: client, MaxTokens: 500}
}

// Decide renders the perception to a prompt, calls the model and parses the
// response. Any transport failure, malformed payload, unknown kind, or
// dangling reference is returned as an error.
func (d *LLMDecider) Decide(p *Perception) (Decision, error) {
	prompt := BuildPrompt(p)
	text, err := d.Client.Complete(context.Background(), "", prompt, d.MaxTokens)
	if err != nil {
		return Decision{}, fmt.Errorf("oracle completion: %w", err)
	}
	return ParseDecision(text, p)
}

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ParseDecision extracts the JSON object from a raw model response, checks
// it against the decision schema, and validates it against the perception
// snapshot.
func ParseDecision(text string, p *Perception) (Decision, error) {
	jsonStr := strings.TrimSpace(text)
	if m := codeFenceRe.FindStringSubmatch(jsonStr); m != nil {
		jsonStr = strings.TrimSpace(m[1])
	}
	// Some models wrap the object in prose; cut to the outermost braces.
	if start, end := strings.Index(jsonStr, "{"), strings.LastIndex(jsonStr, "}"); start >= 0 && end > start {
		jsonStr = jsonStr[start : end+1]
	}

	var shape any
	if err := json.Unmarshal([]byte(jsonStr), &shape); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}
	if err := compiledDecisionSchema.Validate(shape); err != nil {
		return Decision{}, fmt.Errorf("decision shape: %w", err)
	}

	var dec Decision
	if err := json.Unmarshal([]byte(jsonStr), &dec); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}
	return Validate(dec, p)
}
