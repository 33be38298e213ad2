// Package nlp translates free-form user messages into structured activity
// records and query intents using an OpenAI-compatible chat completions API.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"example.com/activitymemory/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

// Config configures the OpenAI-compatible extraction provider.
type Config struct {
	// APIKey is the bearer token used to authenticate against the API.
	APIKey string

	// BaseURL overrides the API endpoint. Useful for local models or any
	// other OpenAI-compatible endpoint.
	BaseURL string

	// Model is the chat model used for extraction.
	Model string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration
}

// Extractor implements structured extraction over the chat completions API.
// Safe for concurrent use.
type Extractor struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// New returns an Extractor backed by the OpenAI (or compatible) chat API.
func New(cfg Config) *Extractor {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Extractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

const activitySystemPrompt = `You are an expert fitness tracker assistant.
Extract workout information from user messages into structured JSON format.

Today's date is %s.

Rules:
1. Extract: exercise name, sets, reps, weight, unit (lbs/kg), duration (minutes), notes
2. If information is missing, use null
3. Infer date from context ("today", "yesterday", "last Tuesday")
4. Return ONLY valid JSON, no extra text
5. Exercise names should be lowercase

Output format:
{
    "exercise": "string",
    "sets": integer or null,
    "reps": integer or null,
    "weight": float or null,
    "unit": "lbs" or "kg" or null,
    "duration": integer or null,
    "notes": "string" or null,
    "date": "YYYY-MM-DD"
}`

const querySystemPrompt = `You are a fitness tracker query assistant.
Extract search intent and filters from natural language queries.

Today's date is %s.

Rules:
1. Determine intent: "search", "stats", "comparison"
2. Extract temporal filters (dates, ranges)
3. Extract categorical filters (exercise type)
4. Return ONLY valid JSON

Output format:
{
    "intent": "search" | "stats" | "comparison",
    "exercise_filter": "string" or null,
    "date_filter": "YYYY-MM-DD" or null,
    "date_range_start": "YYYY-MM-DD" or null,
    "date_range_end": "YYYY-MM-DD" or null,
    "semantic_query": "simplified search query"
}`

type activityPayload struct {
	Exercise string   `json:"exercise"`
	Sets     *int     `json:"sets"`
	Reps     *int     `json:"reps"`
	Weight   *float64 `json:"weight"`
	Unit     *string  `json:"unit"`
	Duration *int     `json:"duration"`
	Notes    *string  `json:"notes"`
	Date     string   `json:"date"`
}

type queryIntentPayload struct {
	Intent         string  `json:"intent"`
	ExerciseFilter *string `json:"exercise_filter"`
	DateFilter     *string `json:"date_filter"`
	DateRangeStart *string `json:"date_range_start"`
	DateRangeEnd   *string `json:"date_range_end"`
	SemanticQuery  string  `json:"semantic_query"`
}

// ExtractActivity parses the message into a structured activity. A completion
// that is not valid JSON surfaces as domain.ErrUnparsableExtraction so the
// caller can substitute its explicit fallback record.
func (e *Extractor) ExtractActivity(ctx context.Context, message string) (*domain.ExtractedActivity, error) {
	today := e.now().UTC().Format(domain.DateLayout)
	system := fmt.Sprintf(activitySystemPrompt, today)
	user := fmt.Sprintf("Extract workout data from this message: '%s'", message)

	content, err := e.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	var payload activityPayload
	if err := json.Unmarshal([]byte(stripFences(content)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v (raw content: %.200s)", domain.ErrUnparsableExtraction, err, content)
	}

	extracted := &domain.ExtractedActivity{
		Exercise: payload.Exercise,
		Sets:     payload.Sets,
		Reps:     payload.Reps,
		Weight:   payload.Weight,
		Unit:     payload.Unit,
		Duration: payload.Duration,
		Date:     payload.Date,
	}
	if payload.Notes != nil {
		extracted.Notes = *payload.Notes
	}
	if extracted.Date == "" {
		extracted.Date = today
	}
	return extracted, nil
}

// ExtractQueryIntent parses the query into retrieval filters and a simplified
// semantic query.
func (e *Extractor) ExtractQueryIntent(ctx context.Context, query string) (*domain.QueryIntent, error) {
	today := e.now().UTC().Format(domain.DateLayout)
	system := fmt.Sprintf(querySystemPrompt, today)
	user := fmt.Sprintf("Extract search intent from: '%s'", query)

	content, err := e.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	var payload queryIntentPayload
	if err := json.Unmarshal([]byte(stripFences(content)), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v (raw content: %.200s)", domain.ErrUnparsableExtraction, err, content)
	}

	return &domain.QueryIntent{
		SemanticQuery:  payload.SemanticQuery,
		ExerciseFilter: deref(payload.ExerciseFilter),
		DateFilter:     deref(payload.DateFilter),
		DateRangeStart: deref(payload.DateRangeStart),
		DateRangeEnd:   deref(payload.DateRangeEnd),
	}, nil
}

// --- minimal OpenAI wire types ---

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (e *Extractor) complete(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model: e.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		// Low temperature for consistent extraction.
		Temperature: 0.3,
		MaxTokens:   256,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("nlp: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.cfg.BaseURL+"/chat/completions",
		bytes.NewReader(data),
	)
	if err != nil {
		return "", fmt.Errorf("nlp: create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("nlp: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("nlp: read response body: %w", err)
	}

	var decoded chatResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("nlp: decode API response: %w", err)
	}

	if decoded.Error != nil {
		return "", fmt.Errorf("nlp: API error (%s): %s", decoded.Error.Type, decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("nlp: no choices returned (HTTP %d)", resp.StatusCode)
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// stripFences removes a surrounding markdown code block, which some models
// emit despite the JSON-only instruction.
func stripFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	parts := strings.SplitN(content, "```", 3)
	if len(parts) < 2 {
		return content
	}
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
