// Package gemini is a minimal HTTP client for the Google generative
// language REST API. Only the generateContent surface the journal needs is
// implemented; callers depend on narrow interfaces, not this client.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Content is one conversation turn in the Gemini API format.
type Content struct {
	Role  string `json:"role"` // "user" or "model"
	Parts []Part `json:"parts"`
}

// Part is one piece of a content turn. Only text parts are used.
type Part struct {
	Text string `json:"text"`
}

// Text builds a single-part content turn.
func Text(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// Schema describes the expected JSON output structure for structured
// responses (the API's responseSchema).
type Schema struct {
	Type        string             `json:"type"` // "OBJECT", "ARRAY", "STRING", "NUMBER"
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Client communicates with the Gemini REST API over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client for the given API base URL and key.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// generateRequest is the JSON body for POST /v1beta/models/{model}:generateContent.
type generateRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

// generateResponse mirrors the subset of the API response we read.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

const maxAttempts = 3

// Backoff before retrying a rate-limited or failing upstream call.
var retryWait = []time.Duration{2 * time.Second, 8 * time.Second}

// Generate sends the conversation to the given model and returns the first
// candidate's text. When jsonSchema is non-nil, structured JSON output is
// requested. Rate-limit and server errors are retried a bounded number of
// times before giving up.
func (c *Client) Generate(ctx context.Context, model string, system string, contents []Content, jsonSchema *Schema) (string, error) {
	req := generateRequest{Contents: contents}
	if system != "" {
		sys := Content{Parts: []Part{{Text: system}}}
		req.SystemInstruction = &sys
	}
	if jsonSchema != nil {
		req.GenerationConfig = &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   jsonSchema,
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		text, retryable, err := c.generateOnce(ctx, url, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable || attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryWait[attempt]):
		}
	}
	return "", lastErr
}

func (c *Client) generateOnce(ctx context.Context, url string, body []byte) (text string, retryable bool, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", false, fmt.Errorf("calling gemini: %w", err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := ""
		if out.Error != nil {
			msg = out.Error.Message
		}
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, msg)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("empty response from gemini")
	}

	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text = strings.TrimSpace(b.String())
	if text == "" {
		return "", false, fmt.Errorf("empty response from gemini")
	}
	return text, false, nil
}

// StripFences removes a surrounding markdown code fence from a model reply.
// Gemini sometimes wraps JSON in ```json blocks even when a response schema
// was requested.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
