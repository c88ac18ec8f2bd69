package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"invomatch/internal/config"
	"invomatch/internal/domain"
	"invomatch/internal/extract"
	"invomatch/internal/record"
)

const (
	apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
)

// Client implements port.FieldExtractor against Google's Gemini API.
// The zero-temperature, JSON-response configuration keeps output as close
// to deterministic as the model allows; it is still treated as untrusted.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates a Gemini-backed field extractor.
func NewClient(cfg *config.ExtractConfig) *Client {
	return newClient(cfg, "")
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.ExtractConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.ExtractConfig, endpoint string) *Client {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Extract sends the rendered content plus the field-schema instruction and
// parses the response into an Extracted record.
func (c *Client) Extract(ctx context.Context, content domain.RenderedContent, kind domain.DocumentKind) (*record.Extracted, error) {
	prompt := extract.BuildPrompt(kind)

	parts, err := buildParts(content, prompt)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": parts,
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"temperature":      0,
			"maxOutputTokens":  16384,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %v", domain.ErrExtractionAuth, baseErr)
		case http.StatusTooManyRequests:
			return nil, extract.NewRateLimitError("gemini", baseErr,
				extract.ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
		default:
			return nil, baseErr
		}
	}

	return parseResponse(respBody, kind)
}

// buildParts assembles the request parts: extracted text is inlined, page
// images are attached as inline_data blocks in page order, and the schema
// instruction always comes last.
func buildParts(content domain.RenderedContent, prompt string) ([]map[string]interface{}, error) {
	var parts []map[string]interface{}
	switch c := content.(type) {
	case domain.TextContent:
		parts = append(parts, map[string]interface{}{
			"text": "--- DOCUMENT TEXT ---\n" + c.Text,
		})
	case domain.ImageContent:
		for _, page := range c.Pages {
			parts = append(parts, map[string]interface{}{
				"inline_data": map[string]interface{}{
					"mime_type": "image/png",
					"data":      base64.StdEncoding.EncodeToString(page.PNG),
				},
			})
		}
	default:
		return nil, fmt.Errorf("unsupported rendered content type %T", content)
	}
	parts = append(parts, map[string]interface{}{"text": prompt})
	return parts, nil
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte, kind domain.DocumentKind) (*record.Extracted, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling response: %v", domain.ErrExtractionParse, err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response from API", domain.ErrExtractionParse)
	}

	text := resp.Candidates[0].Content.Parts[0].Text
	return extract.DecodeRecord([]byte(text), kind)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
