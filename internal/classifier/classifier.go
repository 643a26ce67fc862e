// Package classifier turns raw SMS text into a typed, categorized report
// by calling a generative-language model with a structured-output prompt.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/relieflink/report-gateway/internal/model"
	"github.com/relieflink/report-gateway/pkg/logger"
)

// ErrClassificationFailed covers every failure mode of the model call:
// transport errors, non-2xx responses, empty candidates and unparseable
// JSON all collapse into it. Callers only need "could not parse".
var ErrClassificationFailed = errors.New("could not classify message")

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client calls the model API once per message. No retries, no streaming;
// a retried SMS delivery re-runs the whole pipeline anyway.
type Client struct {
	config Config
	http   *http.Client
}

func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 25 * time.Second
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Disaster reports legitimately describe injury, death and distress, so
// every safety filter that could block them is turned off.
var safetyOff = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

// Classify sends one message to the model and decodes the structured
// result. Confidence in the result is advisory; nothing gates on it here.
func (c *Client) Classify(ctx context.Context, message, sender string, receivedAt time.Time) (*model.ClassifiedReport, error) {
	prompt := BuildPrompt(message, sender, receivedAt)

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      c.config.Temperature,
			ResponseMimeType: "application/json",
		},
		SafetySettings: safetyOff,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.config.BaseURL, "/"), c.config.Model, c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("classifier API unreachable", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("classifier API returned non-2xx", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrClassificationFailed, resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}
	text := firstCandidateText(gr)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty model response", ErrClassificationFailed)
	}

	report, err := model.DecodeClassifiedReport([]byte(StripCodeFence(text)), message)
	if err != nil {
		logger.Warn("classifier output rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	return report, nil
}

func firstCandidateText(gr generateResponse) string {
	for _, cand := range gr.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

// StripCodeFence removes a markdown ```json ... ``` wrapper if the model
// added one despite the JSON mime-type hint.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
