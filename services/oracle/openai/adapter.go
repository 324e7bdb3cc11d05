// Package openai implements the generation, enrichment and reasoning
// oracles over the OpenAI chat completions API.
package openai

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

	"github.com/AyachiMishra/social-signal-intelligence-system/models"
	"github.com/AyachiMishra/social-signal-intelligence-system/services/oracle"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	oracleName = "openai"
)

// Config holds the adapter configuration
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Adapter implements oracle.GenerationOracle, oracle.EnrichmentOracle
// and oracle.ReasoningOracle against the OpenAI API
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// NewAdapter creates a new OpenAI oracle adapter
func NewAdapter(config Config) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}

	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the oracle backend name
func (a *Adapter) Name() string {
	return oracleName
}

// Generate returns one synthetic signal text per requested category
func (a *Adapter) Generate(ctx context.Context, req *oracle.GenerationRequest) ([]string, error) {
	prompt := buildGenerationPrompt(req)

	content, err := a.complete(ctx, generationSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var texts []string
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &texts); err != nil {
		return nil, oracle.NewOracleError(a.Name(), "MALFORMED_PAYLOAD",
			"generation response is not a JSON array of strings", 0, false, err)
	}

	return texts, nil
}

// Enrich scores a single signal's sentiment
func (a *Adapter) Enrich(ctx context.Context, signal *models.RawSignal) (*oracle.Enrichment, error) {
	content, err := a.complete(ctx, enrichmentSystemPrompt, signal.Text)
	if err != nil {
		return nil, err
	}

	var enrichment oracle.Enrichment
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &enrichment); err != nil {
		return nil, oracle.NewOracleError(a.Name(), "MALFORMED_PAYLOAD",
			"enrichment response is not a JSON object", 0, false, err)
	}

	return &enrichment, nil
}

// Reason assesses the business impact of an enriched signal
func (a *Adapter) Reason(ctx context.Context, signal *models.EnrichedSignal) (*oracle.Reasoning, error) {
	prompt := fmt.Sprintf(
		"Signal text: %s\nCategory: %s\nSentiment score: %.2f\nConfidence: %d",
		signal.Text, signal.Category, signal.SentimentScore, signal.Confidence,
	)

	content, err := a.complete(ctx, reasoningSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var reasoning oracle.Reasoning
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &reasoning); err != nil {
		return nil, oracle.NewOracleError(a.Name(), "MALFORMED_PAYLOAD",
			"reasoning response is not a JSON object", 0, false, err)
	}

	return &reasoning, nil
}

// complete performs one chat completion round-trip and returns the
// assistant message content
func (a *Adapter) complete(ctx context.Context, system, user string) (string, error) {
	reqBody, err := json.Marshal(&chatRequest{
		Model: a.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", oracle.NewOracleError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	// Execute request with retry logic
	var httpResp *http.Response
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", oracle.NewOracleError(a.Name(), "CANCELLED", "request cancelled", 0, false, ctx.Err())
			case <-time.After(a.config.RetryDelay * time.Duration(attempt)):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST",
			a.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
		if err != nil {
			return "", oracle.NewOracleError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

		httpResp, lastErr = a.httpClient.Do(httpReq)
		if lastErr == nil && httpResp.StatusCode < 500 && httpResp.StatusCode != http.StatusTooManyRequests {
			break
		}

		// Keep the final response so the caller sees the API error
		if httpResp != nil && attempt < a.config.MaxRetries {
			httpResp.Body.Close()
			httpResp = nil
		}
	}

	if lastErr != nil {
		return "", oracle.NewOracleError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, lastErr)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", oracle.NewOracleError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return "", a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", oracle.NewOracleError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", httpResp.StatusCode, false, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", oracle.NewOracleError(a.Name(), "EMPTY_RESPONSE", "response contains no choices", httpResp.StatusCode, false, nil)
	}

	return chatResp.Choices[0].Message.Content, nil
}

// handleErrorResponse handles OpenAI error responses
func (a *Adapter) handleErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return oracle.NewOracleError(a.Name(), "UNKNOWN_ERROR", string(body), statusCode, false, err)
	}

	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	return oracle.NewOracleError(
		a.Name(),
		errResp.Error.Type,
		errResp.Error.Message,
		statusCode,
		retryable,
		errors.New(errResp.Error.Message),
	)
}

// stripJSONFences removes a markdown code fence wrapper from model output
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func buildGenerationPrompt(req *oracle.GenerationRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate exactly %d short social media style posts about the bank {bank_name}.\n", req.Count)
	b.WriteString("Assign the posts these categories, in order:\n")
	for i, cat := range req.Categories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, cat)
	}

	if len(req.Examples) > 0 {
		b.WriteString("\nStyle examples:\n")
		for _, ex := range req.Examples {
			fmt.Fprintf(&b, "- [%s] %s\n", ex.Category, ex.Text)
		}
	}

	b.WriteString("\nKeep the literal placeholder {bank_name} wherever the bank is mentioned.\n")
	b.WriteString("Respond with a JSON array of strings, one element per post, nothing else.")
	return b.String()
}

const generationSystemPrompt = `You write realistic customer posts about a retail bank as seen on public forums, social media, review sites and community boards. Some posts include personal details like names, phone numbers or amounts. Gibberish posts are incoherent keyboard mash.`

const enrichmentSystemPrompt = `You are a sentiment analyst for banking social signals. Given a post, respond with a JSON object:
{"sentiment_score": <float -1.0 to 1.0>, "category": "Positive"|"Negative"|"Neutral"|"Gibberish", "confidence": <int 0-100>}
Respond with the JSON object only.`

const reasoningSystemPrompt = `You assess the business impact of a classified banking social signal. Respond with a JSON object:
{"explanation": "<exactly three bullet points, one per line, each starting with '- '>",
 "impact_assessment": {"reputational_risk": "...", "operational_risk": "...", "customer_trust_impact": "..."},
 "suggested_action": "<one concrete next step>",
 "urgency": "Critical"|"High"|"Medium"|"Low"}
Respond with the JSON object only.`

// Wire types for the chat completions endpoint

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
