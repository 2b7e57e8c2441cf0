package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"compliance-audit-be/internal/config"
	"compliance-audit-be/internal/entity"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/pkg/evidence"
	"compliance-audit-be/pkg/prompt"

	"github.com/cenkalti/backoff/v5"
)

// LLMClient calls an OpenAI-compatible chat completion API and parses
// the structured verdict. Transient transport failures and rejected
// payloads are retried with exponential backoff; other client errors
// abort immediately.
type LLMClient struct {
	apiKey     string
	model      string
	apiURL     string
	maxRetries int
	httpClient *http.Client
	logger     logger.ILogger
}

func NewLLMClient(cfg config.AIConfig, log logger.ILogger) *LLMClient {
	base := strings.TrimRight(cfg.LLMBaseURL, "/")
	apiURL := base
	if !strings.Contains(base, "/chat/completions") {
		apiURL = base + "/chat/completions"
	}
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retries := cfg.LLMMaxRetries
	if retries <= 0 {
		retries = 3
	}
	return &LLMClient{
		apiKey:     cfg.LLMAPIKey,
		model:      cfg.LLMModel,
		apiURL:     apiURL,
		maxRetries: retries,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	ResponseFormat formatSpec    `json:"response_format"`
	Messages       []chatMessage `json:"messages"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *LLMClient) Analyze(ctx context.Context, chunk *entity.Chunk, bundle *evidence.Bundle) (*Result, error) {
	payload := chatRequest{
		Model:          c.model,
		ResponseFormat: formatSpec{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: prompt.SystemPrompt},
			{Role: "user", Content: prompt.BuildUserPrompt(bundle)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	operation := func() (*Result, error) {
		result, err := c.attempt(ctx, body)
		if err != nil {
			c.logger.Warn("analysis", "llm attempt failed", map[string]interface{}{
				"chunk_id": chunk.ChunkId,
				"error":    err.Error(),
			})
		}
		return result, err
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(c.maxRetries)),
	)
	if err != nil {
		return nil, fmt.Errorf("analysis for chunk %s: %w", chunk.ChunkId, err)
	}
	return result, nil
}

func (c *LLMClient) attempt(ctx context.Context, body []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &TransientError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(respBody))}
	default:
		// 4xx other than rate limiting will not heal on retry.
		return nil, backoff.Permanent(fmt.Errorf("llm api status %d: %s", resp.StatusCode, truncate(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &MalformedResponseError{Reason: "unreadable completion envelope", Err: err}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, &MalformedResponseError{Reason: "completion missing content", Err: nil}
	}

	return ParseResult(parsed.Choices[0].Message.Content)
}

func truncate(body []byte) string {
	const max = 500
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
