package ai

import (
	"context"
	"errors"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/causality360/newsapi/internal/logger"
	"github.com/go-resty/resty/v2"
)

// Client talks to the Groq OpenAI-compatible chat-completions endpoint.
type Client struct {
	http       *resty.Client
	apiURL     string
	apiKey     string
	model      string
	maxRetries int
	// backoff base for service errors; attempt N waits N*retryBase.
	retryBase time.Duration
	// clamp bounds for server-provided retry-after hints.
	minRateWait time.Duration
	maxRateWait time.Duration
}

// ClientConfig carries the tunables for the AI client.
type ClientConfig struct {
	APIURL     string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// CompletionRequest is one chat-completion call.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient builds a Groq client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = 2 * time.Second
	}
	return &Client{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("User-Agent", "causality360/1.0"),
		apiURL:      cfg.APIURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxRetries:  retries,
		retryBase:   retryBase,
		minRateWait: 5 * time.Second,
		maxRateWait: 120 * time.Second,
	}
}

// Complete performs a single chat-completion call and classifies any failure.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.apiKey == "" {
		return "", &Error{Kind: KindBadRequest, Msg: "API key not configured"}
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        0.85,
		Stream:      false,
	}

	var decoded chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(c.apiKey).
		SetBody(body).
		SetResult(&decoded).
		SetError(&decoded).
		Post(c.apiURL)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", &Error{Kind: KindTimeout, Msg: "API call timed out", Err: err}
		}
		return "", &Error{Kind: KindServiceUnavailable, Msg: "API request failed", Err: err}
	}

	if code := resp.StatusCode(); code != http.StatusOK {
		return "", classifyStatus(code, resp.String(), c.minRateWait, c.maxRateWait)
	}

	if decoded.Error != nil {
		return "", &Error{Kind: KindMalformed, Msg: "API error payload: " + decoded.Error.Message}
	}
	if len(decoded.Choices) == 0 {
		return "", &Error{Kind: KindMalformed, Msg: "no choices in response"}
	}

	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", &Error{Kind: KindMalformed, Msg: "empty completion content"}
	}
	return content, nil
}

// CompleteWithRetry wraps Complete with the shared spacing gate and a bounded
// retry loop. Rate-limit responses wait out the server hint; service errors
// back off linearly. Bad requests and malformed responses are returned
// immediately. Once the budget is spent the caller gets KindExhausted and must
// treat it as skip-or-fallback.
func (c *Client) CompleteWithRetry(ctx context.Context, gate *Gate, req CompletionRequest) (string, error) {
	log := logger.Get()
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if gate != nil {
			if err := gate.Wait(ctx); err != nil {
				return "", err
			}
		}

		start := time.Now()
		content, err := c.Complete(ctx, req)
		if err == nil {
			log.Debug().
				Int("attempt", attempt).
				Dur("elapsed", time.Since(start)).
				Int("chars", len(content)).
				Msg("AI completion succeeded")
			return content, nil
		}
		lastErr = err

		var wait time.Duration
		switch KindOf(err) {
		case KindRateLimited:
			wait = 30 * time.Second // when the hint is absent
			var aiErr *Error
			if errors.As(err, &aiErr) && aiErr.RetryAfter > 0 {
				wait = aiErr.RetryAfter
			}
			log.Warn().
				Int("attempt", attempt).
				Dur("wait", wait).
				Msg("AI rate limit hit")
		case KindServiceUnavailable, KindTimeout:
			wait = time.Duration(attempt) * c.retryBase
			log.Warn().
				Int("attempt", attempt).
				Dur("wait", wait).
				Err(err).
				Msg("AI service error")
		default:
			// Bad requests and malformed responses do not improve on retry.
			return "", err
		}

		if attempt == c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	return "", &Error{
		Kind: KindExhausted,
		Msg:  "retry budget spent after " + strconv.Itoa(c.maxRetries) + " attempts",
		Err:  lastErr,
	}
}

func classifyStatus(code int, body string, minWait, maxWait time.Duration) *Error {
	switch {
	case code == http.StatusTooManyRequests:
		return &Error{
			Kind:       KindRateLimited,
			Msg:        "provider rate limit",
			RetryAfter: parseRetryAfter(body, minWait, maxWait),
		}
	case code == http.StatusBadRequest:
		return &Error{Kind: KindBadRequest, Msg: "provider rejected request"}
	case code >= 500:
		return &Error{Kind: KindServiceUnavailable, Msg: "provider error " + strconv.Itoa(code)}
	default:
		return &Error{Kind: KindUnknown, Msg: "unexpected status " + strconv.Itoa(code)}
	}
}

var retryAfterRe = regexp.MustCompile(`try again in (\d+(?:\.\d+)?)s`)

// parseRetryAfter extracts the "try again in Ns" hint Groq embeds in 429
// bodies, clamped to [minWait, maxWait]. Falls back to 30s when absent.
func parseRetryAfter(body string, minWait, maxWait time.Duration) time.Duration {
	m := retryAfterRe.FindStringSubmatch(body)
	if m == nil {
		return 30 * time.Second
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 30 * time.Second
	}
	wait := time.Duration(math.Ceil(seconds)) * time.Second
	if wait < minWait {
		wait = minWait
	}
	if wait > maxWait {
		wait = maxWait
	}
	return wait
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
