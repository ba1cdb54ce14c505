// Package llm talks to an OpenAI-compatible chat completions endpoint.
// Every call returns a result.Result so callers decide how to degrade.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Divas-Gupta30/interview-agent/internal/applog"
	"github.com/Divas-Gupta30/interview-agent/internal/metrics"
	"github.com/Divas-Gupta30/interview-agent/internal/result"
)

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	// Timeout bounds a single attempt.
	Timeout    time.Duration
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff    time.Duration
	HTTPClient *http.Client
}

// Client is safe for concurrent use.
type Client struct {
	opts Options
	http *http.Client
}

// New builds a Client. When an API key is set it is sent as a bearer token.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{}
	}
	hc := base
	if opts.APIKey != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.APIKey}))
	}
	return &Client{opts: opts, http: hc}
}

func (c *Client) Model() string        { return c.opts.Model }
func (c *Client) Temperature() float64 { return c.opts.Temperature }

// Complete sends a one-shot system + user exchange.
func (c *Client) Complete(ctx context.Context, system, input string) result.Result[string] {
	return c.Chat(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: input},
	})
}

// Continue sends input after the conversation's history. The history grows
// by the user input and the reply only when the call succeeds.
func (c *Client) Continue(ctx context.Context, conv *Conversation, input string) result.Result[string] {
	res := c.Chat(ctx, conv.messages(input))
	if res.Ok() {
		conv.append(Message{Role: "user", Content: input}, Message{Role: "assistant", Content: res.Value})
	}
	return res
}

// Chat posts messages, retrying transient failures with exponential backoff.
// An empty reply is reported as not found.
func (c *Client) Chat(ctx context.Context, msgs []Message) result.Result[string] {
	body, err := json.Marshal(chatRequest{
		Model:       c.opts.Model,
		Messages:    msgs,
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return c.record(result.Fatal[string](fmt.Errorf("encoding chat request: %w", err)))
	}

	logger := applog.FromContext(ctx)
	var lastErr error
	delay := c.opts.Backoff
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return c.record(result.Fatal[string](ctx.Err()))
			case <-time.After(delay):
			}
			delay *= 2
		}

		text, err := c.do(ctx, body)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return c.record(result.None[string]())
			}
			return c.record(result.Ok(strings.TrimSpace(text)))
		}
		lastErr = err
		if ctx.Err() != nil {
			return c.record(result.Fatal[string](ctx.Err()))
		}
		if result.Classify(err) != result.KindTransient {
			return c.record(result.Fatal[string](err))
		}
		logger.Warn("llm call failed, retrying", "attempt", attempt+1, "error", err)
	}
	return c.record(result.Transient[string](fmt.Errorf("llm call failed after %d attempts: %w", c.opts.MaxRetries+1, lastErr)))
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling llm: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", fmt.Errorf("%w: llm returned status %d: %s", result.ErrTransient, resp.StatusCode, msg)
		}
		return "", fmt.Errorf("llm returned status %d: %s", resp.StatusCode, msg)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding llm response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("llm response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func (c *Client) record(r result.Result[string]) result.Result[string] {
	metrics.ExternalCallsTotal.WithLabelValues("llm", r.Kind.String()).Inc()
	return r
}
