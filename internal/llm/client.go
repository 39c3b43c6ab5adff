// Package llm wraps the chat-completion collaborator used by the analysis
// pipeline.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/reslab/paperlens/internal/domain"
)

const (
	// DefaultModel is the model used for analysis calls
	DefaultModel = openai.GPT4o
	// DefaultMaxRetries bounds retries of transient collaborator failures
	DefaultMaxRetries = 3
)

var (
	// ErrEmptyPrompt is returned when the prompt is empty
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrNoAPIKey is returned when the OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
)

// CompletionAPI defines the interface for chat completion calls
type CompletionAPI interface {
	CreateCompletion(ctx context.Context, model, prompt string) (string, error)
	StreamCompletion(ctx context.Context, model, prompt string, onDelta func(string)) (string, error)
}

// Client wraps the collaborator API with retry handling. Transient failures
// are retried with exponential backoff up to MaxRetries; permanent failures
// surface immediately.
type Client struct {
	api        CompletionAPI
	model      string
	maxRetries int
}

type OpenAIAdapter struct {
	client *openai.Client
}

func NewOpenAIAdapter(apiKey string) *OpenAIAdapter {
	return &OpenAIAdapter{client: openai.NewClient(apiKey)}
}

// CreateCompletion calls the OpenAI chat completion API
func (a *OpenAIAdapter) CreateCompletion(ctx context.Context, model, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewTransientCollaboratorError(errors.New("no completion choices returned"))
	}

	return resp.Choices[0].Message.Content, nil
}

// StreamCompletion calls the chat completion API in streaming mode, invoking
// onDelta for each content fragment, and returns the full text.
func (a *OpenAIAdapter) StreamCompletion(ctx context.Context, model, prompt string, onDelta func(string)) (string, error) {
	stream, err := a.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return "", classifyError(err)
	}
	defer stream.Close()

	var full []byte
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", classifyError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full = append(full, delta...)
		if onDelta != nil {
			onDelta(delta)
		}
	}

	return string(full), nil
}

// classifyError splits collaborator failures into transient and permanent.
// Timeouts, throttling and server errors may succeed on retry; anything else
// in the 4xx range will not.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return domain.NewTransientCollaboratorError(err)
		case apiErr.HTTPStatusCode >= 500:
			return domain.NewTransientCollaboratorError(err)
		default:
			return domain.NewPermanentCollaboratorError(err)
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewPermanentCollaboratorError(err)
	}

	// Network-level failures (connection reset, DNS) are worth retrying.
	return domain.NewTransientCollaboratorError(err)
}

type Config struct {
	APIKey     string
	Model      string
	MaxRetries int
}

// NewClient creates a new collaborator client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new collaborator client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Client{
		api:        NewOpenAIAdapter(cfg.APIKey),
		model:      model,
		maxRetries: maxRetries,
	}
}

// NewClientFromEnv creates a new collaborator client using the
// OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// NewClientWithAPI creates a client over a custom CompletionAPI, used in tests.
func NewClientWithAPI(api CompletionAPI, maxRetries int) *Client {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Client{api: api, model: DefaultModel, maxRetries: maxRetries}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete runs one completion call with retry on transient failures.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, nil)
}

// CompleteStreaming runs one completion call in streaming mode, invoking
// onDelta for each fragment. Retries restart the stream from the beginning,
// but fragments already delivered are not replayed to onDelta.
func (c *Client) CompleteStreaming(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	return c.complete(ctx, prompt, onDelta)
}

func (c *Client) complete(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	// A retried stream restarts from position zero, so a consumer appending
	// deltas would see the recovered prefix twice. Track how many bytes have
	// been forwarded and suppress the replayed portion of each new attempt.
	forwarded := 0
	var result string
	operation := func() error {
		var err error
		if onDelta != nil {
			attemptPos := 0
			result, err = c.api.StreamCompletion(ctx, c.model, prompt, func(delta string) {
				cut := 0
				if attemptPos < forwarded {
					cut = forwarded - attemptPos
				}
				attemptPos += len(delta)
				if cut < len(delta) {
					onDelta(delta[cut:])
					forwarded = attemptPos
				}
			})
		} else {
			result, err = c.api.CreateCompletion(ctx, c.model, prompt)
		}
		if err != nil && !domain.IsTransientCollaboratorError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(backoff.WithInitialInterval(time.Second)),
		uint64(c.maxRetries),
	), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	return result, nil
}
