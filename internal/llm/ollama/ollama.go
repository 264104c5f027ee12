// Package ollama talks to a local Ollama server.
//
// The package defines its own message types so that it does not import
// its parent llm package; llm adapts them to llm.Provider.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "llama3.2"

// Provider implements chat against an Ollama server.
type Provider struct {
	client *api.Client
	config Config
	logger *slog.Logger
}

// Config holds Ollama-specific configuration.
type Config struct {
	// Host is the Ollama API endpoint (e.g., "http://localhost:11434").
	// Empty means OLLAMA_HOST or the client default.
	Host string

	// Model is the default model to use.
	Model string

	// KeepAlive controls how long the server keeps the model loaded
	// after a request (e.g., "5m"). Empty leaves the server default.
	KeepAlive string

	// NumCtx and NumGPU are passed through as model options when non-zero.
	NumCtx int
	NumGPU int
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string
	Content string
}

// ChatOptions configures one request.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Response is a complete chat response.
type Response struct {
	Content      string
	Model        string
	TokensPrompt int
	TokensTotal  int
}

// StreamEvent is one chunk of a streamed response.
type StreamEvent struct {
	Content string
	Done    bool
	Error   error
}

var (
	ErrProviderUnavailable = errors.New("ollama is not reachable")
	ErrContextCanceled     = errors.New("operation was canceled")
	ErrNoMessages          = errors.New("messages cannot be empty")
)

// New creates a Provider. The logger must not be nil.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	var client *api.Client
	if cfg.Host != "" {
		u, err := url.Parse(cfg.Host)
		if err != nil || u.Scheme == "" || u.Host == "" {
			logger.Error("invalid ollama host URL", "host", cfg.Host, "error", err)
			return nil, fmt.Errorf("invalid ollama host %q", cfg.Host)
		}
		client = api.NewClient(u, http.DefaultClient)
		logger.Debug("created ollama client", "host", cfg.Host)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		logger.Debug("created ollama client from environment")
	}

	if cfg.KeepAlive != "" {
		if _, err := time.ParseDuration(cfg.KeepAlive); err != nil {
			return nil, fmt.Errorf("invalid ollama keep_alive %q: %w", cfg.KeepAlive, err)
		}
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Provider{client: client, config: cfg, logger: logger}, nil
}

// request builds the api.ChatRequest shared by Chat and ChatStream.
func (p *Provider) request(messages []Message, opts *ChatOptions, stream bool) *api.ChatRequest {
	model := p.config.Model
	var temperature float32
	var maxTokens int
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		temperature = opts.Temperature
		maxTokens = opts.MaxTokens
	}

	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: m.Role, Content: m.Content}
	}

	req := &api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]any{"temperature": temperature},
	}
	if maxTokens > 0 {
		req.Options["num_predict"] = maxTokens
	}
	if p.config.NumCtx > 0 {
		req.Options["num_ctx"] = p.config.NumCtx
	}
	if p.config.NumGPU > 0 {
		req.Options["num_gpu"] = p.config.NumGPU
	}
	if d, err := time.ParseDuration(p.config.KeepAlive); err == nil && p.config.KeepAlive != "" {
		req.KeepAlive = &api.Duration{Duration: d}
	}
	return req
}

func wrapErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}

// Chat sends messages and waits for the complete response.
func (p *Provider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	req := p.request(messages, opts, false)
	p.logger.Debug("sending chat request", "model", req.Model, "messages", len(messages))

	var resp api.ChatResponse
	err := p.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		p.logger.Error("chat request failed", "error", err, "model", req.Model)
		return nil, wrapErr(err)
	}

	p.logger.Debug("chat request completed",
		"model", resp.Model,
		"prompt_tokens", resp.PromptEvalCount,
		"eval_tokens", resp.EvalCount)

	return &Response{
		Content:      resp.Message.Content,
		Model:        resp.Model,
		TokensPrompt: resp.PromptEvalCount,
		TokensTotal:  resp.PromptEvalCount + resp.EvalCount,
	}, nil
}

// ChatStream sends messages and returns a channel of response chunks. The
// channel is closed when the response completes; a failure is delivered
// as a final event with Error set.
func (p *Provider) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}
	req := p.request(messages, opts, true)
	p.logger.Debug("starting chat stream", "model", req.Model, "messages", len(messages))

	events := make(chan StreamEvent, 10)
	go func() {
		defer close(events)

		err := p.client.Chat(ctx, req, func(r api.ChatResponse) error {
			if r.Message.Content == "" && !r.Done {
				return nil
			}
			select {
			case events <- StreamEvent{Content: r.Message.Content, Done: r.Done}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			p.logger.Debug("chat stream ended with error", "error", err, "model", req.Model)
			events <- StreamEvent{Error: wrapErr(err), Done: true}
		}
	}()

	return events, nil
}

// Heartbeat checks that the server is reachable.
func (p *Provider) Heartbeat(ctx context.Context) error {
	if err := p.client.Heartbeat(ctx); err != nil {
		p.logger.Debug("ollama heartbeat failed", "error", err)
		return wrapErr(err)
	}
	return nil
}

// ModelAvailable reports whether model has been pulled on the server.
func (p *Provider) ModelAvailable(ctx context.Context, model string) (bool, error) {
	list, err := p.client.List(ctx)
	if err != nil {
		return false, wrapErr(err)
	}
	for _, m := range list.Models {
		if m.Name == model || m.Model == model {
			return true, nil
		}
	}
	p.logger.Debug("model not found", "model", model, "available", len(list.Models))
	return false, nil
}
