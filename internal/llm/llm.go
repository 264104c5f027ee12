package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/driftlog/internal/config"
	"github.com/bimmerbailey/driftlog/internal/llm/ollama"
)

// Provider defines the interface for LLM interactions.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Chat sends messages and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// ChatStream sends messages and returns a channel of streaming events.
	// The channel is closed when the stream completes or fails.
	ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error)

	// Heartbeat returns nil if the provider is reachable.
	Heartbeat(ctx context.Context) error

	// ModelAvailable reports whether model is ready for use.
	ModelAvailable(ctx context.Context, model string) (bool, error)
}

// Message represents a single message in a conversation.
type Message struct {
	// Role identifies the message sender: "system", "user", or "assistant"
	Role string

	Content string
}

// ChatOptions configures chat behavior. A nil *ChatOptions uses provider defaults.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int // 0 = provider default
}

// Response represents a complete LLM response.
type Response struct {
	Content      string
	Model        string
	TokensPrompt int
	TokensTotal  int
}

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	Content string
	Done    bool

	// Error terminates the stream when non-nil.
	Error error
}

var (
	// ErrProviderUnavailable indicates the LLM provider is not reachable.
	ErrProviderUnavailable = errors.New("llm provider is not reachable")

	// ErrModelNotFound indicates the requested model has not been pulled.
	ErrModelNotFound = errors.New("requested model is not available")

	// ErrUnknownProvider is returned by NewProvider for unsupported names.
	ErrUnknownProvider = errors.New("unknown llm provider")
)

// NewProvider creates the provider selected by cfg.Provider. An empty
// provider name selects ollama.
func NewProvider(cfg config.LLMConfig, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	name := strings.ToLower(cfg.Provider)
	logger.Debug("creating llm provider", "type", name)

	switch name {
	case "", "ollama":
		p, err := ollama.New(ollama.Config{
			Host:      cfg.Ollama.Host,
			Model:     cfg.Ollama.Model,
			KeepAlive: cfg.Ollama.KeepAlive,
			NumCtx:    cfg.Ollama.NumCtx,
			NumGPU:    cfg.Ollama.NumGPU,
		}, logger)
		if err != nil {
			return nil, translateErr(err)
		}
		return &ollamaAdapter{provider: p}, nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: ollama)", ErrUnknownProvider, name)
	}
}

// Check verifies that p is reachable and has model pulled.
func Check(ctx context.Context, p Provider, model string) error {
	if err := p.Heartbeat(ctx); err != nil {
		return err
	}
	ok, err := p.ModelAvailable(ctx, model)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s (run: ollama pull %s)", ErrModelNotFound, model, model)
	}
	return nil
}

// Stream runs a streaming chat and copies each chunk to w as it arrives.
// It returns the full response text.
func Stream(ctx context.Context, p Provider, messages []Message, opts *ChatOptions, w io.Writer) (string, error) {
	events, err := p.ChatStream(ctx, messages, opts)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for ev := range events {
		if ev.Error != nil {
			// drain so the producer can exit
			for range events {
			}
			return sb.String(), ev.Error
		}
		sb.WriteString(ev.Content)
		if _, err := io.WriteString(w, ev.Content); err != nil {
			for range events {
			}
			return sb.String(), err
		}
	}
	return sb.String(), nil
}

// translateErr maps ollama sentinel errors onto this package's.
func translateErr(err error) error {
	if errors.Is(err, ollama.ErrProviderUnavailable) {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return err
}

// ollamaAdapter adapts ollama.Provider to Provider. The ollama package
// keeps its own types so it does not import llm.
type ollamaAdapter struct {
	provider *ollama.Provider
}

func toOllama(messages []Message, opts *ChatOptions) ([]ollama.Message, *ollama.ChatOptions) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}
	if opts == nil {
		return msgs, nil
	}
	return msgs, &ollama.ChatOptions{Model: opts.Model, Temperature: opts.Temperature, MaxTokens: opts.MaxTokens}
}

func (a *ollamaAdapter) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	msgs, o := toOllama(messages, opts)
	resp, err := a.provider.Chat(ctx, msgs, o)
	if err != nil {
		return nil, translateErr(err)
	}
	return &Response{
		Content:      resp.Content,
		Model:        resp.Model,
		TokensPrompt: resp.TokensPrompt,
		TokensTotal:  resp.TokensTotal,
	}, nil
}

func (a *ollamaAdapter) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	msgs, o := toOllama(messages, opts)
	in, err := a.provider.ChatStream(ctx, msgs, o)
	if err != nil {
		return nil, translateErr(err)
	}

	out := make(chan StreamEvent, 10)
	go func() {
		defer close(out)
		for ev := range in {
			var err error
			if ev.Error != nil {
				err = translateErr(ev.Error)
			}
			out <- StreamEvent{Content: ev.Content, Done: ev.Done, Error: err}
		}
	}()
	return out, nil
}

func (a *ollamaAdapter) Heartbeat(ctx context.Context) error {
	return translateErr(a.provider.Heartbeat(ctx))
}

func (a *ollamaAdapter) ModelAvailable(ctx context.Context, model string) (bool, error) {
	ok, err := a.provider.ModelAvailable(ctx, model)
	if err != nil {
		return false, translateErr(err)
	}
	return ok, nil
}
