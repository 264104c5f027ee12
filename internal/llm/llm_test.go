package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/bimmerbailey/driftlog/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		wantErr error
	}{
		{
			name: "ollama",
			cfg: config.LLMConfig{
				Provider: "ollama",
				Ollama:   config.OllamaConfig{Host: "http://localhost:11434", Model: "llama3.2"},
			},
		},
		{
			name: "empty provider selects ollama",
			cfg:  config.LLMConfig{Ollama: config.OllamaConfig{Host: "http://localhost:11434"}},
		},
		{
			name:    "unknown provider",
			cfg:     config.LLMConfig{Provider: "openai"},
			wantErr: ErrUnknownProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg, testLogger())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewProvider() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider() error = %v", err)
			}
			if p == nil {
				t.Fatal("NewProvider() returned nil provider")
			}
		})
	}
}

func TestNewProviderNilLogger(t *testing.T) {
	if _, err := NewProvider(config.LLMConfig{Provider: "ollama"}, nil); err == nil {
		t.Error("NewProvider() should reject nil logger")
	}
}

// fakeProvider serves canned results for Check and Stream.
type fakeProvider struct {
	heartbeat error
	models    map[string]bool
	chunks    []StreamEvent
}

func (f *fakeProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	return &Response{}, nil
}

func (f *fakeProvider) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error) {
	ch := make(chan StreamEvent, len(f.chunks))
	for _, c := range f.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) Heartbeat(ctx context.Context) error { return f.heartbeat }

func (f *fakeProvider) ModelAvailable(ctx context.Context, model string) (bool, error) {
	return f.models[model], nil
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		p       *fakeProvider
		wantErr error
	}{
		{"ready", &fakeProvider{models: map[string]bool{"llama3.2": true}}, nil},
		{"unreachable", &fakeProvider{heartbeat: ErrProviderUnavailable}, ErrProviderUnavailable},
		{"model missing", &fakeProvider{models: map[string]bool{}}, ErrModelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(context.Background(), tt.p, "llama3.2")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Check() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStream(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		chunks  []StreamEvent
		want    string
		wantErr error
	}{
		{
			name:   "complete",
			chunks: []StreamEvent{{Content: "line 3 "}, {Content: "is new", Done: true}},
			want:   "line 3 is new",
		},
		{
			name:    "error mid-stream",
			chunks:  []StreamEvent{{Content: "partial"}, {Error: boom, Done: true}, {Content: "ignored"}},
			want:    "partial",
			wantErr: boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			got, err := Stream(context.Background(), &fakeProvider{chunks: tt.chunks}, []Message{{Role: "user", Content: "x"}}, nil, &buf)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Stream() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want || buf.String() != tt.want {
				t.Errorf("Stream() = %q, wrote %q, want %q", got, buf.String(), tt.want)
			}
		})
	}
}

func TestOllamaAdapter_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		enc.Encode(map[string]interface{}{"message": map[string]string{"content": "two "}, "done": false})
		enc.Encode(map[string]interface{}{"message": map[string]string{"content": "lines"}, "done": true})
	}))
	defer server.Close()

	p, err := NewProvider(config.LLMConfig{Ollama: config.OllamaConfig{Host: server.URL}}, testLogger())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	var buf bytes.Buffer
	got, err := Stream(context.Background(), p, []Message{{Role: "user", Content: "explain"}}, &ChatOptions{Temperature: 0.2}, &buf)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if got != "two lines" {
		t.Errorf("Stream() = %q, want %q", got, "two lines")
	}
}

func TestOllamaAdapter_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p, err := NewProvider(config.LLMConfig{Ollama: config.OllamaConfig{Host: url}}, testLogger())
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	if err := p.Heartbeat(context.Background()); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("Heartbeat() error = %v, want ErrProviderUnavailable", err)
	}
	if _, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "x"}}, nil); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("Chat() error = %v, want ErrProviderUnavailable", err)
	}
}
