// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/alchemorsel/cardapio/internal/domain/planning"
)

// ErrCacheMiss is returned by CacheRepository.Get for missing or expired keys
var ErrCacheMiss = errors.New("cache miss")

// CacheRepository defines the interface for the key/value store backing sessions
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SessionRepository stores planner sessions between requests
type SessionRepository interface {
	// Load returns nil, nil when no session exists for id
	Load(ctx context.Context, id string) (*planning.Session, error)
	Save(ctx context.Context, session *planning.Session) error
}

// TextGenerator is a single-shot prompt/response language model
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (*Generation, error)
	// Provider names the backend for logs and metrics
	Provider() string
}

// GenerationRequest for a text generator
type GenerationRequest struct {
	Prompt    string
	MaxTokens int
	// JSON asks the backend for a JSON object response where supported
	JSON bool
}

// Generation is the raw text produced by a TextGenerator
type Generation struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Report is everything the document renderer lays out
type Report struct {
	planning.Result
	GeneratedAt time.Time
}

// ReportRenderer produces the downloadable document for a finished plan
type ReportRenderer interface {
	Render(w io.Writer, report Report) error
	Filename(generatedAt time.Time) string
	ContentType() string
}
