package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/observability"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("pagination")

// Kind tags a pagination protocol.
type Kind string

const (
	// KindCursor walks GET listings with a startAfterId cursor (v1).
	KindCursor Kind = "cursor_get"
	// KindPagePost walks POST search endpoints by page index (v2).
	KindPagePost Kind = "page_post"
	// KindCursorToken walks GET listings that may also hand out a next-page token (v2).
	KindCursorToken Kind = "cursor_token"
)

const (
	DefaultPageSize = 100
	DefaultMaxPages = 500
)

// Sender performs one CRM API call and returns the decoded object body.
// transport.Client implements it.
type Sender interface {
	Send(ctx context.Context, method, path string, query url.Values, body any) (map[string]json.RawMessage, error)
}

// Request names the listing to drain.
type Request struct {
	Path     string
	ItemsKey string
	// Params are sent as query parameters (GET strategies) or merged into the
	// JSON body (POST strategy) on every page.
	Params map[string]string
}

// Strategy walks one pagination protocol to completion.
type Strategy interface {
	Kind() Kind
	Drain(ctx context.Context, req Request) ([]json.RawMessage, error)
}

// Options tune every strategy.
type Options struct {
	PageSize int
	// MaxPages bounds a single drain; reaching it fails the drain. Zero or
	// less means no bound.
	MaxPages int
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.Metrics == nil {
		o.Metrics = observability.NewMetrics()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// New returns the strategy implementing kind.
func New(kind Kind, sender Sender, opts Options) (Strategy, error) {
	opts = opts.withDefaults()

	switch kind {
	case KindCursor:
		return &cursorStrategy{sender: sender, opts: opts}, nil
	case KindCursorToken:
		return &cursorStrategy{sender: sender, opts: opts, acceptToken: true}, nil
	case KindPagePost:
		return &pagePostStrategy{sender: sender, opts: opts}, nil
	default:
		return nil, &domain.ErrValidation{Field: "pagination", Message: fmt.Sprintf("unknown strategy %q", kind)}
	}
}

func pageLimitError(kind Kind, path string, maxPages int) error {
	return &domain.TransportError{
		Message: fmt.Sprintf("%s listing %s did not end within %d pages", kind, path, maxPages),
	}
}
