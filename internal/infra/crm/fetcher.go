// Package crm binds each CRM entity type to its listing endpoint and
// pagination protocol.
package crm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/pagination"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("crm")

// Fetcher drains one resource listing and decodes it into entities of type T.
// It neither caches nor retries: the result is the whole listing or an error.
type Fetcher[T any] struct {
	resource   Resource
	endpoint   Endpoint
	strategy   pagination.Strategy
	locationID string
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// Fetch returns every record of the resource for the configured location.
func (f *Fetcher[T]) Fetch(ctx context.Context) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Fetcher.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("crm.resource", string(f.resource)),
		attribute.String("crm.location_id", f.locationID),
	)

	raw, err := f.strategy.Drain(ctx, pagination.Request{
		Path:     f.endpoint.Path,
		ItemsKey: f.endpoint.ItemsKey,
		Params:   map[string]string{f.endpoint.LocationParam: f.locationID},
	})
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var v T
		// Field-level type mismatches leave the remaining fields decoded;
		// whatever could not be read stays zero and falls back downstream.
		if err := json.Unmarshal(item, &v); err != nil {
			f.logger.Warn("crm: coerced malformed record",
				zap.String("resource", string(f.resource)),
				zap.Int("index", i),
				zap.Error(err),
			)
		}
		out = append(out, v)
	}

	f.metrics.AddRecords(string(f.resource), len(out))
	span.SetAttributes(attribute.Int("crm.records", len(out)))
	return out, nil
}

// Resource reports which entity type the fetcher serves.
func (f *Fetcher[T]) Resource() Resource {
	return f.resource
}

// Fetchers holds the four resource fetchers of one API generation.
type Fetchers struct {
	Version       Version
	Contacts      *Fetcher[domain.Contact]
	Opportunities *Fetcher[domain.Opportunity]
	Conversations *Fetcher[domain.Conversation]
	Pipelines     *Fetcher[domain.Pipeline]
}

// NewFetchers builds every fetcher for version, all sharing sender.
func NewFetchers(version Version, sender pagination.Sender, locationID string, opts pagination.Options) (*Fetchers, error) {
	if locationID == "" {
		return nil, &domain.ErrValidation{Field: "location_id", Message: "required"}
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	contacts, err := newFetcher[domain.Contact](version, ResourceContacts, sender, locationID, opts)
	if err != nil {
		return nil, err
	}
	opportunities, err := newFetcher[domain.Opportunity](version, ResourceOpportunities, sender, locationID, opts)
	if err != nil {
		return nil, err
	}
	conversations, err := newFetcher[domain.Conversation](version, ResourceConversations, sender, locationID, opts)
	if err != nil {
		return nil, err
	}
	pipelines, err := newFetcher[domain.Pipeline](version, ResourcePipelines, sender, locationID, opts)
	if err != nil {
		return nil, err
	}

	return &Fetchers{
		Version:       version,
		Contacts:      contacts,
		Opportunities: opportunities,
		Conversations: conversations,
		Pipelines:     pipelines,
	}, nil
}

func newFetcher[T any](version Version, resource Resource, sender pagination.Sender, locationID string, opts pagination.Options) (*Fetcher[T], error) {
	ep, ok := EndpointFor(version, resource)
	if !ok {
		return nil, &domain.ErrValidation{Field: "api_version", Message: fmt.Sprintf("no %s endpoint for CRM API %q", resource, version)}
	}

	strategy, err := pagination.New(ep.Kind, sender, opts)
	if err != nil {
		return nil, err
	}

	return &Fetcher[T]{
		resource:   resource,
		endpoint:   ep,
		strategy:   strategy,
		locationID: locationID,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}, nil
}
