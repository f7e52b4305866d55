package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/crm-dashboard-go/internal/aggregate"
	"github.com/boddenberg/crm-dashboard-go/internal/domain"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/crm-dashboard-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/dashboard")

// DashboardConfig is the report metadata copied into every summary.
type DashboardConfig struct {
	LocationID     string
	BusinessName   string
	DashboardTitle string
	APIVersion     string
}

// Dashboard fetches CRM resources and reduces them into dashboard metrics.
// Nothing is cached: every call fetches and aggregates from scratch.
type Dashboard struct {
	contacts      port.ContactFetcher
	opportunities port.OpportunityFetcher
	conversations port.ConversationFetcher
	pipelines     port.PipelineFetcher
	cfg           DashboardConfig
	metrics       *observability.Metrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewDashboard creates the dashboard service with all dependencies injected.
func NewDashboard(
	contacts port.ContactFetcher,
	opportunities port.OpportunityFetcher,
	conversations port.ConversationFetcher,
	pipelines port.PipelineFetcher,
	cfg DashboardConfig,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Dashboard {
	return &Dashboard{
		contacts:      contacts,
		opportunities: opportunities,
		conversations: conversations,
		pipelines:     pipelines,
		cfg:           cfg,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for recency windows and
// generatedAt.
func (d *Dashboard) WithClock(now func() time.Time) *Dashboard {
	d.now = now
	return d
}

// ContactMetrics fetches all contacts and summarises them.
func (d *Dashboard) ContactMetrics(ctx context.Context) (*domain.ContactMetrics, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.ContactMetrics")
	defer span.End()
	defer d.observe("contacts", time.Now())

	contacts, err := fetch(ctx, d, "contacts", d.contacts)
	if err != nil {
		return nil, d.fail(span, err)
	}

	m := aggregate.Contacts(contacts, d.now())
	d.metrics.IncrRequest("ok")
	return &m, nil
}

// OpportunityMetrics fetches opportunities and pipelines concurrently and
// summarises the opportunities with stage names resolved.
func (d *Dashboard) OpportunityMetrics(ctx context.Context) (*domain.OpportunityMetrics, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.OpportunityMetrics")
	defer span.End()
	defer d.observe("opportunities", time.Now())

	var (
		opps      []domain.Opportunity
		pipelines []domain.Pipeline
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		opps, err = fetch(gCtx, d, "opportunities", d.opportunities)
		return err
	})
	g.Go(func() (err error) {
		pipelines, err = fetch(gCtx, d, "pipelines", d.pipelines)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, d.fail(span, err)
	}

	m := aggregate.Opportunities(opps, aggregate.StageNames(pipelines))
	d.metrics.IncrRequest("ok")
	return &m, nil
}

// ConversationMetrics fetches all conversations and summarises them.
func (d *Dashboard) ConversationMetrics(ctx context.Context) (*domain.ConversationMetrics, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.ConversationMetrics")
	defer span.End()
	defer d.observe("conversations", time.Now())

	convs, err := fetch(ctx, d, "conversations", d.conversations)
	if err != nil {
		return nil, d.fail(span, err)
	}

	m := aggregate.Conversations(convs, d.now())
	d.metrics.IncrRequest("ok")
	return &m, nil
}

// Summary runs all four fetches concurrently and assembles the unified
// report. The first fetch failure fails the whole call; no partial summary
// is ever returned.
func (d *Dashboard) Summary(ctx context.Context) (*domain.Summary, error) {
	// Bail out early if the caller already cancelled.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Dashboard.Summary")
	defer span.End()
	span.SetAttributes(attribute.String("crm.location_id", d.cfg.LocationID))
	defer d.observe("summary", time.Now())

	var (
		contacts  []domain.Contact
		opps      []domain.Opportunity
		convs     []domain.Conversation
		pipelines []domain.Pipeline
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		contacts, err = fetch(gCtx, d, "contacts", d.contacts)
		return err
	})
	g.Go(func() (err error) {
		opps, err = fetch(gCtx, d, "opportunities", d.opportunities)
		return err
	})
	g.Go(func() (err error) {
		convs, err = fetch(gCtx, d, "conversations", d.conversations)
		return err
	})
	g.Go(func() (err error) {
		pipelines, err = fetch(gCtx, d, "pipelines", d.pipelines)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, d.fail(span, err)
	}

	now := d.now()
	stageNames := aggregate.StageNames(pipelines)

	summary := &domain.Summary{
		Contacts:      aggregate.Contacts(contacts, now),
		Opportunities: aggregate.Opportunities(opps, stageNames),
		Conversations: aggregate.Conversations(convs, now),
		Metadata: domain.SummaryMetadata{
			ReportID:       uuid.NewString(),
			GeneratedAt:    now.UTC().Format(time.RFC3339),
			LocationID:     d.cfg.LocationID,
			BusinessName:   d.cfg.BusinessName,
			DashboardTitle: d.cfg.DashboardTitle,
			APIVersion:     d.cfg.APIVersion,
		},
	}

	d.metrics.IncrRequest("ok")
	d.logger.Info("dashboard summary generated",
		zap.String("report_id", summary.Metadata.ReportID),
		zap.Int("contacts", len(contacts)),
		zap.Int("opportunities", len(opps)),
		zap.Int("conversations", len(convs)),
		zap.Int("pipelines", len(pipelines)),
	)
	return summary, nil
}

// fetch drains one resource, logging and counting a failure before wrapping
// it with the resource name.
func fetch[T any](ctx context.Context, d *Dashboard, resource string, f port.Fetcher[T]) ([]T, error) {
	items, err := f.Fetch(ctx)
	if err != nil {
		d.logger.Error("failed to fetch "+resource,
			zap.String("location_id", d.cfg.LocationID),
			zap.Error(err),
		)
		d.metrics.IncrExternalError(resource)
		return nil, fmt.Errorf("%s fetch: %w", resource, err)
	}
	return items, nil
}

func (d *Dashboard) observe(operation string, start time.Time) {
	d.metrics.RecordRequestDuration(operation, time.Since(start))
}

func (d *Dashboard) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	d.metrics.IncrRequest("error")
	return err
}
