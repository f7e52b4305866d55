package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/crm-dashboard-go/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockFetcher[T any] struct {
	items []T
	err   error
	calls atomic.Int32
}

func (m *mockFetcher[T]) Fetch(_ context.Context) ([]T, error) {
	m.calls.Add(1)
	return m.items, m.err
}

type fixture struct {
	contacts      *mockFetcher[domain.Contact]
	opportunities *mockFetcher[domain.Opportunity]
	conversations *mockFetcher[domain.Conversation]
	pipelines     *mockFetcher[domain.Pipeline]
	metrics       *observability.Metrics
}

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	return &fixture{
		contacts: &mockFetcher[domain.Contact]{items: []domain.Contact{
			{ID: "c1", DateAdded: "2024-01-01"},
			{ID: "c2", DateAdded: "2024-06-01", Source: "Facebook"},
		}},
		opportunities: &mockFetcher[domain.Opportunity]{items: []domain.Opportunity{
			{ID: "o1", Status: "won", MonetaryValue: 100, PipelineStageID: "s1"},
			{ID: "o2", Status: "lost", MonetaryValue: 0, PipelineStageID: "s2"},
			{ID: "o3", Status: "open", MonetaryValue: 50, PipelineStageID: "gone"},
		}},
		conversations: &mockFetcher[domain.Conversation]{items: []domain.Conversation{
			{ID: "v1", UnreadCount: 1, LastMessageDirection: "outbound", LastMessageDate: "2024-06-14"},
			{ID: "v2", Status: "closed"},
		}},
		pipelines: &mockFetcher[domain.Pipeline]{items: []domain.Pipeline{
			{ID: "p1", Stages: []domain.Stage{{ID: "s1", Name: "Won Stage"}, {ID: "s2", Name: "Lost Stage"}}},
		}},
		metrics: observability.NewMetrics(),
	}
}

func (f *fixture) dashboard() *service.Dashboard {
	return service.NewDashboard(
		f.contacts,
		f.opportunities,
		f.conversations,
		f.pipelines,
		service.DashboardConfig{
			LocationID:     "loc-1",
			BusinessName:   "Acme",
			DashboardTitle: "Sales",
			APIVersion:     "v2",
		},
		f.metrics,
		zap.NewNop(),
	).WithClock(func() time.Time { return fixedNow })
}

// --- Tests ---

func TestSummary_Success(t *testing.T) {
	f := newFixture()

	summary, err := f.dashboard().Summary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Contacts.TotalContacts != 2 || summary.Contacts.NewContactsLast30Days != 1 {
		t.Errorf("unexpected contact metrics: %+v", summary.Contacts)
	}
	if summary.Opportunities.WinRate != 1.0 || summary.Opportunities.AvgDealSize != 100 {
		t.Errorf("unexpected opportunity metrics: %+v", summary.Opportunities)
	}
	if got := summary.Opportunities.StageBreakdown; len(got) != 3 || got[0].Name != "Won Stage" || got[2].Name != "Unknown" {
		t.Errorf("expected stage names resolved from pipelines, got %v", got)
	}
	if summary.Conversations.OpenConversations != 1 || summary.Conversations.ClosedConversations != 1 {
		t.Errorf("unexpected conversation metrics: %+v", summary.Conversations)
	}

	meta := summary.Metadata
	if meta.LocationID != "loc-1" || meta.BusinessName != "Acme" || meta.DashboardTitle != "Sales" || meta.APIVersion != "v2" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.GeneratedAt != "2024-06-15T12:00:00Z" {
		t.Errorf("expected generatedAt from clock, got %s", meta.GeneratedAt)
	}
	if _, err := uuid.Parse(meta.ReportID); err != nil {
		t.Errorf("expected uuid report id, got %q", meta.ReportID)
	}

	for name, calls := range map[string]int32{
		"contacts":      f.contacts.calls.Load(),
		"opportunities": f.opportunities.calls.Load(),
		"conversations": f.conversations.calls.Load(),
		"pipelines":     f.pipelines.calls.Load(),
	} {
		if calls != 1 {
			t.Errorf("expected %s fetched once, got %d", name, calls)
		}
	}
}

func TestSummary_ConversationsFailureFailsWholeSummary(t *testing.T) {
	f := newFixture()
	upstream := &domain.TransportError{StatusCode: 401, Message: "Invalid JWT"}
	f.conversations.err = upstream

	summary, err := f.dashboard().Summary(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if summary != nil {
		t.Errorf("expected no partial summary, got %+v", summary)
	}

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError in chain, got %v", err)
	}
	if te != upstream {
		t.Errorf("expected the original transport error to propagate unchanged")
	}
	if got := err.Error(); got != "conversations fetch: "+upstream.Error() {
		t.Errorf("expected resource-wrapped error, got %q", got)
	}
}

func TestSummary_CancelledContext(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.dashboard().Summary(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.contacts.calls.Load() != 0 {
		t.Error("expected no fetch after cancellation")
	}
}

func TestSummary_EmptyAccount(t *testing.T) {
	f := newFixture()
	f.contacts.items = nil
	f.opportunities.items = nil
	f.conversations.items = nil
	f.pipelines.items = nil

	summary, err := f.dashboard().Summary(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary.Opportunities.WinRate != 0 || summary.Conversations.ResponseRate != 0 {
		t.Errorf("expected zero rates, got %+v", summary)
	}
}

func TestOpportunityMetrics_PipelinesFailure(t *testing.T) {
	f := newFixture()
	f.pipelines.err = &domain.TransportError{Message: "connection refused"}

	_, err := f.dashboard().OpportunityMetrics(context.Background())

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestOpportunityMetrics_ResolvesStages(t *testing.T) {
	f := newFixture()

	m, err := f.dashboard().OpportunityMetrics(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.TotalOpportunities != 3 || m.StageBreakdown[1].Name != "Lost Stage" {
		t.Errorf("unexpected metrics: %+v", m)
	}
	if f.contacts.calls.Load() != 0 || f.conversations.calls.Load() != 0 {
		t.Error("expected only opportunities and pipelines to be fetched")
	}
}

func TestContactMetrics(t *testing.T) {
	f := newFixture()

	m, err := f.dashboard().ContactMetrics(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.TotalContacts != 2 || m.SourceBreakdown[0].Name != "Unknown" {
		t.Errorf("unexpected metrics: %+v", m)
	}
}

func TestConversationMetrics_Error(t *testing.T) {
	f := newFixture()
	f.conversations.err = errors.New("boom")

	_, err := f.dashboard().ConversationMetrics(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
