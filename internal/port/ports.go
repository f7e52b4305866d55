// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the service layer
// from the concrete CRM adapters.
package port

import (
	"context"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
)

// Fetcher retrieves the complete list of one CRM resource.
type Fetcher[T any] interface {
	Fetch(ctx context.Context) ([]T, error)
}

// ContactFetcher retrieves contacts.
type ContactFetcher = Fetcher[domain.Contact]

// OpportunityFetcher retrieves opportunities.
type OpportunityFetcher = Fetcher[domain.Opportunity]

// ConversationFetcher retrieves conversations.
type ConversationFetcher = Fetcher[domain.Conversation]

// PipelineFetcher retrieves pipelines with their stages.
type PipelineFetcher = Fetcher[domain.Pipeline]
