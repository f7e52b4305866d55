package crm

import (
	"fmt"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/pagination"
)

// Version is a CRM API generation. One deployment talks to exactly one.
type Version string

const (
	V1 Version = "v1"
	V2 Version = "v2"
)

// ParseVersion validates a configured API generation.
func ParseVersion(s string) (Version, error) {
	switch Version(s) {
	case V1, V2:
		return Version(s), nil
	default:
		return "", &domain.ErrValidation{Field: "api_version", Message: fmt.Sprintf("unsupported CRM API version %q", s)}
	}
}

// Resource names a fetchable entity type.
type Resource string

const (
	ResourceContacts      Resource = "contacts"
	ResourceOpportunities Resource = "opportunities"
	ResourceConversations Resource = "conversations"
	ResourcePipelines     Resource = "pipelines"
)

// Endpoint binds a resource to a listing protocol and request shape.
type Endpoint struct {
	Kind     pagination.Kind
	Path     string
	ItemsKey string
	// LocationParam is the name under which the tenant id is sent.
	LocationParam string
}

var endpoints = map[Version]map[Resource]Endpoint{
	V1: {
		ResourceContacts:      {Kind: pagination.KindCursor, Path: "/contacts", ItemsKey: "contacts", LocationParam: "locationId"},
		ResourceOpportunities: {Kind: pagination.KindCursor, Path: "/opportunities/search", ItemsKey: "opportunities", LocationParam: "location_id"},
		ResourceConversations: {Kind: pagination.KindCursor, Path: "/conversations/search", ItemsKey: "conversations", LocationParam: "locationId"},
		ResourcePipelines:     {Kind: pagination.KindCursor, Path: "/pipelines", ItemsKey: "pipelines", LocationParam: "locationId"},
	},
	V2: {
		ResourceContacts:      {Kind: pagination.KindPagePost, Path: "/contacts/search", ItemsKey: "contacts", LocationParam: "locationId"},
		ResourceOpportunities: {Kind: pagination.KindPagePost, Path: "/opportunities/search", ItemsKey: "opportunities", LocationParam: "location_id"},
		ResourceConversations: {Kind: pagination.KindCursorToken, Path: "/conversations/search", ItemsKey: "conversations", LocationParam: "locationId"},
		ResourcePipelines:     {Kind: pagination.KindCursorToken, Path: "/opportunities/pipelines", ItemsKey: "pipelines", LocationParam: "locationId"},
	},
}

// EndpointFor returns the endpoint shape of a resource in an API generation.
func EndpointFor(version Version, resource Resource) (Endpoint, bool) {
	ep, ok := endpoints[version][resource]
	return ep, ok
}
