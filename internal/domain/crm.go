package domain

// CRM entities as returned by the provider. They are decoded once per request
// and never mutated afterwards.

// Contact is a lead or customer record.
type Contact struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	ContactName string     `json:"contactName"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Source      string     `json:"source"`
	DateAdded   Timestamp  `json:"dateAdded"`
	Tags        StringList `json:"tags"`
}

// Opportunity is a sales deal sitting in a pipeline stage.
type Opportunity struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MonetaryValue   Amount `json:"monetaryValue"`
	Status          string `json:"status"`
	PipelineID      string `json:"pipelineId"`
	PipelineStageID string `json:"pipelineStageId"`
}

// Pipeline owns an ordered list of stages.
type Pipeline struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Stages []Stage `json:"stages"`
}

// Stage is a named step within a pipeline.
type Stage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Conversation is a message thread with a contact.
type Conversation struct {
	ID                   string    `json:"id"`
	ContactID            string    `json:"contactId"`
	Status               string    `json:"status"`
	UnreadCount          Count     `json:"unreadCount"`
	LastMessageType      string    `json:"lastMessageType"`
	LastMessageDirection string    `json:"lastMessageDirection"`
	LastMessageDate      Timestamp `json:"lastMessageDate"`
}
