// Package domain defines the CRM entities, the derived dashboard metrics and
// the error taxonomy shared by every layer of the service.
package domain

// NameValue is one bucket of a breakdown or ranking.
type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// RecentContact is the fixed display shape of a recently added contact.
type RecentContact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Source    string `json:"source"`
	DateAdded string `json:"dateAdded"`
}

// ContactMetrics summarises the contact list.
type ContactMetrics struct {
	TotalContacts         int             `json:"totalContacts"`
	NewContactsLast7Days  int             `json:"newContactsLast7Days"`
	NewContactsLast30Days int             `json:"newContactsLast30Days"`
	SourceBreakdown       []NameValue     `json:"sourceBreakdown"`
	TopTags               []NameValue     `json:"topTags"`
	RecentContacts        []RecentContact `json:"recentContacts"`
}

// OpportunityMetrics summarises the sales pipeline.
type OpportunityMetrics struct {
	TotalOpportunities int         `json:"totalOpportunities"`
	OpenCount          int         `json:"openCount"`
	WonCount           int         `json:"wonCount"`
	LostCount          int         `json:"lostCount"`
	OtherCount         int         `json:"otherCount"`
	TotalValue         float64     `json:"totalValue"`
	WonValue           float64     `json:"wonValue"`
	WinRate            float64     `json:"winRate"`
	AvgDealSize        float64     `json:"avgDealSize"`
	StatusBreakdown    []NameValue `json:"statusBreakdown"`
	StageBreakdown     []NameValue `json:"stageBreakdown"`
}

// ConversationMetrics summarises inbox activity.
type ConversationMetrics struct {
	TotalConversations  int     `json:"totalConversations"`
	OpenConversations   int     `json:"openConversations"`
	ClosedConversations int     `json:"closedConversations"`
	UnreadConversations int     `json:"unreadConversations"`
	ActiveLast7Days     int     `json:"activeLast7Days"`
	ResponseRate        float64 `json:"responseRate"`
}

// SummaryMetadata describes how and for whom a summary was produced.
type SummaryMetadata struct {
	ReportID       string `json:"reportId"`
	GeneratedAt    string `json:"generatedAt"`
	LocationID     string `json:"locationId"`
	BusinessName   string `json:"businessName"`
	DashboardTitle string `json:"dashboardTitle"`
	APIVersion     string `json:"apiVersion"`
}

// Summary is the unified dashboard response.
type Summary struct {
	Contacts      ContactMetrics      `json:"contacts"`
	Opportunities OpportunityMetrics  `json:"opportunities"`
	Conversations ConversationMetrics `json:"conversations"`
	Metadata      SummaryMetadata     `json:"metadata"`
}
