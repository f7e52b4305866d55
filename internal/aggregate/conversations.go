package aggregate

import (
	"strings"
	"time"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
)

const outbound = "outbound"

// IsOpen reports whether a conversation still needs attention: it has unread
// messages or its status is "open". Any other status counts as closed.
func IsOpen(c domain.Conversation) bool {
	return c.UnreadCount > 0 || strings.EqualFold(strings.TrimSpace(c.Status), StatusOpen)
}

// IsReplied reports whether the last message was sent by the business.
// Unrecognized direction and type values are not replies.
func IsReplied(c domain.Conversation) bool {
	return strings.EqualFold(strings.TrimSpace(c.LastMessageDirection), outbound) ||
		strings.EqualFold(strings.TrimSpace(c.LastMessageType), outbound)
}

// Conversations reduces the conversation list into ConversationMetrics.
// Closed is derived as total minus open.
func Conversations(convs []domain.Conversation, now time.Time) domain.ConversationMetrics {
	m := domain.ConversationMetrics{TotalConversations: len(convs)}

	replied := 0
	for _, c := range convs {
		if IsOpen(c) {
			m.OpenConversations++
		}
		if c.UnreadCount > 0 {
			m.UnreadConversations++
		}
		if IsWithinDays(string(c.LastMessageDate), 7, now) {
			m.ActiveLast7Days++
		}
		if IsReplied(c) {
			replied++
		}
	}

	m.ClosedConversations = m.TotalConversations - m.OpenConversations
	m.ResponseRate = Ratio(replied, m.TotalConversations)
	return m
}
