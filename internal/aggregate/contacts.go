package aggregate

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
)

const (
	// RecentContactsLimit is how many contacts the recent list shows.
	RecentContactsLimit = 10
	// TopTagsLimit is how many tags the ranking keeps.
	TopTagsLimit = 10
)

// Contacts reduces the contact list into ContactMetrics.
func Contacts(contacts []domain.Contact, now time.Time) domain.ContactMetrics {
	m := domain.ContactMetrics{
		TotalContacts: len(contacts),
		SourceBreakdown: GroupBy(contacts, func(c domain.Contact) string {
			return c.Source
		}),
		TopTags:        TopTags(contacts, TopTagsLimit),
		RecentContacts: RecentContacts(contacts, RecentContactsLimit),
	}

	for _, c := range contacts {
		if IsWithinDays(string(c.DateAdded), 7, now) {
			m.NewContactsLast7Days++
		}
		if IsWithinDays(string(c.DateAdded), 30, now) {
			m.NewContactsLast30Days++
		}
	}
	return m
}

// RecentContacts returns the n most recently added contacts, newest first.
// Unparseable dates sort as the earliest; ties keep input order.
func RecentContacts(contacts []domain.Contact, n int) []domain.RecentContact {
	type dated struct {
		contact domain.Contact
		added   time.Time
	}

	sorted := make([]dated, len(contacts))
	for i, c := range contacts {
		added, _ := ParseTimestamp(string(c.DateAdded))
		sorted[i] = dated{contact: c, added: added}
	}
	slices.SortStableFunc(sorted, func(a, b dated) int {
		return b.added.Compare(a.added)
	})

	if n < 0 {
		n = 0
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]domain.RecentContact, 0, len(sorted))
	for _, d := range sorted {
		c := d.contact
		out = append(out, domain.RecentContact{
			ID:        c.ID,
			Name:      orDefault(displayName(c), Unknown),
			Email:     orDefault(c.Email, NotAvailable),
			Phone:     orDefault(c.Phone, NotAvailable),
			Source:    orDefault(c.Source, Unknown),
			DateAdded: string(c.DateAdded),
		})
	}
	return out
}

// TopTags ranks tags by occurrence, most frequent first, ties by name.
func TopTags(contacts []domain.Contact, n int) []domain.NameValue {
	counts := make(map[string]int)
	for _, c := range contacts {
		for _, tag := range c.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				counts[tag]++
			}
		}
	}

	out := make([]domain.NameValue, 0, len(counts))
	for name, value := range counts {
		out = append(out, domain.NameValue{Name: name, Value: value})
	}
	slices.SortFunc(out, func(a, b domain.NameValue) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func displayName(c domain.Contact) string {
	if name := strings.TrimSpace(c.ContactName); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}
