package aggregate

import (
	"strings"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
)

// Normalized opportunity statuses.
const (
	StatusOpen  = "open"
	StatusWon   = "won"
	StatusLost  = "lost"
	StatusOther = "other"
)

// NormalizeStatus maps a provider status onto open, won, lost or other.
func NormalizeStatus(status string) string {
	switch s := strings.ToLower(strings.TrimSpace(status)); s {
	case StatusOpen, StatusWon, StatusLost:
		return s
	default:
		return StatusOther
	}
}

// StageNames builds the stage id to stage name lookup. Stages without an id
// or a name are left out and resolve to Unknown.
func StageNames(pipelines []domain.Pipeline) map[string]string {
	names := make(map[string]string)
	for _, p := range pipelines {
		for _, s := range p.Stages {
			id, name := strings.TrimSpace(s.ID), strings.TrimSpace(s.Name)
			if id == "" || name == "" {
				continue
			}
			names[id] = name
		}
	}
	return names
}

// StageBreakdown counts opportunities per resolved stage name.
func StageBreakdown(opps []domain.Opportunity, stageNames map[string]string) []domain.NameValue {
	return GroupBy(opps, func(o domain.Opportunity) string {
		return stageNames[strings.TrimSpace(o.PipelineStageID)]
	})
}

// WinRate is won/(won+lost), 0 when nothing has been decided.
func WinRate(won, lost int) float64 {
	return Ratio(won, won+lost)
}

// AvgDealSize is the mean monetary value over opportunities worth more than
// zero. Zero and negative values are left out of both sum and count.
// Opportunities applies it to won deals only.
func AvgDealSize(opps []domain.Opportunity) float64 {
	var (
		sum   float64
		count int
	)
	for _, o := range opps {
		if v := float64(o.MonetaryValue); v > 0 {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Opportunities reduces the opportunity list into OpportunityMetrics.
func Opportunities(opps []domain.Opportunity, stageNames map[string]string) domain.OpportunityMetrics {
	m := domain.OpportunityMetrics{
		TotalOpportunities: len(opps),
		StatusBreakdown: GroupBy(opps, func(o domain.Opportunity) string {
			return strings.ToLower(o.Status)
		}),
		StageBreakdown: StageBreakdown(opps, stageNames),
	}

	won := make([]domain.Opportunity, 0)
	for _, o := range opps {
		value := float64(o.MonetaryValue)
		m.TotalValue += value
		switch NormalizeStatus(o.Status) {
		case StatusOpen:
			m.OpenCount++
		case StatusWon:
			m.WonCount++
			m.WonValue += value
			won = append(won, o)
		case StatusLost:
			m.LostCount++
		default:
			m.OtherCount++
		}
	}

	m.WinRate = WinRate(m.WonCount, m.LostCount)
	m.AvgDealSize = AvgDealSize(won)
	return m
}
