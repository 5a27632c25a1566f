package cachestats

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Aggregator computes cache metrics summaries over a Store.
type Aggregator struct {
	store Store
}

// NewAggregator creates an aggregator over the store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate answers an aggregation query. Period buckets are included
// only when the query sets a group-by; the provider breakdown is always
// included. A query over zero events yields a zero summary with an
// overall hit rate of 0, never NaN.
func (a *Aggregator) Aggregate(ctx context.Context, query Query) (*Summary, error) {
	if query.GroupBy != "" && !query.GroupBy.Valid() {
		return nil, fmt.Errorf("unknown group_by value %q", query.GroupBy)
	}

	events, err := a.store.List(ctx, Filter{
		UserID:         query.UserID,
		ConversationID: query.ConversationID,
		Since:          query.Since,
		Until:          query.Until,
	})
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	conversations := make(map[string]bool)
	periods := make(map[string]*PeriodMetrics)
	providers := make(map[string]*ProviderMetrics)

	for _, e := range events {
		if e.Hit {
			summary.TotalHits++
			summary.TotalSavedCost += e.SavedCost
		} else {
			summary.TotalMisses++
		}
		if e.ConversationID != "" {
			conversations[e.ConversationID] = true
		}

		if query.GroupBy != "" {
			key := periodKey(e.CreatedAt, query.GroupBy)
			p, ok := periods[key]
			if !ok {
				p = &PeriodMetrics{Period: key}
				periods[key] = p
			}
			if e.Hit {
				p.Hits++
				p.SavedCost += e.SavedCost
			} else {
				p.Misses++
			}
		}

		if e.Provider != "" {
			p, ok := providers[e.Provider]
			if !ok {
				p = &ProviderMetrics{Provider: e.Provider}
				providers[e.Provider] = p
			}
			if e.Hit {
				p.Hits++
				p.SavedCost += e.SavedCost
			} else {
				p.Misses++
			}
		}
	}

	summary.TotalConversations = int64(len(conversations))
	summary.OverallHitRate = hitRate(summary.TotalHits, summary.TotalMisses)

	if query.GroupBy != "" {
		for _, p := range periods {
			p.HitRate = hitRate(p.Hits, p.Misses)
			summary.PeriodMetrics = append(summary.PeriodMetrics, p)
		}
		sort.Slice(summary.PeriodMetrics, func(i, j int) bool {
			return summary.PeriodMetrics[i].Period < summary.PeriodMetrics[j].Period
		})
	}

	for _, p := range providers {
		p.HitRate = hitRate(p.Hits, p.Misses)
		summary.ProviderBreakdown = append(summary.ProviderBreakdown, p)
	}
	sort.Slice(summary.ProviderBreakdown, func(i, j int) bool {
		return summary.ProviderBreakdown[i].Provider < summary.ProviderBreakdown[j].Provider
	})

	return summary, nil
}

// hitRate is hits/(hits+misses), defined as 0 when there are no events.
func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// periodKey buckets a timestamp into a sortable period label.
func periodKey(t time.Time, g GroupBy) string {
	t = t.UTC()
	switch g {
	case GroupByHour:
		return t.Format("2006-01-02T15:00")
	case GroupByDay:
		return t.Format("2006-01-02")
	case GroupByWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GroupByMonth:
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}
