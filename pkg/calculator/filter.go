package calculator

import (
	"sort"
	"strings"

	"shop-analytics/pkg/models"
)

// FilterValid keeps orders with an accepted financial status whose creation
// month lies in [start, end], sorted by creation timestamp. Orders sharing a
// timestamp are ordered by identifier so the result does not depend on the
// order rows were read in. Stored orders are copied, not modified.
func FilterValid(st *OrderStore, cfg models.Config) []models.Order {
	excluded := make(map[string]bool, len(cfg.ExcludedStatuses))
	for _, s := range cfg.ExcludedStatuses {
		excluded[strings.ToLower(strings.TrimSpace(s))] = true
	}
	// the unset status is always excluded
	excluded[""] = true

	valid := make([]models.Order, 0, len(st.IDs))
	st.Stats.UndatedOrders = 0
	for _, id := range st.IDs {
		o := *st.Orders[id]
		if excluded[o.FinancialStatus] {
			continue
		}
		month, ok := monthOf(o.CreatedAt)
		if !ok {
			st.Stats.UndatedOrders++
			continue
		}
		if month < cfg.StartMonth || month > cfg.EndMonth {
			continue
		}
		o.Month = month
		valid = append(valid, o)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].CreatedAt != valid[j].CreatedAt {
			return valid[i].CreatedAt < valid[j].CreatedAt
		}
		return valid[i].ID < valid[j].ID
	})
	st.Stats.ValidOrders = len(valid)
	return valid
}
