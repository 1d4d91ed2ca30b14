package calculator

import (
	"sort"

	"shop-analytics/pkg/models"
)

type cohortEntry struct {
	start  string // cohort month
	market string
	group  string
}

// cohortEntries finds, per customer, the first-subscription order that puts
// them in a cohort. Only identified customers whose sequence-1 order falls in
// the cohort window enter.
func cohortEntries(orders []models.TrackedOrder, cfg models.Config, products map[string]string) map[string]cohortEntry {
	entries := make(map[string]cohortEntry)
	for _, o := range orders {
		if o.Email == "" || !o.IsSubscription || o.SubSeq != 1 {
			continue
		}
		if _, ok := entries[o.Email]; ok {
			continue
		}
		if o.Month < cfg.CohortStart || o.Month > cfg.CohortEnd {
			continue
		}
		group, ok := products[o.ID]
		if !ok {
			group = models.ProductOther
		}
		entries[o.Email] = cohortEntry{start: o.Month, market: o.Market, group: group}
	}
	return entries
}

// MarketCohorts builds revenue and order curves per (market, cohort month).
// Each subscription order of a cohort member lands in the slot of its
// calendar month distance from the cohort start; distances outside 0..12 are
// dropped. Every cohort month of the window is listed for every market key.
func MarketCohorts(orders []models.TrackedOrder, cfg models.Config, cohortMonths []string) map[string][]models.CohortRow {
	entries := cohortEntries(orders, cfg, nil)

	index := make(map[string]int, len(cohortMonths))
	for i, m := range cohortMonths {
		index[m] = i
	}
	out := make(map[string][]models.CohortRow, len(cfg.Markets)+1)
	for _, key := range marketKeys(cfg.Markets) {
		rows := make([]models.CohortRow, len(cohortMonths))
		for i, m := range cohortMonths {
			rows[i].Cohort = m
		}
		out[key] = rows
	}

	for _, o := range orders {
		if o.Email == "" || !o.IsSubscription {
			continue
		}
		e, ok := entries[o.Email]
		if !ok {
			continue
		}
		offset := monthsOffset(e.start, o.Month)
		if offset < 0 || offset >= models.CohortOffsets {
			continue
		}
		i, ok := index[e.start]
		if !ok {
			continue
		}
		for _, key := range destinations(e.market) {
			rows, ok := out[key]
			if !ok {
				continue
			}
			rows[i].Revenue[offset] += o.Gross()
			rows[i].Orders[offset]++
		}
	}
	return out
}

// ProductCohorts builds curves per first-subscription product group. The slot
// is the subscription sequence minus one, so it counts renewals rather than
// months; sequences past the horizon are dropped. Groups are ranked by their
// offset-0 order volume, largest first.
func ProductCohorts(orders []models.TrackedOrder, cfg models.Config, products map[string]string) []models.ProductCohort {
	entries := cohortEntries(orders, cfg, products)

	byGroup := make(map[string]*models.ProductCohort)
	for _, o := range orders {
		if o.Email == "" || !o.IsSubscription {
			continue
		}
		e, ok := entries[o.Email]
		if !ok {
			continue
		}
		offset := o.SubSeq - 1
		if offset < 0 || offset >= models.CohortOffsets {
			continue
		}
		pc, ok := byGroup[e.group]
		if !ok {
			pc = &models.ProductCohort{Group: e.group}
			byGroup[e.group] = pc
		}
		pc.Revenue[offset] += o.Gross()
		pc.Orders[offset]++
	}

	out := make([]models.ProductCohort, 0, len(byGroup))
	for _, pc := range byGroup {
		out = append(out, *pc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Orders[0] != out[j].Orders[0] {
			return out[i].Orders[0] > out[j].Orders[0]
		}
		return out[i].Group < out[j].Group
	})
	return out
}

// RetentionFunnel counts, per market key and depth d (1-based, index d-1),
// the subscribers that reached at least d subscription orders. A customer's
// market is the one of their first subscription order.
func RetentionFunnel(orders []models.TrackedOrder, markets []string, depth int) map[string][]int {
	type subscriber struct {
		market string
		maxSeq int
	}
	subs := make(map[string]*subscriber)
	var emails []string
	for _, o := range orders {
		if o.Email == "" || !o.IsSubscription || o.SubSeq == 0 {
			continue
		}
		s, ok := subs[o.Email]
		if !ok {
			s = &subscriber{market: o.Market}
			subs[o.Email] = s
			emails = append(emails, o.Email)
		}
		if o.SubSeq > s.maxSeq {
			s.maxSeq = o.SubSeq
		}
	}

	out := make(map[string][]int, len(markets)+1)
	for _, key := range marketKeys(markets) {
		out[key] = make([]int, depth)
	}
	for _, em := range emails {
		s := subs[em]
		reached := min(s.maxSeq, depth)
		for _, key := range destinations(s.market) {
			funnel, ok := out[key]
			if !ok {
				continue
			}
			for d := 0; d < reached; d++ {
				funnel[d]++
			}
		}
	}
	return out
}
