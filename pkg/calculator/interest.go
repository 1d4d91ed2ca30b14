package calculator

import (
	"sort"
	"strings"

	"shop-analytics/pkg/models"
)

// slugFromPath extracts the product slug of a landing page path:
// "/products/starter-kit?variant=1" -> "starter-kit". Paths without a
// products segment use their last segment.
func slugFromPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.Trim(strings.ToLower(path), "/"), "/")
	for i, p := range parts {
		if p == "products" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return parts[len(parts)-1]
}

// MapInterest aggregates landing page sessions and cart additions per
// (product group, week). Rows whose slug matches no rule are dropped. Groups
// below minSessions in total are left out; the rest are ranked by total
// sessions. Each group lists every week seen, oldest first, and a week
// without sessions has no cart rate.
func MapInterest(rows []models.LandingSessionRow, rules RuleSet, minSessions int) []models.ProductInterest {
	type cell struct{ sessions, carts int }
	cells := make(map[string]map[string]*cell)
	totals := make(map[string]int)
	weekSet := make(map[string]bool)

	for _, row := range rows {
		wk, ok := weekOf(strings.TrimSpace(row.Week))
		if !ok {
			continue
		}
		group, ok := rules.Match(slugFromPath(row.Path))
		if !ok {
			continue
		}
		week := formatDay(wk)
		weekSet[week] = true
		byWeek, ok := cells[group]
		if !ok {
			byWeek = make(map[string]*cell)
			cells[group] = byWeek
		}
		c, ok := byWeek[week]
		if !ok {
			c = &cell{}
			byWeek[week] = c
		}
		c.sessions += row.Sessions
		c.carts += row.CartAdds
		totals[group] += row.Sessions
	}

	weeks := make([]string, 0, len(weekSet))
	for w := range weekSet {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)

	var out []models.ProductInterest
	for group, byWeek := range cells {
		if totals[group] < minSessions {
			continue
		}
		pi := models.ProductInterest{Group: group, TotalSessions: totals[group]}
		for _, w := range weeks {
			ic := models.InterestCell{Week: w}
			if c, ok := byWeek[w]; ok {
				ic.Sessions = c.sessions
				ic.CartAdds = c.carts
			}
			if ic.Sessions > 0 {
				rate := float64(ic.CartAdds) / float64(ic.Sessions) * 100
				ic.CartRate = &rate
			}
			pi.Weeks = append(pi.Weeks, ic)
		}
		out = append(out, pi)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSessions != out[j].TotalSessions {
			return out[i].TotalSessions > out[j].TotalSessions
		}
		return out[i].Group < out[j].Group
	})
	return out
}
