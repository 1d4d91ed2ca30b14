package calculator

import (
	"math"
	"strconv"
	"strings"

	"shop-analytics/pkg/models"
)

// OrderStore is the deduplicated order set of a run, in first-seen order.
type OrderStore struct {
	Orders map[string]*models.Order
	IDs    []string
	// Products maps an order identifier to the product group of its first
	// non-empty line item name.
	Products map[string]string
	Stats    models.Stats
}

// Normalize canonicalizes raw rows and keeps the first row seen per order
// identifier. Later rows of an order only contribute a line item name when
// none was seen yet.
func Normalize(rows []models.RawRow, cfg models.Config) *OrderStore {
	markets := make(map[string]bool, len(cfg.Markets))
	for _, m := range cfg.Markets {
		markets[strings.ToUpper(m)] = true
	}
	products := RuleSet(cfg.ProductRules)

	st := &OrderStore{
		Orders:   make(map[string]*models.Order),
		Products: make(map[string]string),
	}
	excluded := make(map[string]bool)

	for _, row := range rows {
		st.Stats.RowsRead++
		id := strings.TrimSpace(row[models.FieldName])
		if id == "" {
			st.Stats.RowsWithoutID++
			continue
		}
		if isExcludedID(id, cfg.ExcludeIDSubstrings) {
			if !excluded[id] {
				excluded[id] = true
				st.Stats.ExcludedOrders++
			}
			continue
		}

		if _, seen := st.Products[id]; !seen {
			if name := strings.TrimSpace(row[models.FieldLineitemName]); name != "" {
				st.Products[id] = products.MatchOr(name, models.ProductOther)
			}
		}

		if _, seen := st.Orders[id]; seen {
			continue
		}

		tags := strings.TrimSpace(row[models.FieldTags])
		st.Orders[id] = &models.Order{
			ID:              id,
			Email:           strings.ToLower(strings.TrimSpace(row[models.FieldEmail])),
			Market:          normalizeMarket(row[models.FieldShippingCountry], markets),
			CreatedAt:       strings.TrimSpace(row[models.FieldCreatedAt]),
			Total:           parseAmount(row[models.FieldTotal]),
			Subtotal:        parseAmount(row[models.FieldSubtotal]),
			Discount:        parseAmount(row[models.FieldDiscount]),
			Refunded:        parseAmount(row[models.FieldRefunded]),
			FinancialStatus: strings.ToLower(strings.TrimSpace(row[models.FieldFinancialStatus])),
			Tags:            tags,
			IsSubscription:  isSubscription(id, tags, cfg),
		}
		st.IDs = append(st.IDs, id)
	}
	st.Stats.UniqueOrders = len(st.IDs)
	return st
}

func isExcludedID(id string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(id, p) {
			return true
		}
	}
	return false
}

func normalizeMarket(raw string, supported map[string]bool) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if supported[code] {
		return code
	}
	return models.MarketOther
}

func isSubscription(id, tags string, cfg models.Config) bool {
	for _, p := range cfg.SubscriptionPrefixes {
		if p != "" && strings.HasPrefix(id, p) {
			return true
		}
	}
	tag := strings.ToLower(cfg.SubscriptionTag)
	return tag != "" && strings.Contains(strings.ToLower(tags), tag)
}

// parseAmount reads a decimal amount, ignoring thousands separators.
// Anything unreadable is 0.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
