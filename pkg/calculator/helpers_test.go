package calculator

import (
	"shop-analytics/pkg/models"
)

func testConfig() models.Config {
	return models.Config{
		StartMonth:           "2024-01",
		EndMonth:             "2024-12",
		CohortStart:          "2024-01",
		CohortEnd:            "2024-12",
		FunnelDepth:          8,
		Markets:              []string{"US", "GB", "DE", "NL", "CA"},
		ExcludeIDSubstrings:  []string{"_E"},
		SubscriptionPrefixes: []string{"#U"},
		SubscriptionTag:      "subscription",
		ExcludedStatuses:     []string{"voided", "pending", ""},
		ChannelWeeks:         4,
		MediumRules:          DefaultMediumRules,
		ProductRules:         DefaultProductRules,
		InterestMinSessions:  200,
	}
}

// order describes one export row; unset status means "paid".
type order struct {
	id, email, market, created string
	subtotal, discount, refunded string
	status, tags, item            string
}

func (o order) raw() models.RawRow {
	status := o.status
	if status == "" {
		status = "paid"
	}
	if status == "-" {
		status = ""
	}
	return models.RawRow{
		models.FieldName:            o.id,
		models.FieldEmail:           o.email,
		models.FieldShippingCountry: o.market,
		models.FieldCreatedAt:       o.created,
		models.FieldSubtotal:        o.subtotal,
		models.FieldDiscount:        o.discount,
		models.FieldRefunded:        o.refunded,
		models.FieldFinancialStatus: status,
		models.FieldTags:            o.tags,
		models.FieldLineitemName:    o.item,
	}
}

func rawRows(orders ...order) []models.RawRow {
	rows := make([]models.RawRow, len(orders))
	for i, o := range orders {
		rows[i] = o.raw()
	}
	return rows
}

// track runs the sequential part of the pipeline.
func track(cfg models.Config, orders ...order) ([]models.TrackedOrder, *OrderStore) {
	st := Normalize(rawRows(orders...), cfg)
	return TrackHistory(FilterValid(st, cfg)), st
}

// subscriber returns three monthly subscription orders of one customer.
func subscriber(email, market string) []order {
	return []order{
		{id: "#U1-" + email, email: email, market: market, created: "2024-03-10 09:00:00 +0000", subtotal: "100"},
		{id: "#U2-" + email, email: email, market: market, created: "2024-04-10 09:00:00 +0000", subtotal: "100"},
		{id: "#U3-" + email, email: email, market: market, created: "2024-05-10 09:00:00 +0000", subtotal: "100"},
	}
}
