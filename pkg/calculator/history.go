package calculator

import (
	"shop-analytics/pkg/models"
)

// TrackHistory walks valid orders in chronological order and marks each one
// new or returning, numbering subscription orders per customer.
//
// The input must already be sorted by creation timestamp (see FilterValid);
// the first-order and sequence state depends on it.
//
// Anonymous orders are never new. An anonymous subscription order always
// gets sequence 1, as guest checkouts cannot be linked to earlier orders.
func TrackHistory(orders []models.Order) []models.TrackedOrder {
	firstSeen := make(map[string]string)
	subSeq := make(map[string]int)

	out := make([]models.TrackedOrder, len(orders))
	for i, o := range orders {
		t := models.TrackedOrder{Order: o}
		if o.Email != "" {
			if _, ok := firstSeen[o.Email]; !ok {
				t.IsNew = true
				firstSeen[o.Email] = o.Month
			}
			if o.IsSubscription {
				subSeq[o.Email]++
				t.SubSeq = subSeq[o.Email]
			}
		} else if o.IsSubscription {
			t.SubSeq = 1
		}
		out[i] = t
	}
	return out
}
