package calculator

import (
	"shop-analytics/pkg/models"
)

var marketNames = map[string]string{
	models.MarketAll: "All Markets",
	"US":             "United States",
	"GB":             "United Kingdom",
	"DE":             "Germany",
	"NL":             "Netherlands",
	"CA":             "Canada",
}

// marketKeys is ALL followed by the supported markets.
func marketKeys(markets []string) []string {
	keys := make([]string, 0, len(markets)+1)
	keys = append(keys, models.MarketAll)
	for _, m := range markets {
		if m != models.MarketAll && m != models.MarketOther {
			keys = append(keys, m)
		}
	}
	return keys
}

// destinations lists the market keys an order of the given market feeds.
// OTHER orders only count toward ALL.
func destinations(market string) []string {
	if market == models.MarketOther || market == "" {
		return []string{models.MarketAll}
	}
	return []string{models.MarketAll, market}
}

// AggregateMonthly buckets orders by (market, month). Every month of the
// window is present for every market key, zero when nothing was sold.
func AggregateMonthly(orders []models.TrackedOrder, markets, months []string) map[string][]models.MonthlyBucket {
	index := make(map[string]int, len(months))
	for i, m := range months {
		index[m] = i
	}
	out := make(map[string][]models.MonthlyBucket, len(markets)+1)
	for _, key := range marketKeys(markets) {
		buckets := make([]models.MonthlyBucket, len(months))
		for i, m := range months {
			buckets[i].Month = m
		}
		out[key] = buckets
	}

	for _, o := range orders {
		i, ok := index[o.Month]
		if !ok {
			continue
		}
		for _, key := range destinations(o.Market) {
			buckets, ok := out[key]
			if !ok {
				continue
			}
			b := &buckets[i]
			b.Gross += o.Gross()
			b.Net += o.Net()
			b.Orders++
			b.Discounts += o.Discount
			b.Refunds += o.Refunded
			if o.IsNew {
				b.NewCustomers++
			} else {
				b.ReturningCustomers++
			}
			if o.IsSubscription {
				b.Subscription++
			} else {
				b.OneTime++
			}
		}
	}
	return out
}

// SummarizeKPIs rolls the monthly buckets of each market up over the window.
func SummarizeKPIs(monthly map[string][]models.MonthlyBucket) map[string]models.MarketKPI {
	out := make(map[string]models.MarketKPI, len(monthly))
	for market, buckets := range monthly {
		k := models.MarketKPI{Market: market, Name: marketNames[market]}
		if k.Name == "" {
			k.Name = market
		}
		for _, b := range buckets {
			k.Gross += b.Gross
			k.Net += b.Net
			k.Orders += b.Orders
			k.NewCustomers += b.NewCustomers
			k.ReturningCustomers += b.ReturningCustomers
			k.Discounts += b.Discounts
			k.Refunds += b.Refunds
			k.Subscription += b.Subscription
			k.OneTime += b.OneTime
		}
		k.AOV = ratio(k.Gross, float64(k.Orders))
		k.ReturningRate = percent(float64(k.ReturningCustomers), float64(k.NewCustomers+k.ReturningCustomers))
		k.DiscountRate = percent(k.Discounts, k.Gross)
		k.RefundRate = percent(k.Refunds, k.Gross)
		out[market] = k
	}
	return out
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func percent(num, den float64) float64 {
	return ratio(num, den) * 100
}
