package calculator

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-analytics/pkg/models"
	"shop-analytics/pkg/report"
)

func sampleInput() models.Input {
	var orders []order
	orders = append(orders, subscriber("a@x.com", "US")...)
	orders = append(orders, subscriber("b@x.com", "GB")...)
	orders = append(orders,
		order{id: "#10", email: "a@x.com", market: "US", created: "2024-06-01 08:00:00", subtotal: "1,250.00", item: "Bundle of three"},
		order{id: "#10", item: "Refill"},
		order{id: "#11", email: "c@x.com", market: "FR", created: "2024-06-02 08:00:00", subtotal: "40", refunded: "40"},
		order{id: "#12_E", email: "d@x.com", market: "US", created: "2023-02-01 00:00:00", subtotal: "500"},
		order{id: "#13", email: "e@x.com", market: "US", created: "2024-06-03 08:00:00", subtotal: "10", status: "voided"},
		order{id: "", subtotal: "10"},
	)
	return models.Input{
		Rows:    rawRows(orders...),
		Mediums: models.MediumLookup{"#10": "cpc"},
		ChannelSessions: []models.ChannelSessionRow{
			{Week: "2024-05-27", Channel: "paid", Sessions: 100, Completions: 7},
		},
		LandingSessions: []models.LandingSessionRow{
			{Week: "2024-05-27", Path: "/products/bundle", Sessions: 250, CartAdds: 25},
		},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig()

	res, err := Run(context.Background(), sampleInput(), cfg, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"ALL", "US", "GB", "DE", "NL", "CA"}, res.Markets)
	assert.Len(t, res.Months, 12)

	assert.Equal(t, models.Stats{
		RowsRead:       12,
		RowsWithoutID:  1,
		UniqueOrders:   9,
		ExcludedOrders: 1,
		UndatedOrders:  0,
		ValidOrders:    8,
	}, res.Stats)

	assert.Equal(t, 8, res.KPIs["ALL"].Orders)
	assert.Equal(t, 4, res.KPIs["US"].Orders)
	assert.Equal(t, 3, res.KPIs["GB"].Orders)
	assert.Equal(t, 6, res.KPIs["ALL"].Subscription)
	assert.Equal(t, 2, res.KPIs["ALL"].OneTime)

	june := res.Monthly["US"][5]
	assert.Equal(t, "2024-06", june.Month)
	assert.Equal(t, 1250.0, june.Gross)
	assert.Equal(t, 1, june.ReturningCustomers)

	assert.Equal(t, []int{2, 2, 2, 0, 0, 0, 0, 0}, res.Funnel["ALL"])
	require.NotEmpty(t, res.ProductCohorts)
	assert.Equal(t, models.ProductOther, res.ProductCohorts[0].Group)

	require.NotEmpty(t, res.ChannelWeeks)
	assert.Equal(t, "2024-05-27", res.ChannelWeeks[0].Week)
	assert.Equal(t, 1, res.ChannelWeeks[0].Channels[models.ChannelPaid].Orders)
	assert.InDelta(t, 7.0, res.ChannelWeeks[0].Channels[models.ChannelPaid].CVR, 1e-9)
	assert.Equal(t, 1, res.ChannelWeeks[0].Channels[models.ChannelNone].Orders)

	require.Len(t, res.Interest, 1)
	assert.Equal(t, "Bundles", res.Interest[0].Group)
	assert.Empty(t, res.Warnings)
}

func TestRun_ExcludedOrdersNeverReported(t *testing.T) {
	cfg := testConfig()
	cfg.StartMonth = "2023-01"
	cfg.CohortStart = "2023-01"

	res, err := Run(context.Background(), sampleInput(), cfg, nil)
	require.NoError(t, err)

	feb := res.Monthly["ALL"][1]
	assert.Equal(t, "2023-02", feb.Month)
	assert.Zero(t, feb.Orders)
}

func TestRun_Deterministic(t *testing.T) {
	cfg := testConfig()
	encode := func() string {
		res, err := Run(context.Background(), sampleInput(), cfg, nil)
		require.NoError(t, err)
		tables := report.Tables(res)
		var buf bytes.Buffer
		require.NoError(t, report.Encode(&buf, &tables))
		return buf.String()
	}

	first := encode()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, encode())
	}
}

func TestRun_MissingAuxiliaryInputs(t *testing.T) {
	in := sampleInput()
	in.Mediums = nil
	in.ChannelSessions = nil
	in.LandingSessions = nil

	res, err := Run(context.Background(), in, testConfig(), nil)
	require.NoError(t, err)

	assert.Len(t, res.Warnings, 3)
	assert.Empty(t, res.Interest)
	assert.NotEmpty(t, res.ChannelWeeks)
	assert.Equal(t, 8, res.KPIs["ALL"].Orders)
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	_, err := Run(ctx, models.Input{}, cfg, nil)
	assert.ErrorIs(t, err, ErrNoOrders)

	_, err = Run(ctx, models.Input{Rows: rawRows(order{subtotal: "1"}, order{id: " "})}, cfg, nil)
	assert.ErrorIs(t, err, ErrNoIdentifiers)

	_, err = Run(ctx, models.Input{Rows: rawRows(order{id: "#1", created: "yesterday"})}, cfg, nil)
	assert.ErrorIs(t, err, ErrNoTimestamps)

	bad := cfg
	bad.EndMonth = "2023-12"
	_, err = Run(ctx, sampleInput(), bad, nil)
	assert.ErrorContains(t, err, "window")

	bad = cfg
	bad.FunnelDepth = 0
	_, err = Run(ctx, sampleInput(), bad, nil)
	assert.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, sampleInput(), testConfig(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
