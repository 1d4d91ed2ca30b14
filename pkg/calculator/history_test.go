package calculator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-analytics/pkg/models"
)

func TestFilterValid(t *testing.T) {
	cfg := testConfig()
	st := Normalize(rawRows(
		order{id: "#1", created: "2024-05-01 10:00:00"},
		order{id: "#2", created: "2024-02-01 10:00:00", status: "voided"},
		order{id: "#3", created: "2024-02-01 10:00:00", status: "Pending"},
		order{id: "#4", created: "2024-02-01 10:00:00", status: "-"},
		order{id: "#5", created: "2023-12-31 23:59:59"},
		order{id: "#6", created: "2025-01-01 00:00:00"},
		order{id: "#7", created: "not a date"},
		order{id: "#8", created: "2024-01-01 00:00:00", status: "refunded"},
		order{id: "#9", created: "2024-12-31 23:59:59", status: "partially_refunded"},
	), cfg)

	valid := FilterValid(st, cfg)

	ids := make([]string, len(valid))
	for i, o := range valid {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"#8", "#1", "#9"}, ids)
	assert.Equal(t, "2024-01", valid[0].Month)
	assert.Equal(t, 1, st.Stats.UndatedOrders)
	assert.Equal(t, 3, st.Stats.ValidOrders)
	assert.Empty(t, st.Orders["#1"].Month, "store is not modified")
}

func TestFilterValid_TiesOrderedByID(t *testing.T) {
	cfg := testConfig()
	st := Normalize(rawRows(
		order{id: "#B", created: "2024-05-01 10:00:00"},
		order{id: "#A", created: "2024-05-01 10:00:00"},
	), cfg)

	valid := FilterValid(st, cfg)
	require.Len(t, valid, 2)
	assert.Equal(t, "#A", valid[0].ID)
}

func TestTrackHistory_SubscriptionSequence(t *testing.T) {
	tracked, _ := track(testConfig(), subscriber("a@x.com", "US")...)

	require.Len(t, tracked, 3)
	assert.Equal(t, 1, tracked[0].SubSeq)
	assert.Equal(t, 2, tracked[1].SubSeq)
	assert.Equal(t, 3, tracked[2].SubSeq)
	assert.True(t, tracked[0].IsNew)
	assert.False(t, tracked[1].IsNew)
	assert.False(t, tracked[2].IsNew)
}

func TestTrackHistory_UsesChronologyNotInputOrder(t *testing.T) {
	rows := subscriber("a@x.com", "US")
	// latest order read first
	rows[0], rows[2] = rows[2], rows[0]

	tracked, _ := track(testConfig(), rows...)
	require.Len(t, tracked, 3)
	assert.Equal(t, "2024-03", tracked[0].Month)
	assert.Equal(t, 1, tracked[0].SubSeq)
	assert.True(t, tracked[0].IsNew)
	assert.Equal(t, 3, tracked[2].SubSeq)
}

func TestTrackHistory_OneTimeOrders(t *testing.T) {
	tracked, _ := track(testConfig(),
		order{id: "#1", email: "b@x.com", created: "2024-02-01"},
		order{id: "#U2", email: "b@x.com", created: "2024-03-01"},
		order{id: "#3", email: "b@x.com", created: "2024-04-01"},
		order{id: "#U4", email: "b@x.com", created: "2024-05-01"},
	)

	seqs := []int{tracked[0].SubSeq, tracked[1].SubSeq, tracked[2].SubSeq, tracked[3].SubSeq}
	assert.Equal(t, []int{0, 1, 0, 2}, seqs)
	assert.True(t, tracked[0].IsNew)
	assert.False(t, tracked[1].IsNew)
}

func TestTrackHistory_Anonymous(t *testing.T) {
	tracked, _ := track(testConfig(),
		order{id: "#U1", created: "2024-02-01"},
		order{id: "#U2", created: "2024-03-01"},
		order{id: "#3", created: "2024-04-01"},
	)

	for _, o := range tracked {
		assert.False(t, o.IsNew, "anonymous order %s is never new", o.ID)
	}
	// each anonymous subscription is its own sequence
	assert.Equal(t, 1, tracked[0].SubSeq)
	assert.Equal(t, 1, tracked[1].SubSeq)
	assert.Equal(t, 0, tracked[2].SubSeq)
}

func TestTrackHistory_PermutedInputSameResult(t *testing.T) {
	cfg := testConfig()
	var orders []order
	orders = append(orders, subscriber("a@x.com", "US")...)
	orders = append(orders, subscriber("b@x.com", "GB")...)
	orders = append(orders,
		order{id: "#10", email: "a@x.com", created: "2024-03-10 09:00:00 +0000"},
		order{id: "#11", email: "c@x.com", created: "2024-03-10 09:00:00 +0000"},
	)
	want, _ := track(cfg, orders...)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]order(nil), orders...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, _ := track(cfg, shuffled...)
		require.Equal(t, want, got)
	}
}

func TestTrackHistory_DoesNotMutateInput(t *testing.T) {
	in := []models.Order{{ID: "#U1", Email: "a@x.com", IsSubscription: true, Month: "2024-01"}}
	_ = TrackHistory(in)
	assert.Equal(t, "#U1", in[0].ID)
}
