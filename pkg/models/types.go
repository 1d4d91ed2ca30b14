package models

import (
	"time"
)

/*
LOAD → raw rows and auxiliary tables as handed over by the readers.
*/

// RawRow is one physical row of an order export, keyed by column header.
// An order with several line items spans several rows sharing the same Name.
type RawRow map[string]string

// Column headers of the order export.
const (
	FieldName            = "Name"
	FieldEmail           = "Email"
	FieldShippingCountry = "Shipping Country"
	FieldCreatedAt       = "Created at"
	FieldTotal           = "Total"
	FieldSubtotal        = "Subtotal"
	FieldDiscount        = "Discount Amount"
	FieldRefunded        = "Refunded Amount"
	FieldFinancialStatus = "Financial Status"
	FieldTags            = "Tags"
	FieldLineitemName    = "Lineitem name"
)

// MediumLookup maps an order identifier to its acquisition medium.
type MediumLookup map[string]string

// ChannelSessionRow is one (week, channel) line of the session export.
type ChannelSessionRow struct {
	Week        string // Monday, YYYY-MM-DD
	Channel     string
	Sessions    int
	Completions int
}

// LandingSessionRow is one (week, landing path) line of the landing page export.
type LandingSessionRow struct {
	Week     string
	Path     string
	Sessions int
	CartAdds int
}

// Input groups everything a run consumes. A nil auxiliary table means the
// source was absent; an empty non-nil one means it was present but empty.
type Input struct {
	Rows            []RawRow
	Mediums         MediumLookup
	ChannelSessions []ChannelSessionRow
	LandingSessions []LandingSessionRow
}

/*
NORMALIZE → one record per retained order identifier.
*/

// Order holds the normalized attributes of a single order.
type Order struct {
	ID              string
	Email           string // lowercased, empty when anonymous
	Market          string // supported market code or MarketOther
	CreatedAt       string // raw timestamp, used for ordering
	Total           float64
	Subtotal        float64
	Discount        float64
	Refunded        float64
	FinancialStatus string
	Tags            string
	IsSubscription  bool
	Month           string // YYYY-MM, set once the order passes the validity filter
}

// Gross is the pre-discount revenue of the order.
func (o Order) Gross() float64 { return o.Subtotal + o.Discount }

// Net is the subtotal minus refunds.
func (o Order) Net() float64 { return o.Subtotal - o.Refunded }

// TrackedOrder is a valid order annotated by the customer history pass.
type TrackedOrder struct {
	Order
	IsNew  bool
	SubSeq int // 1-based subscription sequence, 0 for one-time orders
}

/*
COMPUTE → output tables.
*/

const (
	MarketAll   = "ALL"
	MarketOther = "OTHER"

	// CohortOffsets is the number of offset slots tracked per cohort (0..12).
	CohortOffsets = 13

	// ProductOther labels sales whose line item matched no product rule.
	ProductOther = "Other"
)

// Acquisition channels.
const (
	ChannelPaid  = "paid"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelFlow  = "flow"
	ChannelNone  = "none"
)

// Channels is the closed channel set in output order.
var Channels = []string{ChannelPaid, ChannelEmail, ChannelSMS, ChannelFlow, ChannelNone}

// MonthlyBucket accumulates one (market, month) cell.
type MonthlyBucket struct {
	Month              string  `json:"m"`
	Gross              float64 `json:"g"`
	Net                float64 `json:"n"`
	Orders             int     `json:"o"`
	NewCustomers       int     `json:"nc"`
	ReturningCustomers int     `json:"rc"`
	Discounts          float64 `json:"d"`
	Refunds            float64 `json:"r"`
	Subscription       int     `json:"sub"`
	OneTime            int     `json:"ot"`
}

// MarketKPI is the whole-window rollup of one market.
type MarketKPI struct {
	Market             string  `json:"market"`
	Name               string  `json:"name"`
	Gross              float64 `json:"gross"`
	Net                float64 `json:"net"`
	Orders             int     `json:"orders"`
	NewCustomers       int     `json:"nc"`
	ReturningCustomers int     `json:"rc"`
	Discounts          float64 `json:"discounts"`
	Refunds            float64 `json:"refunds"`
	AOV                float64 `json:"aov"`
	ReturningRate      float64 `json:"rr"`
	DiscountRate       float64 `json:"dr"`
	RefundRate         float64 `json:"rtr"`
	Subscription       int     `json:"sub"`
	OneTime            int     `json:"ot"`
}

// CohortRow is the offset curve of one market cohort start month.
type CohortRow struct {
	Cohort  string                 `json:"cohort"`
	Revenue [CohortOffsets]float64 `json:"rev"`
	Orders  [CohortOffsets]int     `json:"ord"`
}

// ProductCohort is the offset curve of customers sharing a first product group.
type ProductCohort struct {
	Group   string                 `json:"group"`
	Revenue [CohortOffsets]float64 `json:"rev"`
	Orders  [CohortOffsets]int     `json:"ord"`
}

// ChannelCell is one (week, channel) bucket.
type ChannelCell struct {
	Orders      int     `json:"orders"`
	Revenue     float64 `json:"revenue"`
	Sessions    int     `json:"sessions"`
	Completions int     `json:"completions"`
	CVR         float64 `json:"cvr"`
}

// ChannelWeek holds every channel bucket of a Monday-anchored week.
type ChannelWeek struct {
	Week     string                 `json:"week"`
	Channels map[string]ChannelCell `json:"channels"`
}

// InterestCell is one (product group, week) session funnel cell. CartRate is
// nil when the week had no sessions.
type InterestCell struct {
	Week     string   `json:"week"`
	Sessions int      `json:"sessions"`
	CartAdds int      `json:"atc"`
	CartRate *float64 `json:"atc_rate"`
}

// ProductInterest is the weekly landing page funnel of one product group.
type ProductInterest struct {
	Group         string         `json:"group"`
	TotalSessions int            `json:"sessions"`
	Weeks         []InterestCell `json:"weeks"`
}

// Stats counts what happened to the input during a run.
type Stats struct {
	RowsRead       int `json:"rows_read"`
	RowsWithoutID  int `json:"rows_without_id"`
	UniqueOrders   int `json:"unique_orders"`
	ExcludedOrders int `json:"excluded_orders"`
	UndatedOrders  int `json:"undated_orders"`
	ValidOrders    int `json:"valid_orders"`
}

// Result is everything a run produces.
type Result struct {
	RunID          string                     `json:"run_id"`
	GeneratedAt    time.Time                  `json:"generated_at"`
	Markets        []string                   `json:"markets"`
	Months         []string                   `json:"months"`
	CohortMonths   []string                   `json:"cohort_months"`
	Monthly        map[string][]MonthlyBucket `json:"monthly"`
	KPIs           map[string]MarketKPI       `json:"kpis"`
	MarketCohorts  map[string][]CohortRow     `json:"market_cohorts"`
	ProductCohorts []ProductCohort            `json:"product_cohorts"`
	Funnel         map[string][]int           `json:"funnel"`
	ChannelWeeks   []ChannelWeek              `json:"channel_weeks"`
	Interest       []ProductInterest          `json:"interest"`
	Stats          Stats                      `json:"stats"`
	Warnings       []string                   `json:"warnings,omitempty"`
}

/*
CONFIG → engine parameters
*/

// Rule maps any string containing Pattern (case-insensitive) to Label.
type Rule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Label   string `yaml:"label" json:"label"`
}

// Config contains the parameters passed to the calculation.
type Config struct {
	StartMonth  string // "YYYY-MM"
	EndMonth    string // "YYYY-MM"
	CohortStart string // first month a customer may enter a cohort
	CohortEnd   string
	FunnelDepth int

	Markets              []string // supported market codes, ALL excluded
	ExcludeIDSubstrings  []string
	SubscriptionPrefixes []string
	SubscriptionTag      string
	ExcludedStatuses     []string

	ChannelWeeks  int
	ChannelAnchor string // "YYYY-MM-DD", empty = week of the latest valid order
	MediumRules   []Rule

	ProductRules        []Rule
	InterestMinSessions int

	Verbose bool // show pass progress
}
