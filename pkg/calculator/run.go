package calculator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"shop-analytics/pkg/logging"
	"shop-analytics/pkg/models"
)

var (
	ErrNoOrders      = errors.New("no order rows")
	ErrNoIdentifiers = errors.New("no order row carries an identifier")
	ErrNoTimestamps  = errors.New("no order carries a readable creation month")
)

// Run computes every output table from one input set.
//
// Normalization, filtering and the customer history pass run in sequence.
// The passes reading the annotated orders are independent of each other and
// run concurrently, each owning the part of the result it fills.
func Run(ctx context.Context, in models.Input, cfg models.Config, logger *slog.Logger) (*models.Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.Markets = upperAll(cfg.Markets)

	months, err := monthRange(cfg.StartMonth, cfg.EndMonth)
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	cohortMonths, err := monthRange(cfg.CohortStart, cfg.CohortEnd)
	if err != nil {
		return nil, fmt.Errorf("cohort window: %w", err)
	}
	if cfg.FunnelDepth <= 0 {
		return nil, fmt.Errorf("funnel depth must be positive, got %d", cfg.FunnelDepth)
	}
	if len(in.Rows) == 0 {
		return nil, ErrNoOrders
	}

	st := Normalize(in.Rows, cfg)
	if st.Stats.RowsWithoutID == st.Stats.RowsRead {
		return nil, ErrNoIdentifiers
	}
	if len(st.IDs) > 0 && !anyDated(st) {
		return nil, ErrNoTimestamps
	}
	valid := FilterValid(st, cfg)
	tracked := TrackHistory(valid)
	logger.Debug("orders prepared",
		"rows", st.Stats.RowsRead,
		"unique", st.Stats.UniqueOrders,
		"excluded", st.Stats.ExcludedOrders,
		"valid", st.Stats.ValidOrders)

	res := &models.Result{
		RunID:        uuid.New().String(),
		GeneratedAt:  time.Now().UTC(),
		Markets:      marketKeys(cfg.Markets),
		Months:       months,
		CohortMonths: cohortMonths,
		Stats:        st.Stats,
	}

	var channelWarnings []string
	passes := []struct {
		name string
		run  func()
	}{
		{"monthly", func() {
			res.Monthly = AggregateMonthly(tracked, cfg.Markets, months)
			res.KPIs = SummarizeKPIs(res.Monthly)
		}},
		{"market cohorts", func() {
			res.MarketCohorts = MarketCohorts(tracked, cfg, cohortMonths)
		}},
		{"product cohorts", func() {
			res.ProductCohorts = ProductCohorts(tracked, cfg, st.Products)
		}},
		{"retention funnel", func() {
			res.Funnel = RetentionFunnel(tracked, cfg.Markets, cfg.FunnelDepth)
		}},
		{"channels", func() {
			res.ChannelWeeks, channelWarnings = AttributeChannels(tracked, in, cfg)
		}},
		{"product interest", func() {
			res.Interest = MapInterest(in.LandingSessions, RuleSet(cfg.ProductRules), cfg.InterestMinSessions)
		}},
	}

	bar := logging.NewProgress(len(passes), "aggregating", cfg.Verbose)
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range passes {
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.run()
			_ = bar.Add(1)
			logger.Debug("pass done", "pass", p.name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}

	res.Warnings = append(res.Warnings, channelWarnings...)
	if in.LandingSessions == nil {
		res.Warnings = append(res.Warnings, "landing page export absent: product interest table empty")
	}
	for _, w := range res.Warnings {
		logger.Warn(w)
	}
	return res, nil
}

func anyDated(st *OrderStore) bool {
	for _, id := range st.IDs {
		if _, ok := monthOf(st.Orders[id].CreatedAt); ok {
			return true
		}
	}
	return false
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
