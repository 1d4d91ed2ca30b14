package calculator

import (
	"fmt"
	"strings"
	"time"

	"shop-analytics/pkg/models"
)

var knownChannels = func() map[string]bool {
	m := make(map[string]bool, len(models.Channels))
	for _, c := range models.Channels {
		m[c] = true
	}
	return m
}()

// ClassifyChannel maps an acquisition medium to a channel. Media matching no
// rule, or a rule with a label outside the channel set, fall to none.
func ClassifyChannel(medium string, rules RuleSet) string {
	label, ok := rules.Match(medium)
	if !ok || !knownChannels[label] {
		return models.ChannelNone
	}
	return label
}

// AttributeChannels buckets orders into (week, channel) cells over a rolling
// window of Monday-anchored weeks and joins session counts onto them. The
// window ends at cfg.ChannelAnchor, or at the week of the latest dated order.
// Weeks come out most recent first. Missing lookups degrade to warnings.
func AttributeChannels(orders []models.TrackedOrder, in models.Input, cfg models.Config) ([]models.ChannelWeek, []string) {
	var warnings []string
	if in.Mediums == nil {
		warnings = append(warnings, "medium lookup absent: every order attributed to channel none")
	}
	if in.ChannelSessions == nil {
		warnings = append(warnings, "channel session export absent: sessions and conversion reported as zero")
	}

	anchor, ok := channelAnchor(orders, cfg.ChannelAnchor)
	if !ok {
		return nil, append(warnings, "no dated orders and no anchor: weekly channel table empty")
	}
	weeks := cfg.ChannelWeeks
	if weeks <= 0 {
		return nil, warnings
	}

	out := make([]models.ChannelWeek, weeks)
	index := make(map[string]int, weeks)
	for i := 0; i < weeks; i++ {
		w := formatDay(anchor.AddDate(0, 0, -7*i))
		out[i] = models.ChannelWeek{Week: w, Channels: make(map[string]models.ChannelCell, len(models.Channels))}
		for _, c := range models.Channels {
			out[i].Channels[c] = models.ChannelCell{}
		}
		index[w] = i
	}

	rules := RuleSet(cfg.MediumRules)
	for _, o := range orders {
		wk, ok := weekOf(o.CreatedAt)
		if !ok {
			continue
		}
		i, ok := index[formatDay(wk)]
		if !ok {
			continue
		}
		channel := models.ChannelNone
		if in.Mediums != nil {
			channel = ClassifyChannel(in.Mediums[o.ID], rules)
		}
		cell := out[i].Channels[channel]
		cell.Orders++
		cell.Revenue += o.Gross()
		out[i].Channels[channel] = cell
	}

	unmatched := 0
	for _, row := range in.ChannelSessions {
		i, ok := index[strings.TrimSpace(row.Week)]
		channel := strings.ToLower(strings.TrimSpace(row.Channel))
		if !ok || !knownChannels[channel] {
			unmatched++
			continue
		}
		cell := out[i].Channels[channel]
		cell.Sessions += row.Sessions
		cell.Completions += row.Completions
		out[i].Channels[channel] = cell
	}
	if unmatched > 0 {
		warnings = append(warnings, fmt.Sprintf("%d channel session rows matched no (week, channel) bucket", unmatched))
	}

	for i := range out {
		for c, cell := range out[i].Channels {
			cell.CVR = 0
			if cell.Sessions > 0 {
				cell.CVR = float64(cell.Completions) / float64(cell.Sessions) * 100
			}
			out[i].Channels[c] = cell
		}
	}
	return out, warnings
}

func channelAnchor(orders []models.TrackedOrder, configured string) (time.Time, bool) {
	if configured != "" {
		return weekOf(configured)
	}
	var latest time.Time
	found := false
	for _, o := range orders {
		wk, ok := weekOf(o.CreatedAt)
		if !ok {
			continue
		}
		if !found || wk.After(latest) {
			latest = wk
			found = true
		}
	}
	return latest, found
}
