package calculator

import (
	"strings"

	"shop-analytics/pkg/models"
)

// RuleSet is an ordered rule table evaluated first-match-wins.
type RuleSet []models.Rule

// Match returns the label of the first rule whose pattern occurs in s.
// Matching ignores case and treats '-' and '_' like spaces, so the same
// table serves line item names ("Starter Kit") and URL slugs ("starter-kit").
func (rs RuleSet) Match(s string) (string, bool) {
	norm := normalizeForMatch(s)
	if norm == "" {
		return "", false
	}
	for _, r := range rs {
		p := normalizeForMatch(r.Pattern)
		if p != "" && strings.Contains(norm, p) {
			return r.Label, true
		}
	}
	return "", false
}

// MatchOr is Match with a fallback label.
func (rs RuleSet) MatchOr(s, fallback string) string {
	if label, ok := rs.Match(s); ok {
		return label
	}
	return fallback
}

var matchReplacer = strings.NewReplacer("-", " ", "_", " ")

func normalizeForMatch(s string) string {
	return strings.TrimSpace(matchReplacer.Replace(strings.ToLower(s)))
}

// DefaultMediumRules classify acquisition media into channels. Flow media
// are checked before email since flow mediums usually mention email too.
var DefaultMediumRules = []models.Rule{
	{Pattern: "flow", Label: models.ChannelFlow},
	{Pattern: "automation", Label: models.ChannelFlow},
	{Pattern: "email", Label: models.ChannelEmail},
	{Pattern: "newsletter", Label: models.ChannelEmail},
	{Pattern: "klaviyo", Label: models.ChannelEmail},
	{Pattern: "sms", Label: models.ChannelSMS},
	{Pattern: "cpc", Label: models.ChannelPaid},
	{Pattern: "ppc", Label: models.ChannelPaid},
	{Pattern: "paid", Label: models.ChannelPaid},
	{Pattern: "display", Label: models.ChannelPaid},
}

// DefaultProductRules group product names and slugs.
var DefaultProductRules = []models.Rule{
	{Pattern: "starter kit", Label: "Starter Kit"},
	{Pattern: "bundle", Label: "Bundles"},
	{Pattern: "refill", Label: "Refills"},
	{Pattern: "gift card", Label: "Gift Cards"},
}
