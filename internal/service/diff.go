package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/offer-tracker/internal/models"
)

// FieldChange records one tracked field moving between consecutive snapshots
type FieldChange struct {
	Field     string
	Label     string
	Direction string
	Old       string
	New       string
}

// String renders the change in the digest form "<label> <direction> <old> → <new>"
func (c FieldChange) String() string {
	return fmt.Sprintf("%s %s %s → %s", c.Label, c.Direction, c.Old, c.New)
}

// ComputeDiff compares two consecutive snapshots of the same offer and returns
// the tracked fields that moved, in a fixed field order. An empty result means
// the observation matched the previous one.
func ComputeDiff(prev, next *models.OfferSnapshot) []FieldChange {
	var changes []FieldChange

	if prev.BonusPoints != next.BonusPoints {
		changes = append(changes, FieldChange{
			Field:     "bonusPoints",
			Label:     "Bonus",
			Direction: direction(next.BonusPoints > prev.BonusPoints),
			Old:       formatPoints(prev.BonusPoints),
			New:       formatPoints(next.BonusPoints),
		})
	}

	if !prev.MinSpendAmount.Equal(next.MinSpendAmount) {
		changes = append(changes, FieldChange{
			Field:     "minSpendAmount",
			Label:     "min spend",
			Direction: direction(next.MinSpendAmount.GreaterThan(prev.MinSpendAmount)),
			Old:       formatMoney(prev.MinSpendAmount),
			New:       formatMoney(next.MinSpendAmount),
		})
	}

	if prev.MinSpendWindowDays != next.MinSpendWindowDays {
		changes = append(changes, FieldChange{
			Field:     "minSpendWindowDays",
			Label:     "Spend window",
			Direction: direction(next.MinSpendWindowDays > prev.MinSpendWindowDays),
			Old:       fmt.Sprintf("%d days", prev.MinSpendWindowDays),
			New:       fmt.Sprintf("%d days", next.MinSpendWindowDays),
		})
	}

	if !prev.AnnualFee.Equal(next.AnnualFee) {
		changes = append(changes, FieldChange{
			Field:     "annualFee",
			Label:     "Annual fee",
			Direction: direction(next.AnnualFee.GreaterThan(prev.AnnualFee)),
			Old:       formatMoney(prev.AnnualFee),
			New:       formatMoney(next.AnnualFee),
		})
	}

	if !prev.StatementCredits.Equal(next.StatementCredits) {
		changes = append(changes, FieldChange{
			Field:     "statementCredits",
			Label:     "Statement credits",
			Direction: direction(next.StatementCredits.GreaterThan(prev.StatementCredits)),
			Old:       formatMoney(prev.StatementCredits),
			New:       formatMoney(next.StatementCredits),
		})
	}

	if !equalDates(prev.ExpiresOn, next.ExpiresOn) {
		changes = append(changes, FieldChange{
			Field:     "expiresOn",
			Label:     "Expiration",
			Direction: "changed",
			Old:       formatDate(prev.ExpiresOn),
			New:       formatDate(next.ExpiresOn),
		})
	}

	if prev.LandingURL != next.LandingURL {
		changes = append(changes, FieldChange{
			Field:     "landingUrl",
			Label:     "Landing page",
			Direction: "changed",
			Old:       prev.LandingURL,
			New:       next.LandingURL,
		})
	}

	return changes
}

// RenderDiff joins field changes into the single-line summary stored on a
// snapshot, e.g. "Bonus increased 60,000 → 75,000; Annual fee decreased $95 → $0"
func RenderDiff(changes []FieldChange) string {
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}

func direction(increased bool) string {
	if increased {
		return "increased"
	}
	return "decreased"
}

// formatPoints renders a point count with thousands separators
func formatPoints(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// formatMoney renders a dollar amount with thousands separators, dropping
// cents when whole
func formatMoney(d decimal.Decimal) string {
	whole := formatPoints(d.IntPart())
	if d.IsInteger() {
		return "$" + whole
	}

	fixed := d.Abs().StringFixed(2)
	cents := fixed[strings.LastIndexByte(fixed, '.'):]
	return "$" + whole + cents
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Format("2006-01-02")
}

func equalDates(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
