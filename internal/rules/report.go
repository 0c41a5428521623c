package rules

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/basketlens/internal/apriori"
	"github.com/KaramelBytes/basketlens/internal/basket"
)

// Report bundles a mined rule table with the dataset shape and thresholds that
// produced it.
type Report struct {
	Name       string
	Summary    basket.Summary
	Thresholds apriori.Thresholds
	Rules      Table
}

// Markdown renders a compact report suitable for standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[BASKET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Transactions: %d\n", r.Summary.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", r.Summary.Columns))
	b.WriteString(fmt.Sprintf("Distinct items: %d", r.Summary.DistinctItems))
	if r.Summary.MissingCells > 0 {
		b.WriteString(fmt.Sprintf(" (missing cells: %d)", r.Summary.MissingCells))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Thresholds: %s\n\n", r.Thresholds))

	b.WriteString("[ASSOCIATION RULES]\n")
	if len(r.Rules) == 0 {
		b.WriteString("(no rules met the thresholds)\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Rules: %d, bought items: %d\n\n", len(r.Rules), len(r.Rules.BoughtItems())))
	_ = r.Rules.Render(&b, "markdown")

	top := r.Rules.SortedByConfidence().Head(5)
	b.WriteString("\n[TOP RULES BY CONFIDENCE]\n")
	for _, rule := range top {
		b.WriteString(fmt.Sprintf("- %s → %s: confidence %.2f, lift %.2f, support %.4f\n",
			safeVal(rule.BoughtItem), safeVal(rule.ExpectedItem), rule.Confidence, rule.Lift, rule.Support))
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
