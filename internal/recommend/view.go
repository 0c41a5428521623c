// Package recommend derives the per-item recommendation view from a rule table.
package recommend

import (
	"strings"

	"github.com/KaramelBytes/basketlens/internal/basket"
	"github.com/KaramelBytes/basketlens/internal/rules"
)

// TopN is the size of the top-rules table.
const TopN = 5

// Notices shown in place of empty sections.
const (
	NoticeNoAssociation = "No strong association found for the selected product."
	NoticeNoTopRules    = "No top rules available for this product."
)

// View is everything the recommendation panel shows for one selection.
type View struct {
	Selection string
	// Matches are the rule rows for the selection, in table order.
	Matches rules.Table
	// Expected keeps every expected item of Matches, duplicates included.
	Expected []string
	// Blob is Expected joined with spaces with every "nan" substring removed. It feeds
	// the word cloud.
	Blob string
	// Items are the distinct recommended items, "nan" excluded, first-appearance order.
	Items []string
	// NoAssociation is set when Blob is blank; the list is replaced by a notice.
	NoAssociation bool
	// TopRules holds up to TopN matches by confidence, highest first.
	TopRules   rules.Table
	NoTopRules bool
}

// Build computes the view for selection. It only reads t.
func Build(t rules.Table, selection string) View {
	v := View{Selection: selection}
	v.Matches = t.Filter(selection)

	v.Expected = make([]string, 0, len(v.Matches))
	for _, r := range v.Matches {
		v.Expected = append(v.Expected, r.ExpectedItem)
	}
	// Substring removal on purpose: "banana" loses its inner "nan" too.
	v.Blob = strings.ReplaceAll(strings.Join(v.Expected, " "), basket.MissingValue, "")
	v.NoAssociation = strings.TrimSpace(v.Blob) == ""

	if !v.NoAssociation {
		seen := make(map[string]struct{}, len(v.Expected))
		for _, item := range v.Expected {
			if item == basket.MissingValue {
				continue
			}
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			v.Items = append(v.Items, item)
		}
	}

	v.NoTopRules = len(v.Matches) == 0
	if !v.NoTopRules {
		v.TopRules = v.Matches.SortedByConfidence().Head(TopN)
	}
	return v
}

// DefaultSelection returns the selector's initial value: the first bought item, or ""
// for an empty table.
func DefaultSelection(t rules.Table) string {
	items := t.BoughtItems()
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

// ResolveSelection keeps want when it is a bought item of t, otherwise falls back to
// DefaultSelection.
func ResolveSelection(t rules.Table, want string) string {
	for _, item := range t.BoughtItems() {
		if item == want {
			return want
		}
	}
	return DefaultSelection(t)
}
