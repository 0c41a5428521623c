// Package rules flattens mined records into a rule table.
package rules

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/KaramelBytes/basketlens/internal/apriori"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Column headers, in display order.
const (
	ColBought     = "Bought Item"
	ColExpected   = "Expected To Be Bought"
	ColSupport    = "Support"
	ColConfidence = "Confidence"
	ColLift       = "Lift"
)

// Rule is one row of the rule table.
type Rule struct {
	BoughtItem   string  `json:"bought_item"`
	ExpectedItem string  `json:"expected_item"`
	Support      float64 `json:"support"`
	Confidence   float64 `json:"confidence"`
	Lift         float64 `json:"lift"`
}

// Table is an ordered rule list. Methods return new tables and never modify the receiver.
type Table []Rule

// Build turns records into one row per record, in miner order. Each row takes the
// first item of the base and add sets of the record's first ordered statistic;
// any further items are dropped. A leading empty-base statistic (only possible when
// the lift floor is at or below 1) is passed over in favour of the first split
// with both sides populated.
func Build(records []apriori.Record) Table {
	out := make(Table, 0, len(records))
	for _, rec := range records {
		if len(rec.Stats) == 0 {
			continue
		}
		st := rec.Stats[0]
		for _, s := range rec.Stats {
			if len(s.Base) > 0 && len(s.Add) > 0 {
				st = s
				break
			}
		}
		out = append(out, Rule{
			BoughtItem:   first(st.Base),
			ExpectedItem: first(st.Add),
			Support:      rec.Support,
			Confidence:   st.Confidence,
			Lift:         st.Lift,
		})
	}
	return out
}

func first(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

// BoughtItems returns the distinct bought items in first-appearance order.
func (t Table) BoughtItems() []string {
	seen := make(map[string]struct{}, len(t))
	var out []string
	for _, r := range t {
		if _, ok := seen[r.BoughtItem]; ok {
			continue
		}
		seen[r.BoughtItem] = struct{}{}
		out = append(out, r.BoughtItem)
	}
	return out
}

// Filter returns the rows whose bought item equals item.
func (t Table) Filter(item string) Table {
	var out Table
	for _, r := range t {
		if r.BoughtItem == item {
			out = append(out, r)
		}
	}
	return out
}

// SortedByConfidence returns a copy ordered by confidence, highest first. Ties keep
// table order.
func (t Table) SortedByConfidence() Table {
	out := make(Table, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// Head returns at most the first n rows.
func (t Table) Head(n int) Table {
	if n < 0 {
		n = 0
	}
	if len(t) <= n {
		return t
	}
	return t[:n]
}

// Formats accepted by Render.
var Formats = []string{"table", "markdown", "csv", "html"}

// Render writes the table in the given format: table (box drawing), markdown, csv or html.
func (t Table) Render(w io.Writer, format string) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{ColBought, ColExpected, ColSupport, ColConfidence, ColLift})
	for _, r := range t {
		tw.AppendRow(table.Row{
			r.BoughtItem,
			r.ExpectedItem,
			fmt.Sprintf("%.6f", r.Support),
			fmt.Sprintf("%.4f", r.Confidence),
			fmt.Sprintf("%.4f", r.Lift),
		})
	}
	switch strings.ToLower(format) {
	case "", "table":
		tw.Render()
	case "md", "markdown":
		tw.RenderMarkdown()
	case "csv":
		tw.RenderCSV()
	case "html":
		tw.RenderHTML()
	default:
		return fmt.Errorf("unsupported format: %s (use %s)", format, strings.Join(Formats, "|"))
	}
	return nil
}
