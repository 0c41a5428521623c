package rules

import (
	"bytes"
	"strings"
	"testing"

	"github.com/KaramelBytes/basketlens/internal/apriori"
	"github.com/KaramelBytes/basketlens/internal/basket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stat(base, add []string, conf, lift float64) apriori.OrderedStatistic {
	return apriori.OrderedStatistic{Base: base, Add: add, Confidence: conf, Lift: lift}
}

func TestBuildOneRowPerRecordInOrder(t *testing.T) {
	recs := []apriori.Record{
		{Items: []string{"pasta", "shrimp"}, Support: 0.005, Stats: []apriori.OrderedStatistic{
			stat([]string{"pasta"}, []string{"shrimp"}, 0.32, 4.5),
			stat([]string{"shrimp"}, []string{"pasta"}, 0.07, 4.5),
		}},
		{Items: []string{"escalope", "mushroom cream sauce"}, Support: 0.0057, Stats: []apriori.OrderedStatistic{
			stat([]string{"mushroom cream sauce"}, []string{"escalope"}, 0.3, 3.79),
		}},
		// same bought/expected pair again: must not be merged
		{Items: []string{"pasta", "shrimp", "nan"}, Support: 0.004, Stats: []apriori.OrderedStatistic{
			stat([]string{"pasta"}, []string{"shrimp", "nan"}, 0.25, 3.1),
		}},
	}
	tbl := Build(recs)
	require.Len(t, tbl, 3)
	assert.Equal(t, Rule{BoughtItem: "pasta", ExpectedItem: "shrimp", Support: 0.005, Confidence: 0.32, Lift: 4.5}, tbl[0])
	assert.Equal(t, "mushroom cream sauce", tbl[1].BoughtItem)
	assert.Equal(t, "escalope", tbl[1].ExpectedItem)
	// multi-item add side keeps only its first item
	assert.Equal(t, "shrimp", tbl[2].ExpectedItem)
	assert.Equal(t, []string{"pasta", "mushroom cream sauce"}, tbl.BoughtItems())
}

func TestBuildSkipsEmptyBaseSplit(t *testing.T) {
	recs := []apriori.Record{{Items: []string{"a", "b"}, Support: 0.5, Stats: []apriori.OrderedStatistic{
		stat(nil, []string{"a", "b"}, 0.5, 1),
		stat([]string{"a"}, []string{"b"}, 1, 2),
	}}}
	tbl := Build(recs)
	require.Len(t, tbl, 1)
	assert.Equal(t, "a", tbl[0].BoughtItem)
	assert.Equal(t, "b", tbl[0].ExpectedItem)
	assert.InDelta(t, 2.0, tbl[0].Lift, 1e-12)
}

func TestBuildFromMinedRecordsRespectsBounds(t *testing.T) {
	in := "caviar,champagne\nbread,milk\nbread,eggs\nmilk,eggs\ncaviar,champagne\neggs,milk\nbread,eggs\nmilk,bread\n"
	txs, err := basket.ReadCSV(strings.NewReader(in), basket.Options{})
	require.NoError(t, err)
	recs, err := apriori.Mine(txs, apriori.Thresholds{MinSupport: 0.1, MinConfidence: 0.1, MinLift: 0.5, MinLength: 2})
	require.NoError(t, err)
	tbl := Build(recs)
	require.Len(t, tbl, len(recs))
	for _, r := range tbl {
		assert.GreaterOrEqual(t, r.Support, 0.0)
		assert.LessOrEqual(t, r.Support, 1.0)
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
		assert.GreaterOrEqual(t, r.Lift, 0.0)
		assert.NotEmpty(t, r.BoughtItem)
	}
	again, err := apriori.Mine(txs, apriori.Thresholds{MinSupport: 0.1, MinConfidence: 0.1, MinLift: 0.5, MinLength: 2})
	require.NoError(t, err)
	assert.Equal(t, tbl, Build(again))
}

func TestFilterSortHeadDoNotMutate(t *testing.T) {
	tbl := Table{
		{BoughtItem: "a", ExpectedItem: "x", Confidence: 0.2},
		{BoughtItem: "b", ExpectedItem: "y", Confidence: 0.9},
		{BoughtItem: "a", ExpectedItem: "z", Confidence: 0.5},
		{BoughtItem: "a", ExpectedItem: "w", Confidence: 0.5},
	}
	orig := append(Table(nil), tbl...)

	a := tbl.Filter("a")
	require.Len(t, a, 3)
	sorted := a.SortedByConfidence()
	assert.Equal(t, []string{"z", "w", "x"}, []string{sorted[0].ExpectedItem, sorted[1].ExpectedItem, sorted[2].ExpectedItem})
	assert.Len(t, sorted.Head(2), 2)
	assert.Len(t, sorted.Head(10), 3)
	assert.Empty(t, tbl.Filter("missing"))
	assert.Equal(t, orig, tbl)
}

func TestRenderFormats(t *testing.T) {
	tbl := Table{{BoughtItem: "pasta", ExpectedItem: "shrimp", Support: 0.005066, Confidence: 0.322034, Lift: 4.506672}}

	var md bytes.Buffer
	require.NoError(t, tbl.Render(&md, "markdown"))
	assert.Contains(t, md.String(), "| Bought Item | Expected To Be Bought | Support | Confidence | Lift |")
	assert.Contains(t, md.String(), "| pasta | shrimp | 0.005066 | 0.3220 | 4.5067 |")

	var csvOut bytes.Buffer
	require.NoError(t, tbl.Render(&csvOut, "csv"))
	assert.Contains(t, csvOut.String(), "pasta,shrimp,0.005066,0.3220,4.5067")

	var box bytes.Buffer
	require.NoError(t, tbl.Render(&box, "table"))
	assert.Contains(t, box.String(), "pasta")

	assert.Error(t, tbl.Render(&box, "yaml"))
}

func TestReportMarkdown(t *testing.T) {
	rep := &Report{
		Name:       "store_data.csv",
		Summary:    basket.Summary{Rows: 7501, Columns: 20, DistinctItems: 121, MissingCells: 100},
		Thresholds: apriori.DefaultThresholds(),
		Rules:      Table{{BoughtItem: "light cream", ExpectedItem: "chicken", Support: 0.0045, Confidence: 0.29, Lift: 4.84}},
	}
	md := rep.Markdown()
	assert.Contains(t, md, "[BASKET SUMMARY]")
	assert.Contains(t, md, "File: store_data.csv")
	assert.Contains(t, md, "Transactions: 7501")
	assert.Contains(t, md, "[ASSOCIATION RULES]")
	assert.Contains(t, md, "light cream → chicken")

	empty := &Report{Name: "x.csv"}
	assert.Contains(t, empty.Markdown(), "(no rules met the thresholds)")
}
