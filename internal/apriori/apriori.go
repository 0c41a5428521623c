// Package apriori mines frequent itemsets and association statistics from baskets.
//
// Itemsets are generated level by level over the sorted item universe. Level k
// candidates are the k-combinations whose (k-1)-subsets were all frequent, so the
// output order is deterministic: by length, then lexicographically by items.
// Every frequent itemset yields ordered statistics for each split into a base and
// an added part; a record is emitted when at least one statistic passes the
// confidence and lift floors.
package apriori

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/KaramelBytes/basketlens/internal/basket"
)

// ErrInvalidSupport is returned when the support floor is not positive.
var ErrInvalidSupport = errors.New("minimum support must be > 0")

// Thresholds bound which itemsets and statistics are reported.
type Thresholds struct {
	MinSupport    float64
	MinConfidence float64
	MinLift       float64
	// MinLength drops itemsets with fewer items.
	MinLength int
	// MaxLength stops generation past this size; 0 means unbounded.
	MaxLength int
}

// DefaultThresholds returns the floors used by the dashboard.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSupport:    0.003,
		MinConfidence: 0.1,
		MinLift:       3,
		MinLength:     2,
	}
}

func (t Thresholds) String() string {
	s := fmt.Sprintf("support>=%g confidence>=%g lift>=%g length>=%d", t.MinSupport, t.MinConfidence, t.MinLift, t.MinLength)
	if t.MaxLength > 0 {
		s += fmt.Sprintf(" length<=%d", t.MaxLength)
	}
	return s
}

// OrderedStatistic is one base => add split of a frequent itemset.
type OrderedStatistic struct {
	Base       []string
	Add        []string
	Confidence float64
	Lift       float64
}

// Record is a frequent itemset with its surviving statistics.
type Record struct {
	Items   []string
	Support float64
	Stats   []OrderedStatistic
}

// Mine runs Apriori over the transactions. The result is fully materialized.
func Mine(txs []basket.Transaction, th Thresholds) ([]Record, error) {
	if th.MinSupport <= 0 {
		return nil, ErrInvalidSupport
	}
	idx := newIndex(txs)
	if idx.n == 0 {
		return nil, nil
	}

	var out []Record
	// level 1: every item, sorted
	candidates := make([][]int, len(idx.items))
	for i := range idx.items {
		candidates[i] = []int{i}
	}
	for length := 1; len(candidates) > 0; length++ {
		var frequent [][]int
		for _, cand := range candidates {
			support := idx.support(cand)
			if support < th.MinSupport {
				continue
			}
			frequent = append(frequent, cand)
			if length < th.MinLength {
				continue
			}
			stats := idx.orderedStatistics(cand, support, th)
			if len(stats) == 0 {
				continue
			}
			out = append(out, Record{Items: idx.names(cand), Support: support, Stats: stats})
		}
		if th.MaxLength > 0 && length+1 > th.MaxLength {
			break
		}
		candidates = nextCandidates(frequent)
	}
	return out, nil
}

// nextCandidates joins frequent k-itemsets sharing a (k-1)-prefix and keeps the
// (k+1)-itemsets whose every k-subset is frequent. Input and output are in
// lexicographic order.
func nextCandidates(frequent [][]int) [][]int {
	if len(frequent) < 2 {
		return nil
	}
	seen := make(map[string]struct{}, len(frequent))
	for _, f := range frequent {
		seen[key(f)] = struct{}{}
	}
	k := len(frequent[0])
	var out [][]int
	for i := 0; i < len(frequent); i++ {
		a := frequent[i]
		for j := i + 1; j < len(frequent); j++ {
			b := frequent[j]
			if !samePrefix(a, b, k-1) {
				break
			}
			cand := make([]int, k+1)
			copy(cand, a)
			cand[k] = b[k-1]
			if allSubsetsFrequent(cand, seen) {
				out = append(out, cand)
			}
		}
	}
	return out
}

func samePrefix(a, b []int, n int) bool {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allSubsetsFrequent(cand []int, seen map[string]struct{}) bool {
	if len(cand) <= 2 {
		return true
	}
	sub := make([]int, 0, len(cand)-1)
	for skip := range cand {
		sub = sub[:0]
		for i, v := range cand {
			if i != skip {
				sub = append(sub, v)
			}
		}
		if _, ok := seen[key(sub)]; !ok {
			return false
		}
	}
	return true
}

func key(ids []int) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}

// index maps items to bitsets of the transactions containing them.
type index struct {
	n     int
	items []string
	tids  [][]uint64
	memo  map[string]float64
}

func newIndex(txs []basket.Transaction) *index {
	pos := make(map[string]int)
	for _, tx := range txs {
		for _, item := range tx {
			pos[item] = 0
		}
	}
	items := make([]string, 0, len(pos))
	for item := range pos {
		items = append(items, item)
	}
	sort.Strings(items)
	for i, item := range items {
		pos[item] = i
	}
	words := (len(txs) + 63) / 64
	tids := make([][]uint64, len(items))
	for i := range tids {
		tids[i] = make([]uint64, words)
	}
	for t, tx := range txs {
		for _, item := range tx {
			tids[pos[item]][t/64] |= 1 << (uint(t) % 64)
		}
	}
	return &index{n: len(txs), items: items, tids: tids, memo: make(map[string]float64)}
}

// support returns the fraction of transactions containing every item in ids.
// The empty set has support 1.
func (x *index) support(ids []int) float64 {
	if len(ids) == 0 {
		return 1
	}
	k := key(ids)
	if s, ok := x.memo[k]; ok {
		return s
	}
	count := 0
	first := x.tids[ids[0]]
	for w := range first {
		word := first[w]
		for _, id := range ids[1:] {
			word &= x.tids[id][w]
		}
		count += bits.OnesCount64(word)
	}
	s := float64(count) / float64(x.n)
	x.memo[k] = s
	return s
}

// orderedStatistics enumerates base sizes 0..k-1 and, within each size, base
// combinations in lexicographic order.
func (x *index) orderedStatistics(items []int, support float64, th Thresholds) []OrderedStatistic {
	var out []OrderedStatistic
	for size := 0; size < len(items); size++ {
		combinations(items, size, func(base []int) {
			add := difference(items, base)
			confidence := support / x.support(base)
			lift := confidence / x.support(add)
			if confidence < th.MinConfidence || lift < th.MinLift {
				return
			}
			out = append(out, OrderedStatistic{
				Base:       x.names(base),
				Add:        x.names(add),
				Confidence: confidence,
				Lift:       lift,
			})
		})
	}
	return out
}

func (x *index) names(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = x.items[id]
	}
	return out
}

// combinations calls fn with every size-k combination of items in lexicographic order.
// The slice passed to fn is reused between calls.
func combinations(items []int, k int, fn func([]int)) {
	if k > len(items) {
		return
	}
	pick := make([]int, k)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == k {
			fn(pick)
			return
		}
		for i := start; i <= len(items)-(k-depth); i++ {
			pick[depth] = items[i]
			rec(i+1, depth+1)
		}
	}
	rec(0, 0)
}

func difference(items, remove []int) []int {
	out := make([]int, 0, len(items)-len(remove))
	j := 0
	for _, v := range items {
		if j < len(remove) && remove[j] == v {
			j++
			continue
		}
		out = append(out, v)
	}
	return out
}
