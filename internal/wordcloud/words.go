package wordcloud

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_']*`)

// WordCount is one word with its occurrence count.
type WordCount struct {
	Word  string
	Count int
}

// Frequencies tokenizes text and returns the kept words, most frequent first
// (ties by word), capped at opt.MaxWords when it is positive.
func Frequencies(text string, opt Options) []WordCount {
	stop := opt.Stopwords
	if stop == nil {
		stop = Stopwords
	}

	// lower-cased word -> spelling -> count
	spellings := map[string]map[string]int{}
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		if strings.HasSuffix(strings.ToLower(tok), "'s") {
			tok = tok[:len(tok)-2]
		}
		if tok == "" || isNumber(tok) {
			continue
		}
		lower := strings.ToLower(tok)
		if _, ok := stop[lower]; ok {
			continue
		}
		m := spellings[lower]
		if m == nil {
			m = map[string]int{}
			spellings[lower] = m
		}
		m[tok]++
	}

	// fold simple plurals into a singular that also occurs
	keys := make([]string, 0, len(spellings))
	for k := range spellings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.HasSuffix(k, "s") || strings.HasSuffix(k, "ss") {
			continue
		}
		singular, ok := spellings[k[:len(k)-1]]
		if !ok {
			continue
		}
		for spelling, n := range spellings[k] {
			singular[spelling[:len(spelling)-1]] += n
		}
		delete(spellings, k)
	}

	out := make([]WordCount, 0, len(spellings))
	for _, m := range spellings {
		var best string
		total, bestN := 0, -1
		for spelling, n := range m {
			total += n
			if n > bestN || (n == bestN && spelling < best) {
				best, bestN = spelling, n
			}
		}
		out = append(out, WordCount{Word: best, Count: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if opt.MaxWords > 0 && len(out) > opt.MaxWords {
		out = out[:opt.MaxWords]
	}
	return out
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Stopwords is the default English stopword set.
var Stopwords = makeSet(strings.Fields(`
a about above after again against all also am an and any are aren't as at
be because been before being below between both but by
can can't cannot com could couldn't
did didn't do does doesn't doing don't down during
each else ever
few for from further
get had hadn't has hasn't have haven't having he he'd he'll he's hence her here
here's hers herself him himself his how how's however http
i i'd i'll i'm i've if in into is isn't it it's its itself
just k like
me more most mustn't my myself
no nor not of off on once only or other otherwise ought our ours ourselves out
over own
r same shall shan't she she'd she'll she's should shouldn't since so some such
than that that's the their theirs them themselves then there there's therefore
these they they'd they'll they're they've this those through to too
under until up very
was wasn't we we'd we'll we're we've were weren't what what's when when's where
where's which while who who's whom why why's with won't would wouldn't www
you you'd you'll you're you've your yours yourself yourselves
`))

func makeSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
