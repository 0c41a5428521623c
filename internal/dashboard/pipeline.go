package dashboard

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/KaramelBytes/basketlens/internal/apriori"
	"github.com/KaramelBytes/basketlens/internal/dataset"
	"github.com/KaramelBytes/basketlens/internal/recommend"
	"github.com/KaramelBytes/basketlens/internal/rules"
	"github.com/KaramelBytes/basketlens/internal/wordcloud"
)

// RenderContext is the input of one render: the session's dataset plus the
// selections from the query string. It is rebuilt for every request.
type RenderContext struct {
	DatasetID string
	Item      string
	Words     int
}

// Query encodes the selections as URL query values.
func (rc RenderContext) Query() url.Values {
	v := url.Values{}
	if rc.Item != "" {
		v.Set("item", rc.Item)
	}
	v.Set("words", strconv.Itoa(rc.Words))
	return v
}

// Analysis is the result of running the pipeline for a render context.
type Analysis struct {
	// Context carries the resolved selection: Item is always one of Items, or
	// empty when there are no rules.
	Context RenderContext
	Dataset *dataset.Dataset
	Rules   rules.Table
	Items   []string
	View    recommend.View
	// HasCloud is false when the recommendation blob has no drawable word.
	HasCloud bool
}

// renderContext reads the selections of r on top of the session's dataset id.
func (s *Server) renderContext(r *http.Request, datasetID string) RenderContext {
	q := r.URL.Query()
	return RenderContext{
		DatasetID: datasetID,
		Item:      q.Get("item"),
		Words:     s.parseWords(q.Get("words")),
	}
}

// parseWords returns the requested word cap, or the default when it is missing or
// not one of the selectable caps.
func (s *Server) parseWords(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || !wordcloud.ValidWordCap(n) {
		return s.cfg.DefaultWords
	}
	return n
}

func (s *Server) cloudOptions(words int) wordcloud.Options {
	opt := s.cfg.Cloud
	opt.MaxWords = words
	return opt
}

// analyze runs load, mine, tabulate and recommend for rc.
func (s *Server) analyze(rc RenderContext) (*Analysis, error) {
	d, txs, err := s.cfg.Store.Open(rc.DatasetID)
	if err != nil {
		return nil, err
	}
	records, err := apriori.Mine(txs, s.cfg.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("mine %s: %w", d.Name, err)
	}
	tbl := rules.Build(records)

	rc.Item = recommend.ResolveSelection(tbl, rc.Item)
	view := recommend.Build(tbl, rc.Item)
	return &Analysis{
		Context:  rc,
		Dataset:  d,
		Rules:    tbl,
		Items:    tbl.BoughtItems(),
		View:     view,
		HasCloud: s.drawable(view.Blob, rc.Words),
	}, nil
}

// drawable reports whether the word cloud endpoint would return an image for blob.
func (s *Server) drawable(blob string, words int) bool {
	opt := s.cloudOptions(words)
	_, err := wordcloud.Layout(wordcloud.Frequencies(blob, opt), opt)
	return err == nil
}
