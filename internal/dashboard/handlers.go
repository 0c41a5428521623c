package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/KaramelBytes/basketlens/internal/apriori"
	"github.com/KaramelBytes/basketlens/internal/basket"
	"github.com/KaramelBytes/basketlens/internal/dataset"
	"github.com/KaramelBytes/basketlens/internal/logging"
	"github.com/KaramelBytes/basketlens/internal/recommend"
	"github.com/KaramelBytes/basketlens/internal/wordcloud"
	"github.com/gorilla/sessions"
)

var templateFuncs = template.FuncMap{
	"pct": func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) },
}

// pageData is the template input of the index page.
type pageData struct {
	Analysis   *Analysis
	Datasets   []*dataset.Dataset
	Thresholds apriori.Thresholds
	WordCaps   []int
	Words      int
	Error      string
	TopRules   template.HTML
	CloudURL   string

	NoticeNoAssociation string
	NoticeNoTopRules    string
}

func (s *Server) session(r *http.Request) *sessions.Session {
	// A cookie that fails to decode yields a fresh session.
	sess, _ := s.sessions.Get(r, sessionName)
	return sess
}

func sessionDataset(sess *sessions.Session) string {
	id, _ := sess.Values[sessionDatasetKey].(string)
	return id
}

func (s *Server) newPage(words int) *pageData {
	p := &pageData{
		WordCaps:            wordcloud.WordCaps(),
		Words:               words,
		Thresholds:          s.cfg.Thresholds,
		NoticeNoAssociation: recommend.NoticeNoAssociation,
		NoticeNoTopRules:    recommend.NoticeNoTopRules,
	}
	if list, err := s.cfg.Store.List(); err == nil {
		p.Datasets = list
	} else {
		logging.Warn().Err(err).Msg("list datasets")
	}
	return p
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	datasetID := sessionDataset(sess)

	// ?dataset= switches to a stored dataset
	if ref := r.URL.Query().Get("dataset"); ref != "" {
		d, err := s.cfg.Store.Get(ref)
		if err != nil {
			s.renderPage(w, http.StatusNotFound, s.errorPage(r, err))
			return
		}
		datasetID = d.ID
		sess.Values[sessionDatasetKey] = d.ID
		if err := sess.Save(r, w); err != nil {
			logging.Warn().Err(err).Msg("save session")
		}
	}

	rc := s.renderContext(r, datasetID)
	page := s.newPage(rc.Words)
	if rc.DatasetID == "" {
		s.renderPage(w, http.StatusOK, page)
		return
	}

	a, err := s.analyze(rc)
	if errors.Is(err, dataset.ErrNotFound) {
		// dataset removed since it was uploaded
		delete(sess.Values, sessionDatasetKey)
		_ = sess.Save(r, w)
		s.renderPage(w, http.StatusOK, page)
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("dataset", rc.DatasetID).Msg("analyze dataset")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	page.Analysis = a

	if !a.View.NoTopRules {
		var buf bytes.Buffer
		if err := a.View.TopRules.Render(&buf, "html"); err == nil {
			page.TopRules = template.HTML(buf.String()) //nolint:gosec // go-pretty escapes cell text
		}
	}
	if a.HasCloud {
		page.CloudURL = "/wordcloud.png?" + a.Context.Query().Encode()
	}
	s.renderPage(w, http.StatusOK, page)
}

func (s *Server) errorPage(r *http.Request, err error) *pageData {
	p := s.newPage(s.parseWords(r.URL.Query().Get("words")))
	p.Error = err.Error()
	return p
}

func (s *Server) renderPage(w http.ResponseWriter, status int, p *pageData) {
	var buf bytes.Buffer
	if err := s.page.Execute(&buf, p); err != nil {
		logging.Error().Err(err).Msg("render page")
		http.Error(w, "render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.renderPage(w, http.StatusBadRequest, s.errorPage(r, fmt.Errorf("read upload: %w", err)))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.renderPage(w, http.StatusBadRequest, s.errorPage(r, fmt.Errorf("missing upload field %q: %w", "file", err)))
		return
	}
	defer func() { _ = file.Close() }()

	if !basket.Supported(header.Filename) {
		s.renderPage(w, http.StatusBadRequest, s.errorPage(r, fmt.Errorf("unsupported file type: %s (use .csv, .tsv, .txt or .xlsx)", header.Filename)))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		s.renderPage(w, http.StatusBadRequest, s.errorPage(r, fmt.Errorf("read upload: %w", err)))
		return
	}
	d, err := s.cfg.Store.Add(header.Filename, data, "")
	if err != nil {
		logging.Warn().Err(err).Str("file", header.Filename).Msg("upload rejected")
		s.renderPage(w, http.StatusBadRequest, s.errorPage(r, err))
		return
	}
	logging.Info().Str("dataset", d.ID).Str("file", d.Name).Int("rows", d.Summary.Rows).Msg("dataset uploaded")

	sess := s.session(r)
	sess.Values[sessionDatasetKey] = d.ID
	if err := sess.Save(r, w); err != nil {
		http.Error(w, "save session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	target := "/"
	if words := strings.TrimSpace(r.FormValue("words")); words != "" {
		target += "?words=" + strconv.Itoa(s.parseWords(words))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	delete(sess.Values, sessionDatasetKey)
	if err := sess.Save(r, w); err != nil {
		http.Error(w, "save session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleWordCloud(w http.ResponseWriter, r *http.Request) {
	rc := s.renderContext(r, sessionDataset(s.session(r)))
	if rc.DatasetID == "" {
		http.Error(w, "no dataset uploaded", http.StatusNotFound)
		return
	}
	a, err := s.analyze(rc)
	if errors.Is(err, dataset.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("dataset", rc.DatasetID).Msg("analyze dataset")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err = wordcloud.WritePNG(&buf, a.View.Blob, s.cloudOptions(rc.Words))
	if errors.Is(err, wordcloud.ErrNoWords) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		logging.Error().Err(err).Msg("render word cloud")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
