// Package dashboard serves the market basket dashboard over HTTP.
package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/KaramelBytes/basketlens/internal/apriori"
	"github.com/KaramelBytes/basketlens/internal/dataset"
	"github.com/KaramelBytes/basketlens/internal/logging"
	"github.com/KaramelBytes/basketlens/internal/wordcloud"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	sessionName       = "basketlens"
	sessionDatasetKey = "dataset"
	defaultMaxUpload  = 32
)

// Config holds configuration for the dashboard server.
type Config struct {
	Addr  string
	Store *dataset.Store
	// Thresholds are applied to every mining run; they are not a page control.
	Thresholds apriori.Thresholds
	// SessionSecret signs the session cookie. A random key is used when empty, so
	// sessions do not survive a restart.
	SessionSecret string
	// CookieSecure marks the session cookie Secure. Leave it off when serving
	// plain HTTP or the browser never sends the cookie back.
	CookieSecure bool
	MaxUploadMB  int
	DefaultWords int
	Cloud        wordcloud.Options
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg      Config
	sessions *sessions.CookieStore
	page     *template.Template
}

// NewServer creates a dashboard server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("dashboard: dataset store is required")
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = defaultMaxUpload
	}
	if !wordcloud.ValidWordCap(cfg.DefaultWords) {
		cfg.DefaultWords = wordcloud.WordCaps()[0]
	}
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(secret)
	store.MaxAge(86400 * 7)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.CookieSecure
	store.Options.SameSite = http.SameSiteLaxMode

	page, err := template.New("index.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Server{cfg: cfg, sessions: store, page: page}, nil
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger,
		middleware.Recoverer,
	)
	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Post("/reset", s.handleReset)
	r.Get("/wordcloud.png", s.handleWordCloud)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Serve listens on the configured address and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	logging.Info().Str("addr", "http://"+ln.Addr().String()).Msg("dashboard listening")

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Debug().Msg("shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// requestLogger logs one line per request through the global logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		evt := logging.Info()
		if ww.Status() >= http.StatusInternalServerError {
			evt = logging.Error()
		}
		evt.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}
