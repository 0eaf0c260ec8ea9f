package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-archive-admin/internal/apiclient"
	"github.com/debemdeboas/the-archive-admin/internal/cache"
	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/db"
	"github.com/debemdeboas/the-archive-admin/internal/handler"
	"github.com/debemdeboas/the-archive-admin/internal/logger"
	"github.com/debemdeboas/the-archive-admin/internal/metrics"
	"github.com/debemdeboas/the-archive-admin/internal/middleware"
	"github.com/debemdeboas/the-archive-admin/internal/postform"
	"github.com/debemdeboas/the-archive-admin/internal/render"
	"github.com/debemdeboas/the-archive-admin/internal/repository/editor"
	"github.com/debemdeboas/the-archive-admin/internal/session"
	"github.com/debemdeboas/the-archive-admin/internal/sse"
	"github.com/debemdeboas/the-archive-admin/internal/util"
)

//go:embed static/* templates/*
var content embed.FS

const (
	sessionIdleTimeout = 2 * time.Hour
	sweepInterval      = 10 * time.Minute
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	envErr := godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New("info").Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.AppConfig = cfg

	log := logger.New(cfg.Logging.Level)
	setLoggers(log)
	if envErr != nil {
		log.Debug().Msg("No .env file loaded")
	}

	srv, cleanup, err := newServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up server")
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.Error().Err(err).Msg("Cleanup failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go srv.sweep(ctx, log)

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("api", cfg.API.BaseURL).Msg("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func setLoggers(log zerolog.Logger) {
	config.SetLogger(logger.Component(log, "config"))
	db.SetLogger(logger.Component(log, "db"))
	editor.SetLogger(logger.Component(log, "drafts"))
	apiclient.SetLogger(logger.Component(log, "api"))
	render.SetLogger(logger.Component(log, "render"))
	postform.SetLogger(logger.Component(log, "form"))
	handler.SetLogger(logger.Component(log, "handler"))
}

type server struct {
	handler  http.Handler
	sessions *session.Manager
}

// newServer wires the admin together. The returned cleanup closes the
// draft store.
func newServer(cfg *config.Config, log zerolog.Logger) (*server, func() error, error) {
	drafts, closeDrafts, err := editor.New(cfg.Drafts)
	if err != nil {
		return nil, nil, err
	}

	opts := []apiclient.Option{
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout()}),
		apiclient.WithObserver(metrics.ObserveAPI),
	}
	if cfg.API.Token != "" {
		opts = append(opts, apiclient.WithToken(cfg.API.Token))
	}
	api := apiclient.New(cfg.API.BaseURL, opts...)

	hashStatic(log)

	clients := sse.NewSSEClients()
	h := handler.New(content, clients)

	sessions := session.NewManager(session.Deps{
		API:          api,
		Drafts:       drafts,
		PageSize:     cfg.Content.PostsPerPage,
		DismissAfter: cfg.Notifications.DismissAfter(),
		Limits:       postform.LimitsFromConfig(cfg.Content),
		OnNotify:     h.PushNotification,
	}, false)

	mux := http.NewServeMux()
	h.Register(mux, sessions)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}

	root := middleware.Chain(mux,
		middleware.RequestID(log),
		middleware.AccessLog,
		middleware.SecureHeaders,
		middleware.CacheIt,
	)

	return &server{handler: root, sessions: sessions}, closeDrafts, nil
}

// hashStatic records a content hash per static file for the ETag header.
func hashStatic(log zerolog.Logger) {
	static, _ := fs.Sub(content, config.StaticLocalDir)
	fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(static, path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to hash static file")
			return nil
		}
		cache.SetStaticHash(config.StaticUrlPath+path, util.ContentHash(data))
		return nil
	})
}

// sweep drops idle sessions until ctx ends.
func (s *server) sweep(ctx context.Context, log zerolog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.sessions.Sweep(sessionIdleTimeout); n > 0 {
				log.Debug().Int("sessions", n).Msg("Dropped idle sessions")
			}
			metrics.SessionsActive.Set(float64(s.sessions.Len()))
		case <-ctx.Done():
			return
		}
	}
}
