// cmd/web/main.go
//
// Nancy – HTTP entry point.
//
// Request life-cycle
// ------------------
//
//  1. Load env vars (host-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Load config (koanf: .env → conf/global.yaml → NANCY_* overrides).
//
//  4. Pick the trace-session store: SQL-backed when trace.dsn is set,
//     bounded in-memory otherwise.
//
//  5. Build the chi-backed resolver with the demo routes and a small
//     control-panel page under the reserved prefix.
//
//  6. Build the lifecycle engine: pipeline factory, error-page status
//     handler, tracer, worker pool.
//
//  7. Serve: Prometheus /metrics plus the engine adapter, with
//     graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tylerburd/nancy/internal/config"
	"github.com/tylerburd/nancy/internal/database"
	"github.com/tylerburd/nancy/internal/identity"
	"github.com/tylerburd/nancy/internal/lifecycle"
	"github.com/tylerburd/nancy/internal/logger"
	"github.com/tylerburd/nancy/internal/message"
	"github.com/tylerburd/nancy/internal/middleware"
	"github.com/tylerburd/nancy/internal/routing"
	"github.com/tylerburd/nancy/internal/server"
	"github.com/tylerburd/nancy/internal/trace"
)

const serverEnvPath = "/usr/local/etc/nancy/global.env"

// loadEnv prefers the host-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	//
	// ── 1.  Trace store ─────────────────────────────────────────────────
	//
	var store trace.Store
	var memStore *trace.MemoryStore
	if cfg.Trace.DSN != "" {
		db, err := database.Open(cfg.Trace.DSN)
		if err != nil {
			logOut.Fatalf("connect trace DB: %v", err)
		}
		defer db.Close()
		store = trace.NewSQLStore(db, cfg.Trace.SessionLimit)
		logOut.Infow("trace store online", "backend", "sql")
	} else {
		memStore = trace.NewMemoryStore(cfg.Trace.SessionLimit, 0)
		store = memStore
		logOut.Infow("trace store online", "backend", "memory")
	}
	tracer := trace.NewTracer(store, cfg.Trace.Enabled, cfg.Trace.PanelPrefix, logOut)

	//
	// ── 2.  Routes ──────────────────────────────────────────────────────
	//
	resolver := routing.NewChiResolver()

	resolver.Get("/", func(message.Params) (*message.Response, error) {
		return message.Text(http.StatusOK, "Nancy is up\n"), nil
	})

	resolver.Get("/users/{id}", func(p message.Params) (*message.Response, error) {
		return message.JSON(http.StatusOK, map[string]string{"id": p.String("id")}), nil
	})

	resolver.Post("/echo", func(message.Params) (*message.Response, error) {
		return message.Text(http.StatusOK, "echo\n"), nil
	})

	if memStore != nil {
		registerControlPanel(resolver, memStore, cfg.Trace.PanelPrefix)
	}

	//
	// ── 3.  Engine ──────────────────────────────────────────────────────
	//
	engine, err := lifecycle.New(lifecycle.Config{
		Pipelines: func(*lifecycle.Context) *lifecycle.Pipelines {
			before := &lifecycle.BeforePipeline{}
			before.Append(identity.BeforeHook())

			after := &lifecycle.AfterPipeline{}
			after.Append(func(c *lifecycle.Context) error {
				if c.Response != nil {
					c.Response.WithHeader("Server", "nancy")
				}
				return nil
			})
			return &lifecycle.Pipelines{Before: before, After: after}
		},
		StatusHandlers: []lifecycle.StatusHandler{lifecycle.ErrorPageHandler{}},
		Tracer:         tracer,
		Workers:        cfg.Engine.Workers,
		QueueDepth:     cfg.Engine.QueueDepth,
		Logger:         logOut,
	}, resolver)
	if err != nil {
		logOut.Fatalf("build engine: %v", err)
	}
	defer engine.Close()

	//
	// ── 4.  Serve ───────────────────────────────────────────────────────
	//
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", server.Handler(engine, logOut))

	srv := server.New(cfg.HTTP.ListenAddr, middleware.Security(mux), server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logOut.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logOut.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logOut.Warnw("shutdown", "err", err)
	}
}

// registerControlPanel exposes the client's own trace history under the
// reserved prefix.  Implemented as a per-route pre-hook because the
// page needs the request's correlation cookie, which plain handlers
// never see.
func registerControlPanel(resolver *routing.ChiResolver, store *trace.MemoryStore, prefix string) {
	resolver.Handle(http.MethodGet, prefix, routing.Route{
		PreHook: func(c *lifecycle.Context) (*message.Response, error) {
			if !c.ControlPanelEnabled {
				return message.Text(http.StatusForbidden, "control panel disabled\n"), nil
			}
			raw, ok := c.Request().Cookie(trace.CookieName)
			if !ok {
				return message.Text(http.StatusOK, "no trace session yet\n"), nil
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				return message.Text(http.StatusOK, "no trace session yet\n"), nil
			}

			body := fmt.Sprintf("session %s\n", raw)
			for _, rec := range store.Records(id) {
				body += fmt.Sprintf("%s  %-6s %-40s %d  %s\n",
					rec.RecordedAt.Format(time.RFC3339), rec.Method, rec.URL,
					rec.StatusCode, rec.UserAgent)
			}
			return message.Text(http.StatusOK, body), nil
		},
		Handler: func(message.Params) (*message.Response, error) {
			// Unreachable; the pre-hook always answers.
			return message.Text(http.StatusOK, ""), nil
		},
	})
}
