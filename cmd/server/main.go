package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/inamate/sketchboard/internal/asset"
	"github.com/inamate/sketchboard/internal/auth"
	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/discovery"
	"github.com/inamate/sketchboard/internal/export"
	"github.com/inamate/sketchboard/internal/live"
	mw "github.com/inamate/sketchboard/internal/middleware"
	"github.com/inamate/sketchboard/internal/raster"
	"github.com/inamate/sketchboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	if cfg.SlogLevel() <= slog.LevelDebug {
		raster.SetLogger(logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	authService := auth.NewService(cfg.JWTSecret)

	hub := live.NewHub(st, live.HubOptions{
		DefaultKey:   cfg.StorageKey,
		HistoryLimit: cfg.HistoryLimit,
		IdleTimeout:  cfg.SessionIdle,
		Logger:       logger,
	})

	sessionHandler := live.NewHandler(hub, authService, cfg.OriginHosts())
	assetHandler := asset.NewHandler(hub)
	exportHandler := export.NewHandler(hub, export.Canvas{
		Width:      cfg.CanvasWidth,
		Height:     cfg.CanvasHeight,
		Background: cfg.Background,
		Logger:     logger,
	})

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/api/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")

	// Session-scoped routes need that session's token
	api := r.PathPrefix("/api/sessions/{id}").Subrouter()
	api.Use(authService.Middleware)

	api.HandleFunc("/scene", sessionHandler.Scene).Methods("GET")
	api.HandleFunc("/export/{format}", exportHandler.Export).Methods("GET")
	api.HandleFunc("/images", assetHandler.Upload).Methods("POST", "OPTIONS")

	// WebSocket endpoint
	r.Handle("/ws/sessions/{id}", authService.Middleware(http.HandlerFunc(sessionHandler.Connect))).Methods("GET")

	if cfg.MDNSEnabled {
		server, err := discovery.Advertise(cfg.Port)
		if err != nil {
			slog.Warn("mdns advertisement disabled", "error", err)
		} else {
			defer server.Shutdown()
			slog.Info("advertising on local network", "service", discovery.ServiceType)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first so every session saves its scene
		slog.Info("saving all sessions...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "store", cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
