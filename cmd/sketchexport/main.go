// Command sketchexport renders a stored scene to a file without a browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/inamate/sketchboard/internal/config"
	"github.com/inamate/sketchboard/internal/discovery"
	"github.com/inamate/sketchboard/internal/engine"
	"github.com/inamate/sketchboard/internal/export"
	"github.com/inamate/sketchboard/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sketchexport:", err)
		os.Exit(1)
	}
}

func run() error {
	// Environment config supplies the defaults; flags override it.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flag.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "store driver: file, sqlite or postgres")
	flag.StringVar(&cfg.DataDir, "dir", cfg.DataDir, "data directory for the file store")
	flag.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "database path for the sqlite store")
	flag.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "connection URL for the postgres store")
	flag.StringVar(&cfg.StorageKey, "key", cfg.StorageKey, "storage key of the scene")
	flag.IntVar(&cfg.CanvasWidth, "width", cfg.CanvasWidth, "canvas width in pixels")
	flag.IntVar(&cfg.CanvasHeight, "height", cfg.CanvasHeight, "canvas height in pixels")
	flag.StringVar(&cfg.Background, "bg", cfg.Background, "canvas background colour")
	format := flag.String("format", "png", "output format: json, html, png or pdf")
	out := flag.String("o", "", "output file (default: the editor's download name)")
	discover := flag.Bool("discover", false, "list sketchboard servers on the local network and exit")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *discover {
		return discovery.Browse(func(addr string) { fmt.Println(addr) })
	}

	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = f.FileName()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	objs := store.NewDocument(st, cfg.StorageKey, logger).Load(ctx)
	// Image commands are only compiled for decoded bitmaps.
	images := export.ResolveImages(objs, logger)
	scene := &export.Scene{
		Objects:  objs,
		Commands: engine.CompileDrawCommands(objs, nil),
		Images:   images,
	}

	file, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := export.Write(file, f, scene, export.Canvas{
		Width:      cfg.CanvasWidth,
		Height:     cfg.CanvasHeight,
		Background: cfg.Background,
		Logger:     logger,
	}); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	logger.Info("exported scene", "key", cfg.StorageKey, "objects", len(objs), "file", *out)
	return nil
}
