// Command zeitstrahl serves the history timeline API and manages flashcards.
//
// Usage:
//
//	zeitstrahl [flags] [serve]          run the HTTP API (default)
//	zeitstrahl [flags] sync             sync all card sources once
//	zeitstrahl [flags] add-source PATH  register a directory or git URL
//	zeitstrahl [flags] review           review due cards in the terminal
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/conorfennell/zeitstrahl/internal/cardgen"
	"github.com/conorfennell/zeitstrahl/internal/config"
	"github.com/conorfennell/zeitstrahl/internal/flashcards"
	"github.com/conorfennell/zeitstrahl/internal/logger"
	"github.com/conorfennell/zeitstrahl/internal/reconcile"
	"github.com/conorfennell/zeitstrahl/internal/sources"
	"github.com/conorfennell/zeitstrahl/internal/storage"
	"github.com/conorfennell/zeitstrahl/internal/timeline"
	"github.com/conorfennell/zeitstrahl/internal/web"
)

func main() {
	// 1. Parse flags and load the configuration
	f := config.Flags("zeitstrahl")
	if err := f.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, f.Args()); err != nil {
		log.Fatal("Command failed", "error", err)
	}
}

// app bundles the services every command is built from.
type app struct {
	db       *storage.DB
	timeline *timeline.Service
	cards    *flashcards.Service
	sources  *sources.Syncer
}

func newApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	// 2. Open the database
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	log.Info("Database opened", "path", cfg.Database.Path)

	reconciler, err := reconcile.New(reconcile.Strategy(cfg.Reconcile.Strategy))
	if err != nil {
		db.Close()
		return nil, err
	}

	gen := cardgen.NewGeminiClient(log, cardgen.Config{
		BaseURL:    cfg.Generator.BaseURL,
		APIKey:     cfg.Generator.APIKey,
		Model:      cfg.Generator.Model,
		Timeout:    cfg.Generator.Timeout,
		MaxRetries: cfg.Generator.MaxRetries,
	})

	return &app{
		db:       db,
		timeline: timeline.NewService(db, log, reconciler, cfg.Media.Dir),
		cards:    flashcards.NewService(db, log, gen, cfg.Generator.Language),
		sources:  sources.New(db, log, cfg.Sync.ReposDir, cfg.Sync.Concurrency),
	}, nil
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, args []string) error {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.db.Close()

	switch cmd {
	case "serve":
		return serve(ctx, cfg, log, a)

	case "sync":
		reports, err := a.sources.RunSync(ctx)
		if err != nil {
			return err
		}
		for _, r := range reports {
			fmt.Printf("%s: %d parsed, %d new, %d removed, %d errors\n", r.Path, r.Parsed, r.Inserted, r.Deleted, len(r.Errors))
			for _, e := range r.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
		return nil

	case "add-source":
		if len(args) != 1 {
			return errors.New("usage: zeitstrahl add-source <path|url>")
		}
		src, err := a.sources.Add(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Added %s source %d: %s\n", src.Type, src.ID, src.Path)
		return nil

	case "review":
		return runReview(ctx, os.Stdin, os.Stdout, a.cards, nil)

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logger.Logger, a *app) error {
	if err := os.MkdirAll(cfg.Media.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	if cfg.Generator.APIKey == "" {
		log.Warn("No generator API key configured; card generation will fail")
	}

	if cfg.Sync.Interval > 0 {
		sched := sources.NewScheduler(a.sources)
		if err := sched.Start(ctx, cfg.Sync.Interval); err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := web.NewServer(log, a.timeline, a.cards, a.sources, web.Config{
		MediaDir:    cfg.Media.Dir,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})
	return srv.Run(ctx, cfg.HTTP.Addr)
}
