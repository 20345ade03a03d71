package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/unicode/norm"

	"github.com/lysyi3m/rss-retitle/app/api"
	"github.com/lysyi3m/rss-retitle/app/cfg"
	"github.com/lysyi3m/rss-retitle/app/database"
	"github.com/lysyi3m/rss-retitle/app/feed"
	"github.com/lysyi3m/rss-retitle/app/rewrite"
	"github.com/lysyi3m/rss-retitle/app/rules"
)

const sampleTitle = "[fansub][名侦探柯南][第1170集 食人教室的玄机（后篇）][WEBRIP][简繁日多语MKV][PGS][1080P]"

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatal(err)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.SlogLevel())

	slog.Info("Starting RSS Retitle server", "version", appCfg.Version, "source", appCfg.SourceURL)

	ctx := context.Background()

	builder := &rules.Builder{}
	if appCfg.NormalizeTitles {
		builder.Options = append(builder.Options, rules.WithNormalization(norm.NFC))
	}

	if appCfg.RulesFile != "" {
		builder.Sources = append(builder.Sources, rules.NewFileSource(appCfg.RulesFile, appCfg.DefaultPriority))
	}

	var store api.RuleStore
	if appCfg.DBPath != "" {
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		defer db.Close()

		version, dirty, err := database.RunMigrations(db)
		if err != nil {
			log.Fatal("Failed to run migrations:", err)
		}
		slog.Info("Rule store ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

		repo := database.NewRuleRepository(db)
		builder.Sources = append(builder.Sources, repo)
		store = repo
	}

	registry, err := rules.NewRegistry(ctx, builder)
	if err != nil {
		log.Fatal("Failed to load rules:", err)
	}
	slog.Info("Rules loaded", "count", registry.Current().Len())

	converted, rule, matched := registry.Current().Apply(sampleTitle)
	slog.Info("Test conversion", "original", sampleTitle, "converted", converted, "rule", rule, "matched", matched)

	if appCfg.WatchRules {
		watcher, err := rules.Watch(appCfg.RulesFile, registry, 500*time.Millisecond)
		if err != nil {
			log.Fatal("Failed to watch rules file:", err)
		}
		defer watcher.Close()
	}

	fetcher := feed.NewFetcher(&http.Client{}, appCfg.UserAgent, appCfg.FetchTimeout, appCfg.FetchRetries)

	apiHandler := api.NewHandler(fetcher, rewrite.NewRewriter(), feed.NewPreviewer(), registry, store, api.Options{
		SourceURL:       appCfg.SourceURL,
		PartialOnError:  appCfg.ParseErrorMode == cfg.ParseErrorModePartial,
		DefaultPriority: appCfg.DefaultPriority,
		Version:         appCfg.Version,
	})
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         appCfg.Addr(),
		Handler:      gzhttp.GzipHandler(server),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: appCfg.FetchTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", appCfg.Addr())
		slog.Info("Feed available", "url", fmt.Sprintf("http://%s/rss.xml", appCfg.Addr()))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("RSS Retitle server shutdown complete")
}

func setupLogger(level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
