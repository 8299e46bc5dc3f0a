// Package main provides the ordersync CLI for local and one-shot sync runs.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hallcrest/ordersync/internal/api"
	"github.com/hallcrest/ordersync/internal/config"
	"github.com/hallcrest/ordersync/internal/erp"
	"github.com/hallcrest/ordersync/internal/mirror"
	"github.com/hallcrest/ordersync/internal/storage"
	"github.com/hallcrest/ordersync/internal/sync"
)

// statusFlag collects repeatable -status values.
type statusFlag []erp.Status

func (s *statusFlag) String() string {
	parts := make([]string, len(*s))
	for i, status := range *s {
		parts[i] = string(status)
	}
	return strings.Join(parts, ",")
}

func (s *statusFlag) Set(value string) error {
	if value == "" {
		return fmt.Errorf("status cannot be empty")
	}
	*s = append(*s, erp.Status(value))
	return nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "init":
			exitOnError(runInit())
			return
		case "auth":
			exitOnError(runAuth())
			return
		}
	}

	var statuses statusFlag
	addr := flag.String("addr", ":8080", "listen address for serve mode")
	dryRun := flag.Bool("dry-run", false, "log intended writes without touching the mirror")
	end := flag.String("end", "", "end of the sync window (RFC 3339 or YYYY-MM-DD, default now)")
	limit := flag.Int("limit", 0, "maximum orders to process (default 5000)")
	serve := flag.Bool("serve", false, "run as an HTTP server instead of a one-shot sync")
	start := flag.String("start", "", "start of the sync window (RFC 3339 or YYYY-MM-DD)")
	workers := flag.Int("workers", 0, "concurrent order workers (0 = sequential)")
	flag.Var(&statuses, "status", "order status filter (repeatable)")
	flag.Parse()

	exitOnError(run(runOptions{
		addr:     *addr,
		dryRun:   *dryRun,
		end:      *end,
		limit:    *limit,
		logger:   logger,
		serve:    *serve,
		start:    *start,
		statuses: statuses,
		workers:  *workers,
	}))
}

// runOptions carries the parsed CLI flags.
type runOptions struct {
	addr     string
	dryRun   bool
	end      string
	limit    int
	logger   *slog.Logger
	serve    bool
	start    string
	statuses []erp.Status
	workers  int
}

func run(opts runOptions) error {
	cfg, err := config.LoadLocal()
	if err != nil {
		return err
	}

	tokenPath, err := config.TokenFilePath()
	if err != nil {
		return err
	}

	tokenStore, err := storage.NewFileTokenStore(tokenPath)
	if err != nil {
		return err
	}

	var clientOpts []erp.Option
	if cfg.ERP.BaseURL != "" {
		clientOpts = append(clientOpts, erp.WithBaseURL(cfg.ERP.BaseURL))
	}
	if cfg.ERP.TokenURL != "" {
		clientOpts = append(clientOpts, erp.WithTokenURL(cfg.ERP.TokenURL))
	}

	client, err := erp.NewClient(erp.Config{
		ClientID:     cfg.ERP.ClientID,
		ClientSecret: cfg.ERP.ClientSecret,
		TokenStore:   tokenStore,
	}, clientOpts...)
	if err != nil {
		return fmt.Errorf("creating ERP client: %w", err)
	}

	store, err := mirror.Open(cfg.Mirror.DBPath)
	if err != nil {
		return fmt.Errorf("opening mirror database: %w", err)
	}
	defer func() { _ = store.Close() }()

	service, err := sync.New(sync.Config{
		DryRun:     opts.dryRun,
		Logger:     opts.logger,
		Mirror:     store,
		Source:     client,
		StateStore: storage.NewNoopStateStore(time.Time{}),
		Workers:    opts.workers,
	})
	if err != nil {
		return fmt.Errorf("creating sync service: %w", err)
	}

	if opts.serve {
		return serveHTTP(opts.addr, opts.logger, service)
	}

	return runOnce(service, opts)
}

// runOnce executes a single sync pass and prints the result to stdout.
func runOnce(service *sync.Service, opts runOptions) error {
	query := erp.Query{
		Limit:    opts.limit,
		Statuses: opts.statuses,
	}

	var err error
	if query.Start, err = parseWindowFlag("start", opts.start); err != nil {
		return err
	}
	if query.End, err = parseWindowFlag("end", opts.end); err != nil {
		return err
	}

	result, err := service.Run(context.Background(), query)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func serveHTTP(addr string, logger *slog.Logger, service *sync.Service) error {
	handler, err := api.New(api.Config{
		Logger:  logger,
		Service: service,
	})
	if err != nil {
		return fmt.Errorf("creating handler: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/sync", handler)
	mux.HandleFunc("/runs", handler.RunStatus)

	logger.Info("listening", "addr", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}

// parseWindowFlag parses a window boundary flag, accepting RFC 3339
// timestamps and plain dates. Empty means unset.
func parseWindowFlag(name string, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid -%s value %q", name, value)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
