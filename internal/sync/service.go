package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdsync "sync"
	"time"

	"github.com/hallcrest/ordersync/internal/erp"
)

const (
	// defaultLimit bounds the number of orders processed per run when the
	// caller doesn't supply one.
	defaultLimit = 5000

	// defaultLookbackYears is how far back the first run reaches when no
	// previous run time is recorded.
	defaultLookbackYears = 1
)

// Config holds the required configuration for creating a Service.
type Config struct {
	// DryRun indicates whether to skip writes to the mirror.
	DryRun bool

	// Logger is the structured logger for the service.
	Logger *slog.Logger

	// Mirror is the local store orders are written to.
	Mirror Mirror

	// Source is the ERP client orders are fetched from.
	Source Source

	// StateStore persists the last successful run time, used to default the
	// query window. Required; use a noop store when persistence is unwanted.
	StateStore StateStore

	// Workers is the number of orders processed concurrently. Values below 2
	// keep the strictly sequential model, which also preserves the source's
	// ordering of error entries.
	Workers int
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.Mirror == nil {
		errs = append(errs, errors.New("mirror store is required"))
	}
	if c.Source == nil {
		errs = append(errs, errors.New("source client is required"))
	}
	if c.StateStore == nil {
		errs = append(errs, errors.New("state store is required"))
	}
	return errors.Join(errs...)
}

// Service orchestrates one-pass syncs from the ERP into the mirror.
type Service struct {
	dryRun     bool
	logger     *slog.Logger
	mirror     Mirror
	source     Source
	stateStore StateStore
	workers    int
}

// orderOutcome is the result of processing a single order, folded into the
// Result by the aggregating loop.
type orderOutcome struct {
	// created indicates a new order row was written (vs refreshed).
	created bool

	// failureMsg is the labeled error entry when the order write failed.
	failureMsg string

	// lineErrors are labeled error entries for line-level failures.
	lineErrors []string

	// linesCreated / linesUpdated are this order's line item counts.
	linesCreated int
	linesUpdated int
}

// New creates a new sync orchestration service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mirror := cfg.Mirror
	if cfg.DryRun {
		mirror = newDryRunMirror(cfg.Mirror, logger)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Service{
		dryRun:     cfg.DryRun,
		logger:     logger,
		mirror:     mirror,
		source:     cfg.Source,
		stateStore: cfg.StateStore,
		workers:    workers,
	}, nil
}

// Run executes one full sync pass over orders matching the query.
//
// A failure of the order fetch itself is fatal and returned as an error with
// no Result. Every other failure is isolated to its record and reported in
// Result.Errors; the loop never aborts early.
func (s *Service) Run(ctx context.Context, q erp.Query) (*Result, error) {
	result := &Result{DryRun: s.dryRun}

	q, err := s.resolveQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	s.logger.Info("starting sync",
		"start", q.Start,
		"end", q.End,
		"statuses", q.Statuses,
		"limit", q.Limit,
		"dry_run", s.dryRun)

	orders, err := s.source.Orders(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetching orders: %w", err)
	}

	result.OrdersFetched = len(orders)
	s.logger.Info("fetched orders", "count", len(orders))

	if s.workers > 1 {
		s.runConcurrent(ctx, result, orders)
	} else {
		for _, order := range orders {
			s.fold(result, s.processOrder(ctx, order))
		}
	}

	if !s.dryRun {
		// The marker must be the fetched window's upper bound, not the
		// current time: stamping time.Now() after a run with an explicit
		// past End would jump the marker over orders no window ever
		// covered, and defaulted runs would skip orders dated between
		// the resolved End and the end of the run.
		if err := s.stateStore.SetLastRunTime(ctx, q.End); err != nil {
			// The mirror is already up to date; a stale marker only widens
			// the next run's window.
			s.logger.Error("failed to update last run time", "error", err)
		}
	}

	s.logRunComplete(result)
	return result, nil
}

// runConcurrent processes independent orders on a fixed-size worker pool.
// Outcomes funnel back to this single goroutine, which alone mutates the
// Result; line items within one order remain sequential.
func (s *Service) runConcurrent(ctx context.Context, result *Result, orders []erp.Order) {
	jobs := make(chan erp.Order)
	outcomes := make(chan orderOutcome)

	var wg stdsync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for order := range jobs {
				outcomes <- s.processOrder(ctx, order)
			}
		}()
	}

	go func() {
		for _, order := range orders {
			jobs <- order
		}
		close(jobs)
		wg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		s.fold(result, outcome)
	}
}

// fold accumulates one order's outcome into the run result.
func (s *Service) fold(result *Result, outcome orderOutcome) {
	if outcome.failureMsg != "" {
		result.OrdersFailed++
		result.Errors = append(result.Errors, outcome.failureMsg)
		return
	}

	if outcome.created {
		result.OrdersCreated++
	} else {
		result.OrdersUpdated++
	}
	result.LineItemsCreated += outcome.linesCreated
	result.LineItemsUpdated += outcome.linesUpdated
	result.Errors = append(result.Errors, outcome.lineErrors...)
}

// processOrder upserts one order and, on success, its line items.
// A failed order write means zero line writes for that order in this run.
func (s *Service) processOrder(ctx context.Context, order erp.Order) orderOutcome {
	outcome := orderOutcome{}

	orderID, created, err := s.mirror.UpsertOrder(ctx, order)
	if err != nil {
		outcome.failureMsg = fmt.Sprintf("%s: %s", order.Label(), err)
		s.logger.Error("failed to upsert order",
			"order", order.Label(),
			"source_id", order.ID,
			"error", err)
		return outcome
	}
	outcome.created = created

	s.syncLines(ctx, order, orderID, &outcome)

	s.logger.Info("processed order",
		"order", order.Label(),
		"created", created,
		"lines_created", outcome.linesCreated,
		"lines_updated", outcome.linesUpdated,
		"line_errors", len(outcome.lineErrors))

	return outcome
}

// syncLines fetches and upserts the line items of one successfully-written
// order. A failed line fetch is recorded as a single error entry and leaves
// the order's existing lines untouched; a failed line write is recorded
// individually and does not stop the remaining lines.
func (s *Service) syncLines(ctx context.Context, order erp.Order, orderID int64, outcome *orderOutcome) {
	lines, err := s.source.OrderLines(ctx, order.ID)
	if err != nil {
		outcome.lineErrors = append(outcome.lineErrors,
			fmt.Sprintf("%s line items: %s", order.Label(), err))
		s.logger.Warn("failed to fetch order lines; order row synced without lines",
			"order", order.Label(),
			"error", err)
		return
	}

	for _, line := range lines {
		created, err := s.mirror.UpsertOrderLine(ctx, orderID, line)
		if err != nil {
			outcome.lineErrors = append(outcome.lineErrors,
				fmt.Sprintf("%s line %s: %s", order.Label(), line.Label(), err))
			s.logger.Error("failed to upsert order line",
				"order", order.Label(),
				"line", line.Label(),
				"error", err)
			continue
		}
		if created {
			outcome.linesCreated++
		} else {
			outcome.linesUpdated++
		}
	}
}

// resolveQuery fills unset query fields: the end of the window defaults to
// now, the start to the last successful run time (falling back to one year
// ago), and the limit to the fixed cap.
func (s *Service) resolveQuery(ctx context.Context, q erp.Query) (erp.Query, error) {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.End.IsZero() {
		q.End = time.Now()
	}
	if q.Start.IsZero() {
		lastRun, err := s.stateStore.LastRunTime(ctx)
		if err != nil {
			return q, fmt.Errorf("getting last run time: %w", err)
		}
		if lastRun.IsZero() {
			lastRun = q.End.AddDate(-defaultLookbackYears, 0, 0)
			s.logger.Info("initial sync detected", "start", lastRun)
		}
		q.Start = lastRun
	}
	return q, nil
}

// logRunComplete logs the final run summary.
func (s *Service) logRunComplete(result *Result) {
	s.logger.Info("sync completed",
		"orders_fetched", result.OrdersFetched,
		"orders_created", result.OrdersCreated,
		"orders_updated", result.OrdersUpdated,
		"orders_failed", result.OrdersFailed,
		"line_items_created", result.LineItemsCreated,
		"line_items_updated", result.LineItemsUpdated,
		"errors", len(result.Errors),
		"dry_run", s.dryRun)
}
