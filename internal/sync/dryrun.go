package sync

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/hallcrest/ordersync/internal/erp"
)

// dryRunMirror wraps a Mirror and logs write operations instead of executing them.
// Every order reports as created; without writing there is nothing to classify.
type dryRunMirror struct {
	counter atomic.Int64
	logger  *slog.Logger
	mirror  Mirror
}

// newDryRunMirror creates a new dryRunMirror that wraps the given Mirror.
func newDryRunMirror(mirror Mirror, logger *slog.Logger) *dryRunMirror {
	return &dryRunMirror{
		logger: logger,
		mirror: mirror,
	}
}

// UpsertOrder logs what would be written and returns a fabricated row id.
func (d *dryRunMirror) UpsertOrder(_ context.Context, o erp.Order) (int64, bool, error) {
	fakeID := d.counter.Add(1)

	d.logger.Info("[DRY-RUN] would upsert order",
		"fake_row_id", fakeID,
		"source_id", o.ID,
		"number", o.Number,
		"status", o.Status,
		"total", o.Total)

	return fakeID, true, nil
}

// UpsertOrderLine logs what would be written.
func (d *dryRunMirror) UpsertOrderLine(_ context.Context, orderID int64, l erp.OrderLine) (bool, error) {
	d.logger.Info("[DRY-RUN] would upsert order line",
		"order_row_id", orderID,
		"source_line_id", l.ID,
		"line_number", l.LineNumber,
		"quantity", l.Quantity,
		"amount", l.Amount)

	return true, nil
}
