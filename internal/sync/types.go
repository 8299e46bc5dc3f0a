// Package sync provides orchestration for mirroring ERP orders into the local store.
package sync

import (
	"context"
	"time"

	"github.com/hallcrest/ordersync/internal/erp"
)

// Result contains the outcome of one sync run.
type Result struct {
	// DryRun indicates this was a dry-run (no writes to the mirror).
	DryRun bool

	// Errors lists every per-record failure, labeled with the order number
	// and, for line failures, the line position.
	Errors []string

	// LineItemsCreated is the number of new line item rows written.
	LineItemsCreated int

	// LineItemsUpdated is the number of existing line item rows refreshed.
	LineItemsUpdated int

	// OrdersCreated is the number of new order rows written.
	OrdersCreated int

	// OrdersFailed is the number of distinct orders whose write failed.
	OrdersFailed int

	// OrdersFetched is the number of orders returned by the source query.
	OrdersFetched int

	// OrdersUpdated is the number of existing order rows refreshed.
	OrdersUpdated int
}

// Mirror writes records to the local store keyed by their natural keys.
type Mirror interface {
	// UpsertOrder writes one order and returns the mirror row id plus whether
	// a new row was created.
	UpsertOrder(ctx context.Context, o erp.Order) (id int64, created bool, err error)

	// UpsertOrderLine writes one line item scoped to the owning order's mirror
	// row id and returns whether a new row was created.
	UpsertOrderLine(ctx context.Context, orderID int64, l erp.OrderLine) (created bool, err error)
}

// Source fetches orders and their line items from the ERP.
type Source interface {
	// OrderLines returns the line items of one order by its ERP identifier.
	OrderLines(ctx context.Context, orderID string) ([]erp.OrderLine, error)

	// Orders returns orders matching the query, in the ERP's ordering.
	Orders(ctx context.Context, q erp.Query) ([]erp.Order, error)
}

// StateStore persists the timestamp of the last successful run.
type StateStore interface {
	// LastRunTime returns the timestamp of the last successful run.
	LastRunTime(ctx context.Context) (time.Time, error)

	// SetLastRunTime updates the last run timestamp.
	SetLastRunTime(ctx context.Context, t time.Time) error
}
