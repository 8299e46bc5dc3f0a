package mirror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hallcrest/ordersync/internal/erp"
)

// OrderRow is an order as stored in the mirror.
type OrderRow struct {
	// Currency is the three-letter currency code.
	Currency string

	// CustomerID is the ERP identifier of the customer.
	CustomerID string

	// CustomerName is the display name of the customer.
	CustomerName string

	// Date is the transaction date of the order.
	Date time.Time

	// Department is the department the order is attributed to.
	Department string

	// ID is the mirror's row identifier.
	ID int64

	// Location is the location the order is attributed to.
	Location string

	// Number is the human-readable order number.
	Number string

	// SourceID is the ERP's immutable order identifier.
	SourceID string

	// Status is the order status at last sync.
	Status string

	// SyncedAt is when the row was last written by a sync run.
	SyncedAt time.Time

	// Total is the order total.
	Total float64

	// UpdatedAt is when the row was last touched by a sync run.
	UpdatedAt time.Time
}

// LineRow is a line item as stored in the mirror.
type LineRow struct {
	// Amount is the extended line amount.
	Amount float64

	// Closed indicates the line is closed.
	Closed bool

	// Department is the department the line is attributed to.
	Department string

	// ID is the mirror's row identifier.
	ID int64

	// ItemID is the ERP identifier of the item on the line.
	ItemID string

	// ItemName is the display name of the item.
	ItemName string

	// LineNumber is the 1-based position of the line on the order.
	LineNumber int

	// OrderID is the mirror row id of the owning order.
	OrderID int64

	// Quantity is the ordered quantity.
	Quantity float64

	// SourceLineID is the ERP's line identifier, unique within the order.
	SourceLineID string

	// UnitCost is the per-unit cost.
	UnitCost float64
}

// UpsertOrder writes one order keyed by its ERP identifier and returns the
// mirror row id plus whether a new row was created.
//
// The existence check only classifies the outcome for reporting; the write
// itself is an atomic ON CONFLICT upsert, so a concurrent insert between the
// two statements can at worst mislabel created-vs-updated, never corrupt the
// row.
func (s *Store) UpsertOrder(ctx context.Context, o erp.Order) (id int64, created bool, err error) {
	if o.ID == "" {
		return 0, false, errors.New("order source ID is required")
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE source_id = ?`, o.ID).Scan(&existingID)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("upsert order: checking existence: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders
		(source_id, order_number, order_date, status, customer_id, customer_name,
		 department, location, currency, total, source_updated_at, synced_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			order_number      = excluded.order_number,
			order_date        = excluded.order_date,
			status            = excluded.status,
			customer_id       = excluded.customer_id,
			customer_name     = excluded.customer_name,
			department        = excluded.department,
			location          = excluded.location,
			currency          = excluded.currency,
			total             = excluded.total,
			source_updated_at = excluded.source_updated_at,
			synced_at         = excluded.synced_at,
			updated_at        = excluded.updated_at
	`,
		o.ID,
		o.Number,
		o.Date.UTC().Format(time.RFC3339),
		string(o.Status),
		o.CustomerID,
		o.CustomerName,
		o.Department,
		o.Location,
		o.Currency,
		o.Total,
		formatNullableTime(o.UpdatedAt),
		now,
		now,
	)
	if err != nil {
		return 0, false, fmt.Errorf("upsert order: %w", err)
	}

	// ON CONFLICT DO UPDATE makes LastInsertId unreliable; resolve the row id
	// by the conflict key instead.
	err = s.db.QueryRowContext(ctx, `SELECT id FROM orders WHERE source_id = ?`, o.ID).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("upsert order: resolving row id: %w", err)
	}

	return id, !exists, nil
}

// UpsertOrderLine writes one line item scoped to its owning order's mirror row
// id and returns whether a new row was created. The conflict key is the pair
// (order_id, source_line_id); the same ERP line id under two different orders
// never collides.
func (s *Store) UpsertOrderLine(ctx context.Context, orderID int64, l erp.OrderLine) (created bool, err error) {
	if orderID <= 0 {
		return false, errors.New("order row ID is required")
	}
	if l.ID == "" {
		return false, errors.New("line source ID is required")
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM order_lines WHERE order_id = ? AND source_line_id = ?`,
		orderID, l.ID,
	).Scan(&existingID)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("upsert order line: checking existence: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO order_lines
		(order_id, source_line_id, line_number, item_id, item_name, department,
		 quantity, unit_cost, amount, closed, synced_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(order_id, source_line_id) DO UPDATE SET
			line_number = excluded.line_number,
			item_id     = excluded.item_id,
			item_name   = excluded.item_name,
			department  = excluded.department,
			quantity    = excluded.quantity,
			unit_cost   = excluded.unit_cost,
			amount      = excluded.amount,
			closed      = excluded.closed,
			synced_at   = excluded.synced_at,
			updated_at  = excluded.updated_at
	`,
		orderID,
		l.ID,
		l.LineNumber,
		l.ItemID,
		l.ItemName,
		l.Department,
		l.Quantity,
		l.UnitCost,
		l.Amount,
		boolToInt(l.Closed),
		now,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("upsert order line: %w", err)
	}

	return !exists, nil
}

// OrderBySourceID returns the mirrored order with the given ERP identifier,
// or sql.ErrNoRows if it has never been synced.
func (s *Store) OrderBySourceID(ctx context.Context, sourceID string) (OrderRow, error) {
	var row OrderRow
	var orderDate, syncedAt, updatedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_id, order_number, order_date, status, customer_id,
		       customer_name, department, location, currency, total, synced_at, updated_at
		FROM orders WHERE source_id = ?
	`, sourceID).Scan(
		&row.ID,
		&row.SourceID,
		&row.Number,
		&orderDate,
		&row.Status,
		&row.CustomerID,
		&row.CustomerName,
		&row.Department,
		&row.Location,
		&row.Currency,
		&row.Total,
		&syncedAt,
		&updatedAt,
	)
	if err != nil {
		return OrderRow{}, fmt.Errorf("order by source id: %w", err)
	}

	row.Date, _ = time.Parse(time.RFC3339, orderDate)
	row.SyncedAt, _ = time.Parse(time.RFC3339, syncedAt)
	row.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return row, nil
}

// LinesByOrder returns the mirrored line items of one order, in line order.
func (s *Store) LinesByOrder(ctx context.Context, orderID int64) ([]LineRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, source_line_id, line_number, item_id, item_name,
		       department, quantity, unit_cost, amount, closed
		FROM order_lines WHERE order_id = ?
		ORDER BY line_number, source_line_id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("lines by order: %w", err)
	}
	defer rows.Close()

	var lines []LineRow
	for rows.Next() {
		var line LineRow
		var closed int
		if err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.SourceLineID,
			&line.LineNumber,
			&line.ItemID,
			&line.ItemName,
			&line.Department,
			&line.Quantity,
			&line.UnitCost,
			&line.Amount,
			&closed,
		); err != nil {
			return nil, fmt.Errorf("lines by order: scanning row: %w", err)
		}
		line.Closed = closed != 0
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lines by order: %w", err)
	}

	return lines, nil
}

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// formatNullableTime renders a timestamp, using the empty string for the zero value.
func formatNullableTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
