// Package erp provides a client for the ERP's REST API.
package erp

import (
	"strconv"
	"time"
)

const (
	// StatusApproved represents an order approved for fulfilment.
	StatusApproved Status = "approved"

	// StatusBilled represents a fully billed order.
	StatusBilled Status = "billed"

	// StatusCancelled represents a cancelled order.
	StatusCancelled Status = "cancelled"

	// StatusClosed represents a closed order.
	StatusClosed Status = "closed"

	// StatusFulfilled represents a fully fulfilled order.
	StatusFulfilled Status = "fulfilled"

	// StatusPendingApproval represents an order awaiting approval.
	StatusPendingApproval Status = "pending_approval"
)

// Status is an ERP order status code.
type Status string

// Order represents a sales order in the ERP.
type Order struct {
	// Currency is the three-letter currency code.
	Currency string `json:"currency"`

	// CustomerID is the ERP identifier of the customer.
	CustomerID string `json:"customerId"`

	// CustomerName is the display name of the customer.
	CustomerName string `json:"customerName"`

	// Date is the transaction date of the order.
	Date time.Time `json:"orderDate"`

	// Department is the department the order is attributed to.
	Department string `json:"department"`

	// ID is the ERP's immutable order identifier.
	ID string `json:"id"`

	// Location is the location the order is attributed to.
	Location string `json:"location"`

	// Number is the human-readable order number.
	Number string `json:"orderNumber"`

	// Status is the current order status.
	Status Status `json:"status"`

	// Total is the order total in the order's currency.
	Total float64 `json:"total"`

	// UpdatedAt is when the order was last modified in the ERP.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Label returns a human-identifiable label for the order, preferring the
// order number over the raw identifier.
func (o Order) Label() string {
	if o.Number != "" {
		return o.Number
	}
	return o.ID
}

// OrderLine represents one line item on a sales order.
type OrderLine struct {
	// Amount is the extended line amount.
	Amount float64 `json:"amount"`

	// Closed indicates the line is closed and no longer fulfillable.
	Closed bool `json:"isClosed"`

	// Department is the department the line is attributed to.
	Department string `json:"department"`

	// ID is the ERP's line identifier, unique within the owning order.
	ID string `json:"id"`

	// ItemID is the ERP identifier of the item on the line.
	ItemID string `json:"itemId"`

	// ItemName is the display name of the item.
	ItemName string `json:"itemName"`

	// LineNumber is the 1-based position of the line on the order.
	LineNumber int `json:"lineNumber"`

	// Quantity is the ordered quantity.
	Quantity float64 `json:"quantity"`

	// UnitCost is the per-unit cost.
	UnitCost float64 `json:"unitCost"`
}

// Label returns a human-identifiable label for the line, preferring the
// line number over the raw identifier.
func (l OrderLine) Label() string {
	if l.LineNumber > 0 {
		return strconv.Itoa(l.LineNumber)
	}
	return l.ID
}

// Query selects which orders to fetch.
type Query struct {
	// End is the inclusive upper bound on the order date.
	End time.Time

	// Limit caps the number of orders returned. Zero means no explicit cap;
	// the client still applies its own default.
	Limit int

	// Start is the inclusive lower bound on the order date.
	Start time.Time

	// Statuses restricts results to the given status codes. Empty means no
	// status filtering.
	Statuses []Status
}

// linesResponse is the API envelope for a line item listing.
type linesResponse struct {
	Data []OrderLine `json:"data"`
}

// ordersResponse is the API envelope for a paginated order listing.
type ordersResponse struct {
	Data       []Order `json:"data"`
	NextCursor string  `json:"nextCursor"`
}
