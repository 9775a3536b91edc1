package models

// Grid keys. They double as the allow-list of queryable tables.
const (
	GridInvoices = "invoices"
	GridOrders   = "orders"
)

type ColumnType string

const (
	ColumnText   ColumnType = "text"
	ColumnNumber ColumnType = "number"
	ColumnDate   ColumnType = "date"
)

// ColumnDef is the static configuration of one grid column
type ColumnDef struct {
	Field       string     `json:"field"`
	HeaderName  string     `json:"headerName"`
	Type        ColumnType `json:"type"`
	Hide        bool       `json:"hide,omitempty"`
	InitialHide bool       `json:"initialHide,omitempty"`
}

// InitiallyHidden prefers InitialHide and falls back to Hide
func (c ColumnDef) InitiallyHidden() bool {
	return c.InitialHide || c.Hide
}

var InvoiceColumns = []ColumnDef{
	{Field: "invoice_id", HeaderName: "Invoice ID", Type: ColumnText},
	{Field: "customer_name", HeaderName: "Customer Name", Type: ColumnText},
	{Field: "customer_email", HeaderName: "Customer Email", Type: ColumnText, Hide: true},
	{Field: "invoice_date", HeaderName: "Invoice Date", Type: ColumnDate},
	{Field: "due_date", HeaderName: "Due Date", Type: ColumnDate},
	{Field: "amount", HeaderName: "Amount", Type: ColumnNumber, Hide: true},
	{Field: "tax", HeaderName: "Tax", Type: ColumnNumber, Hide: true},
	{Field: "total", HeaderName: "Total", Type: ColumnNumber},
	{Field: "status", HeaderName: "Status", Type: ColumnText},
	{Field: "payment_method", HeaderName: "Payment Method", Type: ColumnText, Hide: true},
	{Field: "notes", HeaderName: "Notes", Type: ColumnText, Hide: true},
}

var OrderColumns = []ColumnDef{
	{Field: "order_id", HeaderName: "Order ID", Type: ColumnText},
	{Field: "customer_name", HeaderName: "Customer Name", Type: ColumnText},
	{Field: "customer_phone", HeaderName: "Customer Phone", Type: ColumnText, InitialHide: true},
	{Field: "order_date", HeaderName: "Order Date", Type: ColumnDate},
	{Field: "shipping_address", HeaderName: "Shipping Address", Type: ColumnText, InitialHide: true},
	{Field: "items_count", HeaderName: "Items Count", Type: ColumnNumber},
	{Field: "subtotal", HeaderName: "Subtotal", Type: ColumnNumber, InitialHide: true},
	{Field: "shipping_cost", HeaderName: "Shipping Cost", Type: ColumnNumber, InitialHide: true},
	{Field: "discount", HeaderName: "Discount", Type: ColumnNumber, InitialHide: true},
	{Field: "total", HeaderName: "Total", Type: ColumnNumber},
	{Field: "status", HeaderName: "Status", Type: ColumnText},
	{Field: "tracking_number", HeaderName: "Tracking Number", Type: ColumnText},
	{Field: "estimated_delivery", HeaderName: "Estimated Delivery", Type: ColumnDate, InitialHide: true},
}

// GridKeys lists every known grid in display order
func GridKeys() []string {
	return []string{GridInvoices, GridOrders}
}

// IsKnownGrid reports whether key names one of the queryable grids
func IsKnownGrid(key string) bool {
	_, ok := ColumnDefsFor(key)
	return ok
}

// ColumnDefsFor returns the column configuration of a grid
func ColumnDefsFor(gridKey string) ([]ColumnDef, bool) {
	switch gridKey {
	case GridInvoices:
		return InvoiceColumns, true
	case GridOrders:
		return OrderColumns, true
	default:
		return nil, false
	}
}
