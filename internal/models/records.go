package models

// Dates are stored as ISO date-only text (YYYY-MM-DD) so that range filters
// compare lexically and the driver never widens them into timestamps.

type Invoice struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	InvoiceID     string  `json:"invoice_id" gorm:"type:text;not null;uniqueIndex"`
	CustomerName  string  `json:"customer_name" gorm:"type:text;not null;index"`
	CustomerEmail string  `json:"customer_email" gorm:"type:text"`
	InvoiceDate   string  `json:"invoice_date" gorm:"type:text;index"`
	DueDate       string  `json:"due_date" gorm:"type:text"`
	Amount        float64 `json:"amount"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
	Status        string  `json:"status" gorm:"type:text;index"`
	PaymentMethod string  `json:"payment_method" gorm:"type:text"`
	Notes         string  `json:"notes" gorm:"type:text"`
}

func (Invoice) TableName() string {
	return GridInvoices
}

type Order struct {
	ID                uint    `json:"id" gorm:"primaryKey"`
	OrderID           string  `json:"order_id" gorm:"type:text;not null;uniqueIndex"`
	CustomerName      string  `json:"customer_name" gorm:"type:text;not null;index"`
	CustomerPhone     string  `json:"customer_phone" gorm:"type:text"`
	OrderDate         string  `json:"order_date" gorm:"type:text;index"`
	ShippingAddress   string  `json:"shipping_address" gorm:"type:text"`
	ItemsCount        int     `json:"items_count"`
	Subtotal          float64 `json:"subtotal"`
	ShippingCost      float64 `json:"shipping_cost"`
	Discount          float64 `json:"discount"`
	Total             float64 `json:"total"`
	Status            string  `json:"status" gorm:"type:text;index"`
	TrackingNumber    string  `json:"tracking_number" gorm:"type:text"`
	EstimatedDelivery string  `json:"estimated_delivery" gorm:"type:text"`
}

func (Order) TableName() string {
	return GridOrders
}
