package model

import (
	"github.com/shopspring/decimal"
)

// GroupStat is an order aggregate keyed by a grouping dimension
// (textbook type, publisher or textbook).
type GroupStat struct {
	Label         string `json:"label"`
	OrderCount    int    `json:"order_count"`
	TotalQuantity int    `json:"total_quantity"`
	TotalArrived  int    `json:"total_arrived"`
	TotalIssued   int    `json:"total_issued"`
}

// MonthlyStat is an order aggregate per calendar month.
type MonthlyStat struct {
	Month         string `json:"month"`
	OrderCount    int    `json:"order_count"`
	TotalQuantity int    `json:"total_quantity"`
	TotalArrived  int    `json:"total_arrived"`
}

// Dashboard is the landing-page summary.
type Dashboard struct {
	TotalTextbooks    int             `json:"total_textbooks"`
	TotalOrders       int             `json:"total_orders"`
	PendingOrders     int             `json:"pending_orders"`
	ArrivedOrders     int             `json:"arrived_orders"`
	TotalStock        int             `json:"total_stock"`
	StockValue        decimal.Decimal `json:"stock_value"`
	LowStockCount     int             `json:"low_stock_count"`
	HighStockCount    int             `json:"high_stock_count"`
	StockInsThisMonth int             `json:"stock_ins_this_month"`
}

// DateRange bounds a statistics query. Empty strings mean unbounded;
// values are ISO dates (2006-01-02).
type DateRange struct {
	From string
	To   string
}
