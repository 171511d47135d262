// Package snapshot defines the bus payload shapes exchanged between
// the Query worker and the evaluators, and between the Timer
// dispatcher and everything it drives.
package snapshot

import "tradectl/internal/model"

// ReadRequest is the database.read payload the Timer publishes and the
// Query worker consumes.
type ReadRequest struct {
	Type   string       `json:"type"` // "profit" or "trends"
	Stamp  int64        `json:"stamp,omitempty"`
	Params ReadParams   `json:"params"`
}

// ReadParams carries the trends request's window sizing; unused by a
// profit request.
type ReadParams struct {
	Lookahead  int64 `json:"lookahead,omitempty"`
	Lookbehind int64 `json:"lookbehind,omitempty"`
}

// ProfitSnapshot is published on requested.profit.
type ProfitSnapshot struct {
	Stamp        int64                      `json:"stamp"`
	ActiveOrders int                        `json:"active_orders"`
	Budget       model.Budget               `json:"budget"`
	Portfolio    []model.PortfolioAggregate `json:"portfolio"`
	Prices       []model.PriceQuote         `json:"prices"`
}

// TrendsSnapshot is published on requested.trends.
type TrendsSnapshot struct {
	Stamp        int64                `json:"stamp"`
	ActiveOrders int                  `json:"active_orders"`
	Budget       model.Budget         `json:"budget"`
	Transactions []model.Transaction  `json:"transactions"`
}

// OrdersMakeRequest is the orders.make payload consumed by the broker.
type OrdersMakeRequest struct {
	Stamp     int64 `json:"stamp,omitempty"`
	Lookahead int64 `json:"lookahead,omitempty"`
}

// DatabaseSaveRequest is the database.save payload: a table name and
// its columnar row data. TableDesc uses the spec's columnar shape
// (column -> row index -> value); producers in this codebase build it
// directly from typed slices rather than round-tripping a dataframe.
type DatabaseSaveRequest struct {
	TableName string                    `json:"table_name"`
	TableDesc map[string]map[string]any `json:"table_desc"`
}
