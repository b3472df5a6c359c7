package models

import (
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// -----------------------------------------------------------------------------

// Stock is a catalog entry. Identifiers are unique and never change.
type Stock struct {
	StockId   string `json:"stockId" yaml:"id"`
	StockName string `json:"stockName,omitempty" yaml:"name"`
}

// -----------------------------------------------------------------------------

// StockListing is the response of GetStockListings, in catalog order.
type StockListing struct {
	Stocks []*Stock `json:"stocks"`
}

// -----------------------------------------------------------------------------

// StockPrice is a single synthetic price sample. Stock is nil when the
// requested identifier is not in the catalog.
type StockPrice struct {
	Stock         *Stock                 `json:"stock,omitempty"`
	Price         int32                  `json:"price"`
	DateTimeStamp *timestamppb.Timestamp `json:"dateTimeStamp"`
}

// -----------------------------------------------------------------------------

// GetStockId returns the identifier of the sampled stock or "" when unresolved.
func (p *StockPrice) GetStockId() string {
	if p == nil || p.Stock == nil {
		return ""
	}
	return p.Stock.StockId
}

// -----------------------------------------------------------------------------

// Time returns the sample timestamp as time.Time.
func (p *StockPrice) Time() time.Time {
	if p == nil || p.DateTimeStamp == nil {
		return time.Time{}
	}
	return p.DateTimeStamp.AsTime()
}

// -----------------------------------------------------------------------------

// StockPriceList is the single batched response of GetStocksPrices.
type StockPriceList struct {
	Prices []*StockPrice `json:"prices"`
}
