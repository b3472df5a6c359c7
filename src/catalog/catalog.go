package catalog

import (
	"fmt"

	"stock-data-service/src/models"
)

// -----------------------------------------------------------------------------

// Seeded is the fixed listing served when the configuration does not override it.
func Seeded() []*models.Stock {
	return []*models.Stock{
		{StockId: "FB", StockName: "Facebook"},
		{StockId: "AAPL", StockName: "Apple"},
		{StockId: "AMZN", StockName: "Amazon"},
		{StockId: "NFLX", StockName: "Netflix"},
		{StockId: "MSFT", StockName: "Microsoft"},
		{StockId: "TSLA", StockName: "Tesla"},
		{StockId: "GOOG", StockName: "Alphabet"},
	}
}

// -----------------------------------------------------------------------------

// Catalog is the ordered, read-only stock list loaded once at startup.
// It is never mutated after New returns, so it needs no locking.
type Catalog struct {
	stocks []*models.Stock
	byID   map[string]*models.Stock
}

// -----------------------------------------------------------------------------

// New builds a catalog preserving insertion order. Duplicate or empty ids are rejected.
func New(stocks []*models.Stock) (*Catalog, error) {
	c := &Catalog{
		stocks: make([]*models.Stock, 0, len(stocks)),
		byID:   make(map[string]*models.Stock, len(stocks)),
	}

	for i, s := range stocks {
		if s == nil || s.StockId == "" {
			return nil, fmt.Errorf("stock %d: id cannot be empty", i)
		}
		if _, exists := c.byID[s.StockId]; exists {
			return nil, fmt.Errorf("duplicate stock id '%s'", s.StockId)
		}
		stock := &models.Stock{StockId: s.StockId, StockName: s.StockName}
		c.stocks = append(c.stocks, stock)
		c.byID[stock.StockId] = stock
	}

	return c, nil
}

// -----------------------------------------------------------------------------

// NewSeeded returns the catalog of the seven seeded stocks.
func NewSeeded() *Catalog {
	c, _ := New(Seeded())
	return c
}

// -----------------------------------------------------------------------------

// List returns the stocks in catalog order. The slice is a copy, entries are shared.
func (c *Catalog) List() []*models.Stock {
	out := make([]*models.Stock, len(c.stocks))
	copy(out, c.stocks)
	return out
}

// -----------------------------------------------------------------------------

// Lookup resolves a stock identifier.
func (c *Catalog) Lookup(stockID string) (*models.Stock, bool) {
	s, ok := c.byID[stockID]
	return s, ok
}

// -----------------------------------------------------------------------------

// Len returns the number of stocks.
func (c *Catalog) Len() int {
	return len(c.stocks)
}
