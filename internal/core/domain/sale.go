package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SKU identifies a catalog row.
type SKU int64

// CatalogItem is one product as stored in the catalog.
type CatalogItem struct {
	SKU       SKU
	Name      string
	BasePrice Money
}

// SaleLine is one item within a visit. It is immutable once built.
type SaleLine struct {
	SKU         SKU
	ProductName string
	UnitsSold   int
	UnitPrice   Money
	LineTotal   Money
	Timestamp   time.Time
}

// NewSaleLine builds a line and computes its total.
func NewSaleLine(item CatalogItem, units int, unitPrice Money, at time.Time) (SaleLine, error) {
	if units <= 0 {
		return SaleLine{}, fmt.Errorf("units sold must be positive, got %d", units)
	}
	if unitPrice < 0 {
		return SaleLine{}, errors.New("unit price must not be negative")
	}
	return SaleLine{
		SKU:         item.SKU,
		ProductName: item.Name,
		UnitsSold:   units,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice.Mul(units),
		Timestamp:   at,
	}, nil
}

// Description renders the line as "<units>x <productName>".
func (l SaleLine) Description() string {
	return fmt.Sprintf("%dx %s", l.UnitsSold, l.ProductName)
}

// VisitSummary is the outward view of one completed customer visit.
type VisitSummary struct {
	Items      []string
	TotalPrice Money
	Time       time.Time
}

// NewVisitSummary aggregates recorded lines, keeping their order.
func NewVisitSummary(lines []SaleLine, at time.Time) VisitSummary {
	summary := VisitSummary{
		Items: make([]string, 0, len(lines)),
		Time:  at,
	}
	for _, line := range lines {
		summary.Items = append(summary.Items, line.Description())
		summary.TotalPrice += line.LineTotal
	}
	return summary
}

// Message joins the item descriptions, e.g. "1x Milk, 2x Bread".
func (v VisitSummary) Message() string {
	return strings.Join(v.Items, ", ")
}

// RecentSale is one persisted line as shown in the recent-sales feed.
type RecentSale struct {
	ID          int64
	ProductName string
	TotalPrice  Money
	SoldAt      time.Time
}
