package ports

import (
	"RetailPulse/internal/core/domain"
	"context"
)

// SaleStore is the catalog/transaction gateway used by the producer.
type SaleStore interface {
	// PickRandomItems returns up to n distinct catalog items chosen uniformly.
	// It may return fewer when the catalog is smaller.
	PickRandomItems(ctx context.Context, n int) ([]domain.CatalogItem, error)

	// RecordSale appends one line. Errors are *domain.StoreError.
	RecordSale(ctx context.Context, line domain.SaleLine) error
}

// SalesFeed serves the most recent persisted lines, newest first.
type SalesFeed interface {
	RecentSales(ctx context.Context, limit int) ([]domain.RecentSale, error)
}
