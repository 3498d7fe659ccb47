package postgres

import (
	"RetailPulse/internal/core/domain"
	"RetailPulse/internal/core/ports"
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type saleRepository struct {
	db      *DB
	storeID string
	channel string
	log     zerolog.Logger
}

var (
	_ ports.SaleStore = (*saleRepository)(nil) // Ensure compliance
	_ ports.SalesFeed = (*saleRepository)(nil)
)

// SaleRepository is both the producer's store gateway and the recent-sales feed.
type SaleRepository interface {
	ports.SaleStore
	ports.SalesFeed
}

// NewSaleRepository creates a repository that records lines for one store and channel.
func NewSaleRepository(db *DB, storeID, channel string, baseLogger *zerolog.Logger) SaleRepository {
	return &saleRepository{
		db:      db,
		storeID: storeID,
		channel: channel,
		log:     baseLogger.With().Str("component", "sale_repo").Logger(),
	}
}

// PickRandomItems returns up to n distinct catalog rows in random order.
func (r *saleRepository) PickRandomItems(ctx context.Context, n int) ([]domain.CatalogItem, error) {
	if n <= 0 {
		return nil, nil
	}

	query := `
		SELECT sku_id, product_name, (base_price * 100)::bigint
		FROM sku_master
		ORDER BY random()
		LIMIT $1
	`
	rows, err := r.db.pool.Query(ctx, query, n)
	if err != nil {
		r.log.Error().Err(err).Int("n", n).Msg("Failed to query catalog")
		return nil, classifyError("pick_items", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CatalogItem, error) {
		var item domain.CatalogItem
		var skuID, basePrice int64
		if err := row.Scan(&skuID, &item.Name, &basePrice); err != nil {
			return item, err
		}
		item.SKU = domain.SKU(skuID)
		item.BasePrice = domain.Money(basePrice)
		return item, nil
	})
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to scan catalog rows")
		return nil, classifyError("pick_items", err)
	}
	return items, nil
}

// RecordSale inserts one line as its own statement.
func (r *saleRepository) RecordSale(ctx context.Context, line domain.SaleLine) error {
	query := `
		INSERT INTO sales_transactions (
			sales_date, sku_id, store_id, units_sold, unit_price, total_price, discount, channel
		) VALUES ($1, $2, $3, $4, $5::bigint / 100.0, $6::bigint / 100.0, 0, $7)
	`
	_, err := r.db.pool.Exec(ctx, query,
		line.Timestamp,
		int64(line.SKU),
		r.storeID,
		line.UnitsSold,
		int64(line.UnitPrice),
		int64(line.LineTotal),
		r.channel,
	)
	if err != nil {
		r.log.Error().Err(err).Int64("sku_id", int64(line.SKU)).Msg("Failed to insert sale line")
		return classifyError("record_sale", err)
	}
	return nil
}

// RecentSales returns the newest lines first.
func (r *saleRepository) RecentSales(ctx context.Context, limit int) ([]domain.RecentSale, error) {
	query := `
		SELECT s.id, m.product_name, (s.total_price * 100)::bigint, s.sales_date
		FROM sales_transactions s
		JOIN sku_master m ON s.sku_id = m.sku_id
		ORDER BY s.id DESC
		LIMIT $1
	`
	rows, err := r.db.pool.Query(ctx, query, limit)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query recent sales")
		return nil, classifyError("recent_sales", err)
	}

	sales, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RecentSale, error) {
		var sale domain.RecentSale
		var total int64
		var soldAt time.Time
		if err := row.Scan(&sale.ID, &sale.ProductName, &total, &soldAt); err != nil {
			return sale, err
		}
		sale.TotalPrice = domain.Money(total)
		sale.SoldAt = soldAt
		return sale, nil
	})
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to scan recent sales")
		return nil, classifyError("recent_sales", err)
	}
	return sales, nil
}
