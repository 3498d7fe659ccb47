package postgres

import (
	"RetailPulse/internal/core/domain"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestSaleRepository_PickRandomItems(t *testing.T) {
	db := requireDB(t)
	nopLogger := zerolog.Nop()
	repo := NewSaleRepository(db, "TEST_"+uuid.NewString(), "Retail", &nopLogger)

	items, err := repo.PickRandomItems(context.Background(), 3)
	if err != nil {
		t.Fatalf("PickRandomItems failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items from the seeded catalog, want 3", len(items))
	}

	seen := map[domain.SKU]bool{}
	for _, item := range items {
		if seen[item.SKU] {
			t.Errorf("sku %d returned twice in one pick", item.SKU)
		}
		seen[item.SKU] = true
		if item.Name == "" || item.BasePrice <= 0 {
			t.Errorf("incomplete catalog item: %+v", item)
		}
	}

	none, err := repo.PickRandomItems(context.Background(), 0)
	if err != nil || len(none) != 0 {
		t.Errorf("PickRandomItems(0) = %v, %v; want empty, nil", none, err)
	}
}

func TestSaleRepository_RecordSale_RecentSales_Roundtrip(t *testing.T) {
	db := requireDB(t)
	nopLogger := zerolog.Nop()
	storeID := "TEST_" + uuid.NewString()
	repo := NewSaleRepository(db, storeID, "Retail", &nopLogger)
	ctx := context.Background()
	defer cleanupSales(t, storeID)

	items, err := repo.PickRandomItems(ctx, 1)
	if err != nil || len(items) != 1 {
		t.Fatalf("PickRandomItems failed: %v", err)
	}

	line, err := domain.NewSaleLine(items[0], 2, items[0].BasePrice.Scale(1.01), time.Now())
	if err != nil {
		t.Fatalf("NewSaleLine failed: %v", err)
	}
	if err := repo.RecordSale(ctx, line); err != nil {
		t.Fatalf("RecordSale failed: %v", err)
	}

	recent, err := repo.RecentSales(ctx, 1)
	if err != nil {
		t.Fatalf("RecentSales failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("got %d recent sales, want 1", len(recent))
	}
	if recent[0].ProductName != items[0].Name {
		t.Errorf("ProductName mismatch: got %s, want %s", recent[0].ProductName, items[0].Name)
	}
	if recent[0].TotalPrice != line.LineTotal {
		t.Errorf("TotalPrice mismatch: got %s, want %s", recent[0].TotalPrice, line.LineTotal)
	}

	var storedUnits int
	var storedUnitPrice int64
	err = db.pool.QueryRow(ctx,
		`SELECT units_sold, (unit_price * 100)::bigint FROM sales_transactions WHERE id = $1 AND store_id = $2`,
		recent[0].ID, storeID,
	).Scan(&storedUnits, &storedUnitPrice)
	if err != nil {
		t.Fatalf("reading stored line failed: %v", err)
	}
	if storedUnits != 2 || domain.Money(storedUnitPrice) != line.UnitPrice {
		t.Errorf("stored line = %d units at %d, want 2 at %d", storedUnits, storedUnitPrice, line.UnitPrice)
	}
}

func TestSaleRepository_RecordSale_UnknownSKU(t *testing.T) {
	db := requireDB(t)
	nopLogger := zerolog.Nop()
	repo := NewSaleRepository(db, "TEST_"+uuid.NewString(), "Retail", &nopLogger)

	line := domain.SaleLine{SKU: -1, ProductName: "Ghost", UnitsSold: 1, UnitPrice: 100, LineTotal: 100, Timestamp: time.Now()}
	err := repo.RecordSale(context.Background(), line)
	if err == nil {
		t.Fatal("RecordSale accepted a line for an unknown sku")
	}
	if domain.IsFatal(err) {
		t.Errorf("foreign key violation should be transient, got %v", err)
	}
}
