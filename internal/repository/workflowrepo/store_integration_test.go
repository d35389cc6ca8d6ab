package workflowrepo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/domain"
	apperror "stockflow/internal/errors"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/database/dbtest"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/repository/orderrepo"
	"stockflow/internal/repository/productrepo"
	"stockflow/internal/repository/stockrepo"
	"stockflow/internal/repository/transferrepo"
	"stockflow/internal/repository/warehouserepo"
	"stockflow/internal/repository/workflowrepo"
	"stockflow/internal/service/movementservice"
)

type nopStats struct{}

func (nopStats) InvalidateStatistics(context.Context) {}

type fixture struct {
	db          *sqlx.DB
	stock       *stockrepo.StockRepository
	svc         *movementservice.Service
	productID   string
	warehouseID string
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)
	ctx := context.Background()

	log := logger.NewNop()
	timeout := 5 * time.Second
	products := productrepo.NewProductRepository(db, cache.NewMemoryClient(), timeout, time.Minute, log)
	warehouses := warehouserepo.NewWarehouseRepository(db, timeout, log)
	stock := stockrepo.NewStockRepository(db, timeout, log)
	orders := orderrepo.NewOrderRepository(db, timeout, log)
	transfers := transferrepo.NewTransferRepository(db, timeout, log)
	store := workflowrepo.NewStore(db, timeout, orders, transfers, stock)

	now := time.Now().UTC()
	p, err := products.Save(ctx, domain.Product{
		ID: uuid.New().String(), Name: "Widget", SKU: "WID-" + uuid.New().String()[:8], UOM: "unit",
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	w, err := warehouses.CreateWarehouse(ctx, domain.Warehouse{Name: "Main Warehouse"})
	require.NoError(t, err)

	svc := movementservice.NewService(store, orders, transfers, nopStats{}, log, movementservice.Options{DefaultLocationID: 1})
	return fixture{db: db, stock: stock, svc: svc, productID: p.ID, warehouseID: w.ID}
}

func (f fixture) key(location int64) domain.StockKey {
	return domain.StockKey{ProductID: f.productID, WarehouseID: f.warehouseID, LocationID: location}
}

func (f fixture) readyOrder(t *testing.T, kind domain.MoveKind, location int64, quantities ...int64) string {
	t.Helper()
	ctx := context.Background()
	req := domain.CreateOrderRequest{Partner: "ACME", WarehouseID: &f.warehouseID}
	for _, q := range quantities {
		loc := location
		req.Items = append(req.Items, domain.AddItemRequest{ProductID: f.productID, Quantity: decimal.NewFromInt(q), LocationID: &loc})
	}
	order, err := f.svc.CreateOrder(ctx, kind, req)
	require.NoError(t, err)

	res, err := f.svc.Advance(ctx, kind, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusReady, res.Status)
	return order.ID
}

func TestReceipt_AggregatesLinesIntoOneEntry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	id := f.readyOrder(t, domain.KindReceipt, 2, 5, 10)

	res, err := f.svc.Advance(ctx, domain.KindReceipt, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, res.Status)

	entry, err := f.stock.GetStock(ctx, f.key(2))
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(15)), "got %s", entry.Quantity)
}

func TestDelivery_ConcurrentValidationsNeverOversell(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, _, err := f.stock.CreateStock(ctx, f.key(1), decimal.NewFromInt(10))
	require.NoError(t, err)

	ids := []string{
		f.readyOrder(t, domain.KindDelivery, 1, 8),
		f.readyOrder(t, domain.KindDelivery, 1, 8),
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(ids))
	)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.svc.Advance(ctx, domain.KindDelivery, id)
		}(i, id)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.IsValidation(err):
			rejected++
		default:
			t.Fatalf("erro inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	entry, err := f.stock.GetStock(ctx, f.key(1))
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(2)), "got %s", entry.Quantity)
}

func TestDelivery_ShortfallLeavesEverythingUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, _, err := f.stock.CreateStock(ctx, f.key(1), decimal.NewFromInt(15))
	require.NoError(t, err)

	id := f.readyOrder(t, domain.KindDelivery, 1, 20)
	_, err = f.svc.Advance(ctx, domain.KindDelivery, id)
	require.Error(t, err)

	shortfalls, ok := apperror.Details(err).([]domain.StockShortfall)
	require.True(t, ok)
	require.Len(t, shortfalls, 1)
	assert.True(t, shortfalls[0].Available.Equal(decimal.NewFromInt(15)))
	assert.True(t, shortfalls[0].Required.Equal(decimal.NewFromInt(20)))

	entry, err := f.stock.GetStock(ctx, f.key(1))
	require.NoError(t, err)
	assert.True(t, entry.Quantity.Equal(decimal.NewFromInt(15)))

	order, err := f.svc.GetOrder(ctx, domain.KindDelivery, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, order.Status)
}
