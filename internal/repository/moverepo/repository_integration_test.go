package moverepo_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/domain"
	"stockflow/internal/pkg/cache"
	"stockflow/internal/pkg/database/dbtest"
	"stockflow/internal/pkg/logger"
	"stockflow/internal/repository/moverepo"
	"stockflow/internal/repository/orderrepo"
	"stockflow/internal/repository/productrepo"
	"stockflow/internal/repository/transferrepo"
	"stockflow/internal/repository/warehouserepo"
)

var (
	dayA = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	dayB = time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
)

type seeded struct {
	moves *moverepo.MoveRepository

	doneEarly string // recebimento done em dayA, criado primeiro, 1 item
	doneLate  string // recebimento done em dayA, criado depois, 2 itens
	lateLines []string
	empty     string // recebimento done em dayB, sem itens
	ready     string // recebimento ready em dayA
	delivery  string
	transfer  string
}

func seed(t *testing.T) seeded {
	t.Helper()
	db := dbtest.Open(t)
	ctx := context.Background()
	log := logger.NewNop()
	timeout := 5 * time.Second

	products := productrepo.NewProductRepository(db, cache.NewMemoryClient(), timeout, time.Minute, log)
	warehouses := warehouserepo.NewWarehouseRepository(db, timeout, log)
	orders := orderrepo.NewOrderRepository(db, timeout, log)
	transfers := transferrepo.NewTransferRepository(db, timeout, log)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	p, err := products.Save(ctx, domain.Product{
		ID: uuid.New().String(), Name: "Widget", SKU: "WID-" + uuid.New().String()[:8], UOM: "unit",
		CreatedAt: base, UpdatedAt: base,
	})
	require.NoError(t, err)
	w, err := warehouses.CreateWarehouse(ctx, domain.Warehouse{Name: "Main Warehouse"})
	require.NoError(t, err)

	order := func(kind domain.MoveKind, status domain.Status, date time.Time, created time.Time, quantities ...int64) domain.Order {
		t.Helper()
		o := domain.Order{
			ID: uuid.New().String(), Kind: kind, Partner: "ACME Ltda", ScheduleDate: date,
			WarehouseID: &w.ID, Status: status, CreatedAt: created, UpdatedAt: created,
		}
		for _, q := range quantities {
			o.Items = append(o.Items, domain.OrderItem{
				ID: uuid.New().String(), ProductID: p.ID, Quantity: decimal.NewFromInt(q), CreatedAt: created,
			})
		}
		saved, err := orders.Create(ctx, o)
		require.NoError(t, err)
		return saved
	}

	s := seeded{moves: moverepo.NewMoveRepository(db, timeout, log)}
	s.doneEarly = order(domain.KindReceipt, domain.StatusDone, dayA, base, 5).ID
	late := order(domain.KindReceipt, domain.StatusDone, dayA, base.Add(time.Hour), 3, 4)
	s.doneLate = late.ID
	for _, item := range late.Items {
		s.lateLines = append(s.lateLines, item.ID)
	}
	sort.Strings(s.lateLines)
	s.empty = order(domain.KindReceipt, domain.StatusDone, dayB, base).ID
	s.ready = order(domain.KindReceipt, domain.StatusReady, dayA, base.Add(2*time.Hour), 7).ID
	s.delivery = order(domain.KindDelivery, domain.StatusDone, dayA, base.Add(time.Hour), 2).ID

	tr, err := transfers.Create(ctx, domain.Transfer{
		ID: uuid.New().String(), ProductID: p.ID, FromWarehouseID: w.ID, ToWarehouseID: w.ID,
		FromLocationID: 1, ToLocationID: 2, Quantity: decimal.NewFromInt(1),
		Status: domain.StatusDraft, TransferDate: dayA, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour),
	})
	require.NoError(t, err)
	s.transfer = tr.ID
	return s
}

func ids(moves []domain.Move) []string {
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.ID)
	}
	return out
}

func TestList_DoneReceiptsOrdered(t *testing.T) {
	s := seed(t)

	moves, err := s.moves.List(context.Background(), domain.MoveFilter{MoveType: domain.KindReceipt, Status: domain.StatusDone})
	require.NoError(t, err)

	// dayB primeiro; em dayA o mais recente primeiro e, dentro do pedido, por line_id
	assert.Equal(t, []string{s.empty, s.doneLate, s.doneLate, s.doneEarly}, ids(moves))
	for _, m := range moves {
		assert.Equal(t, domain.KindReceipt, m.MoveType)
		assert.Equal(t, domain.StatusDone, m.Status)
	}

	emptyRow := moves[0]
	assert.Nil(t, emptyRow.LineID)
	assert.Nil(t, emptyRow.ProductID)
	assert.True(t, emptyRow.Quantity.IsZero())
	assert.Equal(t, "2024-03-12", emptyRow.Date.Format("2006-01-02"))
	assert.Equal(t, "vendor", emptyRow.FromLocation)
	assert.Equal(t, "Main Warehouse", emptyRow.ToLocation)

	require.NotNil(t, moves[1].LineID)
	require.NotNil(t, moves[2].LineID)
	assert.Equal(t, s.lateLines, []string{*moves[1].LineID, *moves[2].LineID})
}

func TestList_DateBoundsAreInclusive(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	moves, err := s.moves.List(ctx, domain.MoveFilter{MoveType: domain.KindReceipt, FromDate: &dayA, ToDate: &dayA})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{s.ready, s.doneLate, s.doneLate, s.doneEarly}, ids(moves))

	moves, err = s.moves.List(ctx, domain.MoveFilter{FromDate: &dayB})
	require.NoError(t, err)
	assert.Equal(t, []string{s.empty}, ids(moves))

	before := dayA.AddDate(0, 0, -1)
	moves, err = s.moves.List(ctx, domain.MoveFilter{ToDate: &before})
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestList_TransferAndContactFilter(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	moves, err := s.moves.List(ctx, domain.MoveFilter{Contact: "internal"})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, s.transfer, moves[0].ID)
	assert.Equal(t, domain.KindTransfer, moves[0].MoveType)
	assert.Nil(t, moves[0].LineID)
	assert.True(t, moves[0].Quantity.Equal(decimal.NewFromInt(1)))

	// "_" é literal: nenhum contato contém "ACME_"
	moves, err = s.moves.List(ctx, domain.MoveFilter{Contact: "ACME_"})
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestStatistics(t *testing.T) {
	s := seed(t)

	stats, err := s.moves.Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalReceipts)
	assert.Equal(t, 1, stats.TotalDeliveries)
	assert.Equal(t, 1, stats.TotalTransfers)
	assert.Equal(t, 1, stats.DraftMoves)
	assert.Equal(t, 1, stats.ReadyMoves)
	assert.Equal(t, 0, stats.InTransitMoves)
	assert.Equal(t, 4, stats.DoneMoves)
	assert.True(t, stats.TotalReceivedQty.Equal(decimal.NewFromInt(19)), stats.TotalReceivedQty.String())
	assert.True(t, stats.TotalDeliveredQty.Equal(decimal.NewFromInt(2)), stats.TotalDeliveredQty.String())
}
