package order_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"umbfest-ticketing/internal/config"
	"umbfest-ticketing/internal/logger"
	"umbfest-ticketing/internal/models"
	"umbfest-ticketing/internal/order"
	orderdb "umbfest-ticketing/internal/order/db"
	ticketdb "umbfest-ticketing/internal/tickets/db"
	"umbfest-ticketing/internal/tickets/qrgen"
	tickets "umbfest-ticketing/internal/tickets/service"
	"umbfest-ticketing/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

type flowNotifier struct {
	payloads []models.TicketNotification
}

func (n *flowNotifier) SendTickets(_ context.Context, payload models.TicketNotification) error {
	n.payloads = append(n.payloads, payload)
	return nil
}

// setupFlow wires the real order and ticket services over an in-memory
// store, the way main composes them.
func setupFlow(t *testing.T) (*order.OrderService, *tickets.TicketService, *flowNotifier, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A second pool connection would get its own empty memory database.
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Order)(nil),
		(*models.Ticket)(nil),
		(*models.VerificationLog)(nil),
	} {
		_, err = bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	log := logger.NewLogger()
	cfg := &config.Config{
		Pricing: config.PricingConfig{TicketPrice: 20000, AdminFee: 1000, MaxQuantity: 5},
		Event:   config.EventConfig{Date: "29 November 2025", Time: "10:00 WIB", Venue: "Lapangan Adymic UMbandung"},
		Orders:  config.OrderConfig{TTL: 24 * time.Hour},
	}

	orders := &orderdb.DB{Bun: bunDB}
	ticketStore := &ticketdb.DB{Bun: bunDB}
	notify := &flowNotifier{}

	ticketSvc := tickets.NewTicketService(ticketStore, orders, qrgen.NewGenerator(), nil, log)
	orderSvc := order.NewOrderService(orders, ticketSvc, notify, nil, nil, nil, cfg, log)
	return orderSvc, ticketSvc, notify, bunDB
}

func TestFullOrderLifecycle(t *testing.T) {
	orderSvc, ticketSvc, notify, _ := setupFlow(t)
	ctx := context.Background()

	created, err := orderSvc.CreateOrder(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingPayment, created.Status)
	assert.Equal(t, 41000, created.Total)

	_, err = orderSvc.AttachProof(ctx, created.OrderNumber, "bukti.jpg", "/assets/uploads/bukti.jpg")
	require.NoError(t, err)

	decided, err := orderSvc.Decide(ctx, created.OrderNumber, "verified", "siti", "looks good")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, decided.Status)

	wantFirst := utils.TicketCode(created.OrderNumber, 1)
	wantSecond := utils.TicketCode(created.OrderNumber, 2)

	require.Len(t, notify.payloads, 1)
	assert.Equal(t, []string{wantFirst, wantSecond}, notify.payloads[0].TicketCodes)

	// The decision already issued the set; a retried generation returns it
	// unchanged.
	issued, err := ticketSvc.Generate(ctx, created.OrderNumber)
	require.NoError(t, err)
	require.Len(t, issued, 2)
	assert.Equal(t, wantFirst, issued[0].TicketNumber)
	assert.Equal(t, wantSecond, issued[1].TicketNumber)
	assert.NotEmpty(t, issued[0].QRCode)

	result, err := ticketSvc.Scan(ctx, wantFirst)
	require.NoError(t, err)
	assert.Equal(t, "Rina Putri", result.HolderName)
	assert.Equal(t, created.OrderNumber, result.OrderNumber)

	_, err = ticketSvc.Scan(ctx, wantFirst)
	var auErr *models.AlreadyUsedError
	require.True(t, errors.As(err, &auErr))
	assert.False(t, auErr.CheckedInAt.IsZero())

	// The sibling ticket is unaffected by the double scan.
	_, err = ticketSvc.Scan(ctx, wantSecond)
	require.NoError(t, err)
}

func TestLifecycleExpiryLeavesDecidedOrdersAlone(t *testing.T) {
	orderSvc, _, _, bunDB := setupFlow(t)
	ctx := context.Background()

	staleOrder, err := orderSvc.CreateOrder(ctx, validRequest())
	require.NoError(t, err)
	_, err = bunDB.NewUpdate().
		Model((*models.Order)(nil)).
		Set("order_date = ?", time.Now().Add(-25*time.Hour)).
		Where("order_number = ?", staleOrder.OrderNumber).
		Exec(ctx)
	require.NoError(t, err)

	freshOrder, err := orderSvc.CreateOrder(ctx, validRequest())
	require.NoError(t, err)

	count, err := orderSvc.ExpireStaleOrders(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := orderSvc.GetOrder(ctx, staleOrder.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)

	// An expired order can no longer take a proof upload.
	_, err = orderSvc.AttachProof(ctx, staleOrder.OrderNumber, "late.jpg", "/assets/uploads/late.jpg")
	var isErr *models.InvalidStateError
	assert.True(t, errors.As(err, &isErr))

	kept, err := orderSvc.GetOrder(ctx, freshOrder.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingPayment, kept.Status)
}
