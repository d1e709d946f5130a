package db_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"umbfest-ticketing/internal/models"
	"umbfest-ticketing/internal/tickets/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Order)(nil),
		(*models.Ticket)(nil),
	} {
		_, err = bunDB.NewCreateTable().Model(model).Exec(ctx)
		if err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func seedTickets(t *testing.T, ticketDB *db.DB, orderID int64, codes ...string) {
	batch := make([]models.Ticket, len(codes))
	for i, code := range codes {
		batch[i] = models.Ticket{
			OrderID:      orderID,
			TicketNumber: code,
			HolderName:   "Rina Putri",
			Status:       models.TicketActive,
			IssuedAt:     time.Now(),
		}
	}
	require.NoError(t, ticketDB.InsertBatch(context.Background(), batch))
}

func TestInsertBatchAndList(t *testing.T) {
	ticketDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedTickets(t, ticketDB, 1, "UMBFEST-20251126071259-001", "UMBFEST-20251126071259-002")

	count, err := ticketDB.CountByOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	tickets, err := ticketDB.ListByOrder(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "UMBFEST-20251126071259-001", tickets[0].TicketNumber)
	assert.Equal(t, "UMBFEST-20251126071259-002", tickets[1].TicketNumber)
	assert.False(t, tickets[0].CheckedIn)
}

func TestInsertBatchRollsBackOnDuplicate(t *testing.T) {
	ticketDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedTickets(t, ticketDB, 1, "UMBFEST-20251126071259-001")

	// Second ticket in the batch collides with the existing code, so the
	// whole batch must roll back: no partial ticket sets.
	batch := []models.Ticket{
		{OrderID: 2, TicketNumber: "UMBFEST-20251127080000-001", HolderName: "Budi", Status: models.TicketActive, IssuedAt: time.Now()},
		{OrderID: 2, TicketNumber: "UMBFEST-20251126071259-001", HolderName: "Budi", Status: models.TicketActive, IssuedAt: time.Now()},
	}
	err := ticketDB.InsertBatch(ctx, batch)
	require.Error(t, err)

	count, err := ticketDB.CountByOrder(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestGetTicketByNumber(t *testing.T) {
	ticketDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedTickets(t, ticketDB, 1, "UMBFEST-20251126071259-001")

	ticket, err := ticketDB.GetTicketByNumber(ctx, "UMBFEST-20251126071259-001")
	require.NoError(t, err)
	assert.Equal(t, "Rina Putri", ticket.HolderName)
	assert.Equal(t, models.TicketActive, ticket.Status)

	_, err = ticketDB.GetTicketByNumber(ctx, "UMBFEST-00000000000000-999")
	var nfErr *models.NotFoundError
	assert.True(t, errors.As(err, &nfErr))
}

func TestCheckinConsumesExactlyOnce(t *testing.T) {
	ticketDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedTickets(t, ticketDB, 1, "UMBFEST-20251126071259-001")

	now := time.Now()
	ok, err := ticketDB.Checkin(ctx, "UMBFEST-20251126071259-001", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ticket, err := ticketDB.GetTicketByNumber(ctx, "UMBFEST-20251126071259-001")
	require.NoError(t, err)
	assert.True(t, ticket.CheckedIn)
	assert.WithinDuration(t, now, ticket.CheckedInAt, time.Second)

	// The conditional update only matches rows with checked_in still
	// false, so the second attempt reports a race loss.
	ok, err = ticketDB.Checkin(ctx, "UMBFEST-20251126071259-001", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentCheckinSingleWinner(t *testing.T) {
	ticketDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	seedTickets(t, ticketDB, 1, "UMBFEST-20251126071259-001")

	const scanners = 8
	var wg sync.WaitGroup
	results := make(chan bool, scanners)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := ticketDB.Checkin(ctx, "UMBFEST-20251126071259-001", time.Now())
			if err == nil {
				results <- ok
			}
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for ok := range results {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}
