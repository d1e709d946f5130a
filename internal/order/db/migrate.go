package db

import (
	"context"
	"fmt"

	"umbfest-ticketing/internal/logger"
	"umbfest-ticketing/internal/models"

	"github.com/uptrace/bun"
)

// Migrate creates the orders, tickets and verification_logs tables if they
// do not exist yet.
func Migrate(db *bun.DB, log *logger.Logger) {
	ctx := context.Background()

	for table, model := range map[string]interface{}{
		"orders":            (*models.Order)(nil),
		"tickets":           (*models.Ticket)(nil),
		"verification_logs": (*models.VerificationLog)(nil),
	} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("create table %s failed: %v", table, err))
		}
		log.LogDatabase("MIGRATE", table, "table ready")
	}
}
