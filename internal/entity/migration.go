package entity

import (
	"context"

	"github.com/fittrack-app/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&LedgerEntry{},
		&Activity{},
		&Drawing{},
		&Ticket{},
		&DrawingExecution{},
		&PrizeFulfillment{},
		&ReviewFlag{},
	)
}
