package testutil

import (
	"context"

	"github.com/fittrack-app/backend/config"
	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/pkg/logger"
	"github.com/fittrack-app/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Points:      config.DefaultPointsConfigs(),
		Drawing:     config.DefaultDrawingConfigs(),
		Fulfillment: config.DefaultFulfillmentConfigs(),
		Cron:        config.DefaultCronConfigs(),
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}
