package testutil

import (
	"context"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/google/uuid"
)

// CreateFixtureUser inserts a user with the given spendable balance. The
// lifetime earned total is seeded to match so invariants hold from the
// start.
func CreateFixtureUser(ctx context.Context, balance int64) *entity.User {
	user := &entity.User{
		Base:           entity.Base{ID: uuid.NewString()},
		Name:           "user-" + uuid.NewString()[:8],
		PointsEarned:   balance,
		PointsBalance:  balance,
		BalanceVersion: 0,
	}

	if err := xcontext.DB(ctx).Create(user).Error; err != nil {
		panic(err)
	}

	return user
}

// CreateFixtureDrawing inserts a drawing in the given status whose sales
// window is open right now and whose draw time is an hour away.
func CreateFixtureDrawing(ctx context.Context, status entity.DrawingStatus, winnerCount int) *entity.Drawing {
	now := time.Now()
	drawing := &entity.Drawing{
		Base:        entity.Base{ID: uuid.NewString()},
		Name:        "drawing-" + uuid.NewString()[:8],
		Type:        entity.DrawingDaily,
		Status:      status,
		TicketCost:  100,
		WinnerCount: winnerCount,
		OpenTime:    now.Add(-time.Hour),
		CloseTime:   now.Add(time.Hour),
		DrawTime:    now.Add(time.Hour),
	}

	if err := xcontext.DB(ctx).Create(drawing).Error; err != nil {
		panic(err)
	}

	return drawing
}
