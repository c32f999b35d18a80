package cron

import (
	"context"
	"time"

	"github.com/fittrack-app/backend/internal/domain"
	"github.com/fittrack-app/backend/pkg/xcontext"
)

// FulfillmentSweepCronJob drives the time-based fulfillment transitions:
// winner notification, the 7-day warning, and the 14-day forfeit.
type FulfillmentSweepCronJob struct {
	fulfillmentDomain domain.FulfillmentDomain
	interval          time.Duration
}

func NewFulfillmentSweepCronJob(
	fulfillmentDomain domain.FulfillmentDomain,
	interval time.Duration,
) *FulfillmentSweepCronJob {
	return &FulfillmentSweepCronJob{
		fulfillmentDomain: fulfillmentDomain,
		interval:          interval,
	}
}

func (job *FulfillmentSweepCronJob) Do(ctx context.Context) {
	if err := job.fulfillmentDomain.Sweep(ctx); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot sweep fulfillments: %v", err)
	}
}

func (job *FulfillmentSweepCronJob) RunNow() bool {
	return true
}

func (job *FulfillmentSweepCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
