package main

import (
	"github.com/fittrack-app/backend/internal/domain/cron"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadDomains()

	cfg := xcontext.Configs(s.ctx).Cron

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewDrawingLifecycleCronJob(s.drawingRepo, s.executorDomain, cfg.DrawingInterval))
	cronJobManager.Register(cron.NewFulfillmentSweepCronJob(s.fulfillmentDomain, cfg.FulfillmentInterval))
	cronJobManager.Register(cron.NewActivitySyncCronJob(s.userRepo, s.pointsDomain, cfg.SyncInterval))
	cronJobManager.Start(s.ctx)

	return nil
}
