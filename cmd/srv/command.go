package main

import "github.com/urfave/cli/v2"

func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "FitTrack"
	app.Usage = ""
	app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Serves the points, drawing and fulfillment APIs.`,
		},
		{
			Action:      s.startCron,
			Name:        "cron",
			Usage:       "Start cron workers",
			Category:    "Worker",
			Description: `Runs the drawing lifecycle, fulfillment sweep and activity sync jobs.`,
		},
		{
			Action:      s.startMigrate,
			Name:        "migrate",
			Usage:       "Migrate database tables",
			Category:    "Database",
			Description: `Creates or updates all database tables.`,
		},
	}

	s.app = app
}
