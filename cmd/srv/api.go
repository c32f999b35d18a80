package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fittrack-app/backend/pkg/router"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	cfg := xcontext.Configs(s.ctx)
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ApiServer.Port),
		Handler: s.router.Handler(),
	}

	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		s.logger.Infof("Starting server on port %s", cfg.ApiServer.Port)
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		return err
	}

	s.logger.Infof("Server stopped")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(xcontext.DB(s.ctx), xcontext.Configs(s.ctx), s.logger)

	// Points API
	router.POST(s.router, "/awardActivity", s.pointsDomain.AwardActivity)
	router.POST(s.router, "/awardPoints", s.pointsDomain.AwardPoints)
	router.POST(s.router, "/adjustPoints", s.pointsDomain.AdjustPoints)
	router.GET(s.router, "/getBalance", s.pointsDomain.GetBalance)
	router.GET(s.router, "/getLedger", s.pointsDomain.GetLedger)

	// Ticket API
	router.POST(s.router, "/buyTickets", s.ticketDomain.Buy)
	router.GET(s.router, "/getMyTickets", s.ticketDomain.GetMine)

	// Drawing API
	router.POST(s.router, "/createDrawing", s.drawingDomain.Create)
	router.POST(s.router, "/scheduleDrawing", s.drawingDomain.Schedule)
	router.POST(s.router, "/openDrawing", s.drawingDomain.Open)
	router.POST(s.router, "/closeDrawing", s.drawingDomain.Close)
	router.POST(s.router, "/cancelDrawing", s.drawingDomain.Cancel)
	router.POST(s.router, "/executeDrawing", s.executorDomain.Execute)
	router.GET(s.router, "/getDrawing", s.drawingDomain.Get)
	router.GET(s.router, "/getDrawingResults", s.drawingDomain.GetResults)

	// Fulfillment API
	router.POST(s.router, "/advanceFulfillment", s.fulfillmentDomain.Advance)
	router.GET(s.router, "/getFulfillment", s.fulfillmentDomain.Get)
}
