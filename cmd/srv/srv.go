package main

import (
	"context"
	"net/http"
	"os"

	"github.com/fittrack-app/backend/config"
	"github.com/fittrack-app/backend/internal/domain"
	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/kafka"
	"github.com/fittrack-app/backend/pkg/logger"
	"github.com/fittrack-app/backend/pkg/pubsub"
	"github.com/fittrack-app/backend/pkg/router"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/fittrack-app/backend/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App
	ctx context.Context

	logger      logger.Logger
	redisClient xredis.Client
	publisher   pubsub.Publisher

	userRepo        repository.UserRepository
	ledgerRepo      repository.LedgerRepository
	activityRepo    repository.ActivityRepository
	drawingRepo     repository.DrawingRepository
	ticketRepo      repository.TicketRepository
	executionRepo   repository.ExecutionRepository
	fulfillmentRepo repository.FulfillmentRepository
	reviewFlagRepo  repository.ReviewFlagRepository

	antiGamingGuard   domain.AntiGamingGuard
	pointsDomain      domain.PointsDomain
	ticketDomain      domain.TicketDomain
	drawingDomain     domain.DrawingDomain
	executorDomain    domain.DrawingExecutorDomain
	fulfillmentDomain domain.FulfillmentDomain

	router *router.Router
	server *http.Server
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func (s *srv) loadConfig() {
	cfg := config.Configs{
		Env: getEnv("ENV", "local"),
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			Database: getEnv("MYSQL_DATABASE", "fittrack"),
			User:     getEnv("MYSQL_USER", "fittrack"),
			Password: getEnv("MYSQL_PASSWORD", "fittrack"),
		},
		ApiServer: config.ServerConfigs{
			Host: getEnv("HOST", "localhost"),
			Port: getEnv("PORT", "8080"),
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDR", ""),
		},
		Kafka: config.KafkaConfigs{
			Addr:              getEnv("KAFKA_ADDR", ""),
			NotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "fittrack.notifications"),
		},
		Points:      config.DefaultPointsConfigs(),
		Drawing:     config.DefaultDrawingConfigs(),
		Fulfillment: config.DefaultFulfillmentConfigs(),
		Cron:        config.DefaultCronConfigs(),
	}

	s.ctx = xcontext.WithConfigs(context.Background(), cfg)
}

func (s *srv) loadLogger() {
	s.logger = logger.NewLogger(logger.INFO)
	s.ctx = xcontext.WithLogger(s.ctx, s.logger)
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx)
	db, err := gorm.Open(mysql.Open(
		cfg.Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := entity.MigrateTable(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	if xcontext.Configs(s.ctx).Redis.Addr == "" {
		return
	}

	client, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = client
}

func (s *srv) loadPublisher() {
	addr := xcontext.Configs(s.ctx).Kafka.Addr
	if addr == "" {
		return
	}

	publisher, err := kafka.NewPublisher("fittrack-srv", []string{addr})
	if err != nil {
		panic(err)
	}

	s.publisher = publisher
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository(s.redisClient)
	s.ledgerRepo = repository.NewLedgerRepository()
	s.activityRepo = repository.NewActivityRepository()
	s.drawingRepo = repository.NewDrawingRepository()
	s.ticketRepo = repository.NewTicketRepository()
	s.executionRepo = repository.NewExecutionRepository()
	s.fulfillmentRepo = repository.NewFulfillmentRepository()
	s.reviewFlagRepo = repository.NewReviewFlagRepository()
}

func (s *srv) loadDomains() {
	s.antiGamingGuard = domain.NewAntiGamingGuard(s.activityRepo, s.reviewFlagRepo)
	s.pointsDomain = domain.NewPointsDomain(
		s.userRepo, s.ledgerRepo, s.activityRepo, s.antiGamingGuard)
	s.ticketDomain = domain.NewTicketDomain(
		s.drawingRepo, s.ticketRepo, s.userRepo, s.ledgerRepo)
	s.drawingDomain = domain.NewDrawingDomain(
		s.drawingRepo, s.ticketRepo, s.executionRepo)
	s.executorDomain = domain.NewDrawingExecutorDomain(
		s.drawingRepo, s.ticketRepo, s.executionRepo, s.fulfillmentRepo)
	s.fulfillmentDomain = domain.NewFulfillmentDomain(s.fulfillmentRepo, s.publisher)
}
