package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database    DatabaseConfigs
	ApiServer   ServerConfigs
	Redis       RedisConfigs
	Kafka       KafkaConfigs
	Points      PointsConfigs
	Drawing     DrawingConfigs
	Fulfillment FulfillmentConfigs
	Cron        CronConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr              string
	NotificationTopic string
}

// PointsConfigs is the earning rate table. The engine reads every rate from
// here so policy changes never touch calculation code.
type PointsConfigs struct {
	PointsPer1KSteps   int
	StepsDailyCap      int
	DailyStepGoal      int
	StepGoalBonus      int
	ActiveMinuteLight  int
	ActiveMinuteModer  int
	ActiveMinuteVigor  int
	WorkoutBonus       int
	WorkoutMinMinutes  int
	WorkoutDailyCap    int
	StreakBonus        int
	StreakDays         int
	ActiveDayMinutes   int
	DailyPointCap      int
	AnomalyZScoreLimit float64
}

func DefaultPointsConfigs() PointsConfigs {
	return PointsConfigs{
		PointsPer1KSteps:   10,
		StepsDailyCap:      20000,
		DailyStepGoal:      10000,
		StepGoalBonus:      100,
		ActiveMinuteLight:  1,
		ActiveMinuteModer:  2,
		ActiveMinuteVigor:  3,
		WorkoutBonus:       50,
		WorkoutMinMinutes:  20,
		WorkoutDailyCap:    3,
		StreakBonus:        250,
		StreakDays:         7,
		ActiveDayMinutes:   30,
		DailyPointCap:      1000,
		AnomalyZScoreLimit: 3.0,
	}
}

type DrawingConfigs struct {
	// Ticket sales close this long before draw time.
	SalesCloseMargin time.Duration
	MaxTicketsPerBuy int

	// TicketCosts maps drawing type to point cost per ticket.
	TicketCosts map[string]int64
}

func DefaultDrawingConfigs() DrawingConfigs {
	return DrawingConfigs{
		SalesCloseMargin: 5 * time.Minute,
		MaxTicketsPerBuy: 100,
		TicketCosts: map[string]int64{
			"daily":   100,
			"weekly":  500,
			"monthly": 2000,
			"annual":  10000,
		},
	}
}

type FulfillmentConfigs struct {
	ConfirmWarningAfter time.Duration
	ConfirmForfeitAfter time.Duration
}

func DefaultFulfillmentConfigs() FulfillmentConfigs {
	return FulfillmentConfigs{
		ConfirmWarningAfter: 7 * 24 * time.Hour,
		ConfirmForfeitAfter: 14 * 24 * time.Hour,
	}
}

type CronConfigs struct {
	DrawingInterval     time.Duration
	FulfillmentInterval time.Duration
	SyncInterval        time.Duration
}

func DefaultCronConfigs() CronConfigs {
	return CronConfigs{
		DrawingInterval:     time.Minute,
		FulfillmentInterval: time.Hour,
		SyncInterval:        15 * time.Minute,
	}
}
