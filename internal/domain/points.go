package domain

import (
	"context"
	"errors"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/model"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/dateutil"
	"github.com/fittrack-app/backend/pkg/enum"
	"github.com/fittrack-app/backend/pkg/errorx"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/google/uuid"
	"github.com/pkg/math"
	"gorm.io/gorm"
)

// Reason codes recorded on ledger entries. They double as idempotency keys
// for once-per-day bonuses.
const (
	ReasonSteps          = "steps"
	ReasonStepGoalBonus  = "step_goal_bonus"
	ReasonActiveMinutes  = "active_minutes"
	ReasonWorkoutBonus   = "workout_bonus"
	ReasonStreakBonus    = "streak_bonus"
	ReasonTicketPurchase = "ticket_purchase"
	ReasonAdjustment     = "admin_adjustment"
)

// maxStepsPerRecord rejects records no human produces. Values below this
// but above the user's normal range are handled by the review guard instead.
const maxStepsPerRecord = 100000

// maxEarnAttempts bounds the retries when the balance version moved between
// the cap check and the credit.
const maxEarnAttempts = 5

type PointsDomain interface {
	AwardActivity(ctx context.Context, req *model.AwardActivityRequest) (*model.AwardActivityResponse, error)
	AwardPoints(ctx context.Context, req *model.AwardPointsRequest) (*model.AwardPointsResponse, error)
	AdjustPoints(ctx context.Context, req *model.AdjustPointsRequest) (*model.AdjustPointsResponse, error)
	GetBalance(ctx context.Context, req *model.GetBalanceRequest) (*model.GetBalanceResponse, error)
	GetLedger(ctx context.Context, req *model.GetLedgerRequest) (*model.GetLedgerResponse, error)
}

type pointsDomain struct {
	userRepo     repository.UserRepository
	ledgerRepo   repository.LedgerRepository
	activityRepo repository.ActivityRepository
	guard        AntiGamingGuard
}

func NewPointsDomain(
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	activityRepo repository.ActivityRepository,
	guard AntiGamingGuard,
) *pointsDomain {
	return &pointsDomain{
		userRepo:     userRepo,
		ledgerRepo:   ledgerRepo,
		activityRepo: activityRepo,
		guard:        guard,
	}
}

func (d *pointsDomain) AwardActivity(
	ctx context.Context, req *model.AwardActivityRequest,
) (*model.AwardActivityResponse, error) {
	activityType, err := enum.ToEnum[entity.ActivityType](req.Type)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid activity type %s", req.Type)
	}

	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty user id")
	}

	if req.StartedAt.IsZero() {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty start time")
	}

	if req.DurationMinutes < 0 || req.DurationMinutes > 24*60 {
		return nil, errorx.New(errorx.BadRequest, "Invalid duration of %d minutes", req.DurationMinutes)
	}

	steps := 0
	if activityType == entity.ActivitySteps {
		steps = metricInt(req.Metrics, "steps")
		if steps < 0 || steps > maxStepsPerRecord {
			return nil, errorx.New(errorx.BadRequest, "Invalid step count of %d", steps)
		}
	}

	intensity, intensityErr := enum.ToEnum[entity.Intensity](req.Intensity)
	if activityType == entity.ActivityActiveMinutes && intensityErr != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid intensity %s", req.Intensity)
	}

	if req.Provider != "" && req.ExternalID != "" {
		exists, err := d.activityRepo.ExistsByExternalID(ctx, req.Provider, req.ExternalID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot check duplicated activity: %v", err)
			return nil, errorx.Unknown
		}

		if exists {
			return nil, errorx.New(errorx.AlreadyExists, "Activity was already recorded")
		}
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	base, reason, err := d.calculatePoints(ctx, req, activityType, intensity, steps)
	if err != nil {
		return nil, err
	}

	awarded, balance, err := d.earnCapped(ctx, req.UserID, base, reason, req.ExternalID, req.StartedAt)
	if err != nil {
		return nil, err
	}

	activity := &entity.Activity{
		Base:            entity.Base{ID: uuid.NewString()},
		UserID:          req.UserID,
		Provider:        req.Provider,
		ExternalID:      req.ExternalID,
		DeviceID:        req.DeviceID,
		Type:            activityType,
		StartedAt:       req.StartedAt,
		DurationMinutes: req.DurationMinutes,
		Intensity:       intensity,
		Metrics:         entity.Map(req.Metrics),
		PointsEarned:    awarded,
	}
	if err := d.activityRepo.Create(ctx, activity); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create activity: %v", err)
		return nil, errorx.Unknown
	}

	// Once-per-day bonuses ride on the same transaction as the triggering
	// activity so a crash never leaves a bonus without its cause.
	bonusAwarded, bonusBalance, err := d.awardBonuses(ctx, req, activityType, steps)
	if err != nil {
		return nil, err
	}

	awarded += bonusAwarded
	if bonusBalance > 0 {
		balance = bonusBalance
	}

	xcontext.WithCommitDBTransaction(ctx)
	d.userRepo.InvalidateCache(ctx, req.UserID)

	flagged := false
	if d.guard != nil {
		flagged, err = d.guard.Inspect(ctx, req.UserID, activity)
		if err != nil {
			// The guard flags for review but never blocks an award.
			xcontext.Logger(ctx).Errorf("Cannot inspect activity %s: %v", activity.ID, err)
		}
	}

	outcome := model.OutcomeAwarded
	switch {
	case base > 0 && awarded == 0:
		outcome = model.OutcomeCapExceeded
	case awarded < base:
		outcome = model.OutcomeCapped
	}

	return &model.AwardActivityResponse{
		Outcome:       outcome,
		PointsAwarded: awarded,
		Balance:       balance,
		Flagged:       flagged,
	}, nil
}

func (d *pointsDomain) AwardPoints(
	ctx context.Context, req *model.AwardPointsRequest,
) (*model.AwardPointsResponse, error) {
	if req.Amount <= 0 {
		return nil, errorx.New(errorx.BadRequest, "The amount must be a positive number")
	}

	if req.ReasonCode == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty reason code")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	awarded, balance, err := d.earnCapped(ctx, req.UserID, req.Amount, req.ReasonCode, req.SourceRef, time.Now())
	if err != nil {
		return nil, err
	}

	xcontext.WithCommitDBTransaction(ctx)
	d.userRepo.InvalidateCache(ctx, req.UserID)

	outcome := model.OutcomeAwarded
	switch {
	case awarded == 0:
		outcome = model.OutcomeCapExceeded
	case awarded < req.Amount:
		outcome = model.OutcomeCapped
	}

	return &model.AwardPointsResponse{
		Outcome:       outcome,
		PointsAwarded: awarded,
		Balance:       balance,
	}, nil
}

// AdjustPoints applies a signed manual correction. Negative adjustments
// clamp at zero instead of failing, and the clamp is visible in the applied
// amount.
func (d *pointsDomain) AdjustPoints(
	ctx context.Context, req *model.AdjustPointsRequest,
) (*model.AdjustPointsResponse, error) {
	if req.Amount == 0 {
		return nil, errorx.New(errorx.BadRequest, "Not allow a zero adjustment")
	}

	if req.ReasonCode == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty reason code")
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	user, err := d.userRepo.GetCurrent(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user for adjustment: %v", err)
		return nil, errorx.Unknown
	}

	newBalance := math.MaxInt64(0, user.PointsBalance+req.Amount)
	applied := newBalance - user.PointsBalance

	err = d.userRepo.SetBalanceWithVersion(ctx, req.UserID, user.BalanceVersion, newBalance, applied)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.Contention,
				"Balance was changed by another request, retry the adjustment")
		}

		xcontext.Logger(ctx).Errorf("Cannot set adjusted balance: %v", err)
		return nil, errorx.Unknown
	}

	err = d.ledgerRepo.Append(ctx, &entity.LedgerEntry{
		UserID:       req.UserID,
		Kind:         entity.EntryAdjust,
		OccurredAt:   time.Now(),
		Amount:       applied,
		ReasonCode:   req.ReasonCode,
		BalanceAfter: newBalance,
		SourceRef:    req.SourceRef,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot append adjustment entry: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)
	d.userRepo.InvalidateCache(ctx, req.UserID)

	return &model.AdjustPointsResponse{
		Applied: applied,
		Balance: newBalance,
		Clamped: applied != req.Amount,
	}, nil
}

func (d *pointsDomain) GetBalance(
	ctx context.Context, req *model.GetBalanceRequest,
) (*model.GetBalanceResponse, error) {
	user, err := d.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	begin, end := dateutil.DayWindow(time.Now())
	earnedToday, err := d.ledgerRepo.SumEarnedBetween(ctx, req.UserID, begin, end)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot sum today earnings: %v", err)
		return nil, errorx.Unknown
	}

	cap := int64(xcontext.Configs(ctx).Points.DailyPointCap)

	return &model.GetBalanceResponse{
		Balance:      user.PointsBalance,
		TotalEarned:  user.PointsEarned,
		EarnedToday:  earnedToday,
		DailyCapLeft: math.MaxInt64(0, cap-earnedToday),
	}, nil
}

func (d *pointsDomain) GetLedger(
	ctx context.Context, req *model.GetLedgerRequest,
) (*model.GetLedgerResponse, error) {
	if req.Limit == 0 {
		req.Limit = 50
	}

	if req.Limit < 0 || req.Limit > 200 {
		return nil, errorx.New(errorx.BadRequest, "Invalid limit of %d", req.Limit)
	}

	entries, err := d.ledgerRepo.GetByUserID(ctx, req.UserID, req.Offset, req.Limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get ledger entries: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetLedgerResponse{Entries: []model.LedgerEntry{}}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, convertLedgerEntry(e))
	}

	return resp, nil
}

// earnCapped credits an earn bounded by the daily cap of the day the points
// were earned, not the day they were synced. It must be called inside a
// transaction. The version guard on the credit serializes the cap check with
// the write: a concurrent earn that lands in between fails the guard here,
// and the retry re-reads the remaining headroom.
func (d *pointsDomain) earnCapped(
	ctx context.Context, userID string, amount int64, reason, sourceRef string, at time.Time,
) (int64, int64, error) {
	begin, end := dateutil.DayWindow(at)
	cap := int64(xcontext.Configs(ctx).Points.DailyPointCap)

	for attempt := 0; attempt < maxEarnAttempts; attempt++ {
		user, err := d.userRepo.GetCurrent(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, 0, errorx.New(errorx.NotFound, "Not found user")
			}

			xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
			return 0, 0, errorx.Unknown
		}

		earned, err := d.ledgerRepo.SumEarnedBetween(ctx, userID, begin, end)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot sum earnings of the day: %v", err)
			return 0, 0, errorx.Unknown
		}

		awarded := math.MaxInt64(0, math.MinInt64(amount, cap-earned))
		if awarded == 0 {
			return 0, user.PointsBalance, nil
		}

		err = d.userRepo.IncreaseBalance(ctx, userID, user.BalanceVersion, awarded)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}

			xcontext.Logger(ctx).Errorf("Cannot increase balance: %v", err)
			return 0, 0, errorx.Unknown
		}

		err = d.ledgerRepo.Append(ctx, &entity.LedgerEntry{
			UserID:       userID,
			Kind:         entity.EntryEarn,
			OccurredAt:   at,
			Amount:       awarded,
			ReasonCode:   reason,
			BalanceAfter: user.PointsBalance + awarded,
			SourceRef:    sourceRef,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot append earn entry: %v", err)
			return 0, 0, errorx.Unknown
		}

		return awarded, user.PointsBalance + awarded, nil
	}

	return 0, 0, errorx.New(errorx.Contention,
		"Balance was changed by another request, retry the award")
}

func (d *pointsDomain) calculatePoints(
	ctx context.Context,
	req *model.AwardActivityRequest,
	activityType entity.ActivityType,
	intensity entity.Intensity,
	steps int,
) (int64, string, error) {
	cfg := xcontext.Configs(ctx).Points

	switch activityType {
	case entity.ActivitySteps:
		begin, end := dateutil.DayWindow(req.StartedAt)
		priorPoints, err := d.ledgerRepo.SumReasonBetween(ctx, req.UserID, ReasonSteps, begin, end)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot sum today step points: %v", err)
			return 0, "", errorx.Unknown
		}

		maxPoints := int64(cfg.StepsDailyCap / 1000 * cfg.PointsPer1KSteps)
		points := int64(steps / 1000 * cfg.PointsPer1KSteps)
		points = math.MaxInt64(0, math.MinInt64(points, maxPoints-priorPoints))
		return points, ReasonSteps, nil

	case entity.ActivityWorkout:
		if req.DurationMinutes < cfg.WorkoutMinMinutes {
			return 0, ReasonWorkoutBonus, nil
		}

		begin, end := dateutil.DayWindow(req.StartedAt)
		count, err := d.activityRepo.CountWorkoutsBetween(ctx, req.UserID, begin, end)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot count today workouts: %v", err)
			return 0, "", errorx.Unknown
		}

		if count >= int64(cfg.WorkoutDailyCap) {
			return 0, ReasonWorkoutBonus, nil
		}

		return int64(cfg.WorkoutBonus), ReasonWorkoutBonus, nil

	case entity.ActivityActiveMinutes:
		rate := cfg.ActiveMinuteLight
		switch intensity {
		case entity.IntensityModerate:
			rate = cfg.ActiveMinuteModer
		case entity.IntensityVigorous:
			rate = cfg.ActiveMinuteVigor
		}

		return int64(req.DurationMinutes * rate), ReasonActiveMinutes, nil
	}

	return 0, "", errorx.New(errorx.BadRequest, "Invalid activity type %s", req.Type)
}

// awardBonuses grants the step-goal bonus and the streak bonus when this
// activity pushed the user over the line. Each is granted at most once per
// window, keyed by its reason code in the ledger.
func (d *pointsDomain) awardBonuses(
	ctx context.Context,
	req *model.AwardActivityRequest,
	activityType entity.ActivityType,
	steps int,
) (int64, int64, error) {
	cfg := xcontext.Configs(ctx).Points
	begin, end := dateutil.DayWindow(req.StartedAt)

	var total, balance int64

	if activityType == entity.ActivitySteps {
		todaySteps, err := d.stepsBetween(ctx, req.UserID, begin, end)
		if err != nil {
			return 0, 0, err
		}

		if todaySteps+steps >= cfg.DailyStepGoal {
			granted, err := d.grantOnce(ctx, req.UserID, int64(cfg.StepGoalBonus),
				ReasonStepGoalBonus, begin, end, req.StartedAt)
			if err != nil {
				return 0, 0, err
			}

			if granted > 0 {
				total += granted
			}
		}
	}

	streakOK, err := d.checkStreak(ctx, req.UserID, req.StartedAt)
	if err != nil {
		return 0, 0, err
	}

	if streakOK {
		streakBegin := dateutil.DayStart(req.StartedAt).Add(-time.Duration(cfg.StreakDays-1) * 24 * time.Hour)
		granted, err := d.grantOnce(ctx, req.UserID, int64(cfg.StreakBonus),
			ReasonStreakBonus, streakBegin, end, req.StartedAt)
		if err != nil {
			return 0, 0, err
		}

		if granted > 0 {
			total += granted
		}
	}

	if total > 0 {
		user, err := d.userRepo.GetCurrent(ctx, req.UserID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot read back balance: %v", err)
			return 0, 0, errorx.Unknown
		}

		balance = user.PointsBalance
	}

	return total, balance, nil
}

func (d *pointsDomain) grantOnce(
	ctx context.Context, userID string, amount int64, reason string, begin, end, at time.Time,
) (int64, error) {
	exists, err := d.ledgerRepo.ExistsReasonBetween(ctx, userID, reason, begin, end)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot check %s entry: %v", reason, err)
		return 0, errorx.Unknown
	}

	if exists {
		return 0, nil
	}

	awarded, _, err := d.earnCapped(ctx, userID, amount, reason, "", at)
	if err != nil {
		return 0, err
	}

	return awarded, nil
}

func (d *pointsDomain) stepsBetween(
	ctx context.Context, userID string, begin, end time.Time,
) (int, error) {
	activities, err := d.activityRepo.GetByUserAndRange(ctx, userID, begin, end)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get today activities: %v", err)
		return 0, errorx.Unknown
	}

	total := 0
	for _, a := range activities {
		if a.Type == entity.ActivitySteps {
			total += metricInt(a.Metrics, "steps")
		}
	}

	return total, nil
}

// checkStreak reports whether the user hit the active-minutes threshold on
// every one of the last StreakDays days, today included.
func (d *pointsDomain) checkStreak(
	ctx context.Context, userID string, now time.Time,
) (bool, error) {
	cfg := xcontext.Configs(ctx).Points

	end := dateutil.DayStart(now).Add(24 * time.Hour)
	begin := end.Add(-time.Duration(cfg.StreakDays) * 24 * time.Hour)

	byDay, err := d.activityRepo.ActiveMinutesByDay(ctx, userID, begin, end)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get active minutes: %v", err)
		return false, errorx.Unknown
	}

	for day := begin; day.Before(end); day = day.Add(24 * time.Hour) {
		if byDay[dateutil.DateKey(day)] < cfg.ActiveDayMinutes {
			return false, nil
		}
	}

	return true, nil
}

func metricInt(metrics map[string]any, key string) int {
	switch v := metrics[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}

	return 0
}
