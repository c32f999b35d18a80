package repository

import (
	"context"
	"encoding/json"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/fittrack-app/backend/pkg/xredis"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetAll(ctx context.Context) ([]entity.User, error)
	IncreaseBalance(ctx context.Context, userID string, version, amount int64) error
	DecreaseBalance(ctx context.Context, userID string, amount int64) error
	GetCurrent(ctx context.Context, id string) (*entity.User, error)
	SetBalanceWithVersion(ctx context.Context, userID string, version, balance, delta int64) error
	InvalidateCache(ctx context.Context, userID string)
}

type userRepository struct {
	redisClient xredis.Client
}

func NewUserRepository(redisClient xredis.Client) *userRepository {
	return &userRepository{redisClient: redisClient}
}

func (r *userRepository) cacheKey(id string) string {
	return "users:" + id
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return xcontext.DB(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if r.redisClient != nil {
		if cached, err := r.redisClient.Get(ctx, r.cacheKey(id)); err == nil {
			var user entity.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				return &user, nil
			}
		}
	}

	var user entity.User
	if err := xcontext.DB(ctx).Take(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if r.redisClient != nil {
		if b, err := json.Marshal(user); err == nil {
			if err := r.redisClient.Set(ctx, r.cacheKey(id), string(b), xredis.DefaultTTL); err != nil {
				xcontext.Logger(ctx).Warnf("Cannot cache user %s: %v", id, err)
			}
		}
	}

	return &user, nil
}

func (r *userRepository) GetAll(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	if err := xcontext.DB(ctx).Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// InvalidateCache drops the cached user record. Balance writes happen inside
// transactions, so the caller must invalidate after the commit: dropping the
// key mid-transaction lets a concurrent read re-cache the uncommitted value.
func (r *userRepository) InvalidateCache(ctx context.Context, userID string) {
	if r.redisClient == nil {
		return
	}

	if err := r.redisClient.Del(ctx, r.cacheKey(userID)); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate user cache %s: %v", userID, err)
	}
}

// IncreaseBalance credits points. The version guard serializes the credit
// against the caller's read: if anything touched the balance row since the
// caller read this version, no row changes and the caller must re-read.
func (r *userRepository) IncreaseBalance(ctx context.Context, userID string, version, amount int64) error {
	tx := xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id = ? AND balance_version = ?", userID, version).
		Updates(map[string]any{
			"points_balance":  gorm.Expr("points_balance + ?", amount),
			"points_earned":   gorm.Expr("points_earned + ?", amount),
			"balance_version": gorm.Expr("balance_version + 1"),
		})
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// DecreaseBalance debits points only if the balance covers the amount. A
// zero rows-affected result means the guard failed and no row changed.
func (r *userRepository) DecreaseBalance(ctx context.Context, userID string, amount int64) error {
	tx := xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id = ? AND points_balance >= ?", userID, amount).
		Updates(map[string]any{
			"points_balance":  gorm.Expr("points_balance - ?", amount),
			"balance_version": gorm.Expr("balance_version + 1"),
		})
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// GetCurrent reads the row directly, bypassing the cache. Use it whenever
// the balance is about to be acted on.
func (r *userRepository) GetCurrent(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := xcontext.DB(ctx).Take(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// SetBalanceWithVersion writes an absolute balance computed by the caller.
// The version guard makes the write lose cleanly if anything changed the
// balance since the caller read it. The delta only adjusts points_earned
// when positive.
func (r *userRepository) SetBalanceWithVersion(
	ctx context.Context, userID string, version, balance, delta int64,
) error {
	updates := map[string]any{
		"points_balance":  balance,
		"balance_version": gorm.Expr("balance_version + 1"),
	}
	if delta > 0 {
		updates["points_earned"] = gorm.Expr("points_earned + ?", delta)
	}

	tx := xcontext.DB(ctx).
		Model(&entity.User{}).
		Where("id = ? AND balance_version = ?", userID, version).
		Updates(updates)
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
