package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/varunm24/socialflow/internal/models"
)

type SubscriptionRepository interface {
	GetActivePlan(ctx context.Context, userID int64) (*models.SubscriptionPlan, bool, error)
	GetPlanByID(ctx context.Context, planID int64) (*models.SubscriptionPlan, bool, error)
	Activate(ctx context.Context, userID, planID int64) error
}

type subscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetActivePlan(ctx context.Context, userID int64) (*models.SubscriptionPlan, bool, error) {
	query := `
		SELECT p.id, p.name, p.price, p.duration_days, p.posts_per_day, p.comments_per_day, p.dms_per_day
		FROM user_subscriptions s
		JOIN subscription_plans p ON p.id = s.plan_id
		WHERE s.user_id = $1
		  AND s.is_active = TRUE
		  AND s.end_date > NOW()
	`

	var plan models.SubscriptionPlan
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&plan.ID, &plan.Name, &plan.Price,
		&plan.DurationDays, &plan.PostsPerDay, &plan.CommentsPerDay, &plan.DMsPerDay)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &plan, true, nil
}

func (r *subscriptionRepository) GetPlanByID(ctx context.Context, planID int64) (*models.SubscriptionPlan, bool, error) {
	query := `
		SELECT id, name, price, duration_days, posts_per_day, comments_per_day, dms_per_day
		FROM subscription_plans
		WHERE id = $1
	`

	var plan models.SubscriptionPlan
	err := r.db.QueryRowContext(ctx, query, planID).Scan(&plan.ID, &plan.Name, &plan.Price,
		&plan.DurationDays, &plan.PostsPerDay, &plan.CommentsPerDay, &plan.DMsPerDay)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &plan, true, nil
}

// Activate enforces a single active subscription per user: existing rows are
// deactivated and the new one inserted in the same transaction.
func (r *subscriptionRepository) Activate(ctx context.Context, userID, planID int64) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	deactivateQuery := `
		UPDATE user_subscriptions
		SET is_active = FALSE
		WHERE user_id = $1
	`
	if _, err := tx.ExecContext(ctx, deactivateQuery, userID); err != nil {
		slog.Info(err.Error())
		return err
	}

	var durationDays int
	err = tx.QueryRowContext(ctx, `SELECT duration_days FROM subscription_plans WHERE id = $1`, planID).Scan(&durationDays)
	if err != nil {
		if err == sql.ErrNoRows {
			return errors.New("invalid subscription plan")
		}
		slog.Info(err.Error())
		return err
	}

	insertQuery := `
		INSERT INTO user_subscriptions (user_id, plan_id, start_date, end_date, is_active)
		VALUES ($1, $2, NOW(), NOW() + ($3 * INTERVAL '1 day'), TRUE)
	`
	if _, err := tx.ExecContext(ctx, insertQuery, userID, planID, durationDays); err != nil {
		slog.Info(err.Error())
		return err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
