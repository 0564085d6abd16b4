package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/varunm24/socialflow/internal/models"
)

type UsageRepository interface {
	GetToday(ctx context.Context, userID int64, platform string) (*models.UsageCounter, error)
	Consume(ctx context.Context, userID int64, platform, action string) error
}

type usageRepository struct {
	db *sql.DB
}

func NewUsageRepository(db *sql.DB) UsageRepository {
	return &usageRepository{db: db}
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

var usageColumnByAction = map[string]string{
	models.UsageActionPost:    "posts",
	models.UsageActionComment: "comments",
	models.UsageActionDM:      "dms",
}

func (r *usageRepository) GetToday(ctx context.Context, userID int64, platform string) (*models.UsageCounter, error) {
	query := `
		SELECT posts, comments, dms
		FROM usage_counters
		WHERE user_id = $1 AND platform = $2 AND date = $3
	`

	counter := models.UsageCounter{UserID: userID, Platform: platform, Date: today()}
	err := r.db.QueryRowContext(ctx, query, userID, platform, counter.Date).Scan(&counter.Posts, &counter.Comments, &counter.DMs)
	if err != nil {
		if err == sql.ErrNoRows {
			return &counter, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &counter, nil
}

// Consume bumps today's counter for one action, creating the row lazily on
// the first action of the day.
func (r *usageRepository) Consume(ctx context.Context, userID int64, platform, action string) error {
	column, ok := usageColumnByAction[action]
	if !ok {
		return fmt.Errorf("unknown usage action %q", action)
	}

	insertQuery := `
		INSERT INTO usage_counters (user_id, platform, date)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insertQuery, userID, platform, today()); err != nil {
		slog.Info(err.Error())
		return err
	}

	updateQuery := fmt.Sprintf(`
		UPDATE usage_counters
		SET %s = %s + 1
		WHERE user_id = $1 AND platform = $2 AND date = $3
	`, column, column)
	if _, err := r.db.ExecContext(ctx, updateQuery, userID, platform, today()); err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
