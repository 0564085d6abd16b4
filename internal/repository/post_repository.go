package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/varunm24/socialflow/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	UpdateStatus(ctx context.Context, postID int64, status, errorMessage string) error
	UpdateStatusIf(ctx context.Context, postID int64, from, to string) (bool, error)
	Cancel(ctx context.Context, postID, userID int64) (bool, error)
	ResetForRepost(ctx context.Context, postID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, user_id, media_url, title, description, hashtags, tags, post_type,
	privacy_status, disable_comments, share_to_feed, scheduled_time, status, error_message,
	created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.MediaURL, &post.Title, &post.Description,
		&post.Hashtags, &post.Tags, &post.PostType, &post.PrivacyStatus, &post.DisableComments,
		&post.ShareToFeed, &post.ScheduledTime, &post.Status, &post.ErrorMessage,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, media_url, title, description, hashtags, tags, post_type,
			privacy_status, disable_comments, share_to_feed, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	var id int64
	var err error

	args := []any{post.UserID, post.MediaURL, post.Title, post.Description, post.Hashtags,
		post.Tags, post.PostType, post.PrivacyStatus, post.DisableComments, post.ShareToFeed,
		post.ScheduledTime, post.Status}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := "SELECT 1 FROM posts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// ListDue returns pending posts whose scheduled time has arrived, earliest
// first. Posts with a null scheduled time are executed at creation and never
// show up here.
func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts
		WHERE status = $1
		  AND scheduled_time IS NOT NULL
		  AND scheduled_time <= $2
		ORDER BY scheduled_time ASC`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPending, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, postID int64, status, errorMessage string) error {
	query := `
		UPDATE posts
		SET status = $1,
			error_message = NULLIF($2, ''),
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, status, errorMessage, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdateStatusIf flips the status only when the current value matches. The
// rows-affected result is what makes racing schedulers (or a repeated task
// delivery) resolve to a single winner.
func (r *postRepository) UpdateStatusIf(ctx context.Context, postID int64, from, to string) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), postID, from)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

func (r *postRepository) Cancel(ctx context.Context, postID, userID int64) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			scheduled_time = NULL,
			updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusCancelled, time.Now(), postID, userID, models.PostStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

// ResetForRepost re-enters a failed post into the pipeline. Account mappings
// and media stay intact.
func (r *postRepository) ResetForRepost(ctx context.Context, postID, userID int64) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			error_message = NULL,
			updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPending, time.Now(), postID, userID, models.PostStatusFailed)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	return affected == 1, nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
