package models

import (
	"database/sql"
	"time"
)

type Post struct {
	ID              int64          `db:"id" json:"id"`
	UserID          int64          `db:"user_id" json:"user_id"`
	MediaURL        string         `db:"media_url" json:"media_url"`
	Title           string         `db:"title" json:"title"`
	Description     string         `db:"description" json:"description"`
	Hashtags        string         `db:"hashtags" json:"hashtags"`
	Tags            string         `db:"tags" json:"tags"`
	PostType        string         `db:"post_type" json:"post_type"` // feed, reel, story
	PrivacyStatus   string         `db:"privacy_status" json:"privacy_status"`
	DisableComments bool           `db:"disable_comments" json:"disable_comments"`
	ShareToFeed     bool           `db:"share_to_feed" json:"share_to_feed"`
	ScheduledTime   sql.NullTime   `db:"scheduled_time" json:"scheduled_time"`
	Status          string         `db:"status" json:"status"`
	ErrorMessage    sql.NullString `db:"error_message" json:"error_message"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// PostAccount links a post to one of the social accounts it targets.
type PostAccount struct {
	PostID    int64     `db:"post_id" json:"post_id"`
	AccountID int64     `db:"account_id" json:"account_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type MediaAsset struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	FileName  string    `db:"file_name"`
	FileType  string    `db:"file_type"`
	FileSize  int64     `db:"file_size"`
	FileURL   string    `db:"file_url"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	PostStatusPending    = "pending"
	PostStatusQueued     = "queued"
	PostStatusProcessing = "processing"
	PostStatusPosted     = "posted"
	PostStatusFailed     = "failed"
	PostStatusCancelled  = "cancelled"
)
