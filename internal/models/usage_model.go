package models

import "time"

// UsageCounter is keyed by (user, platform, calendar date). Rows are created
// lazily on the first action of a day and never deleted.
type UsageCounter struct {
	UserID   int64     `db:"user_id" json:"user_id"`
	Platform string    `db:"platform" json:"platform"`
	Date     time.Time `db:"date" json:"date"`
	Posts    int       `db:"posts" json:"posts"`
	Comments int       `db:"comments" json:"comments"`
	DMs      int       `db:"dms" json:"dms"`
}

const (
	UsageActionPost    = "post"
	UsageActionComment = "comment"
	UsageActionDM      = "dm"
)
