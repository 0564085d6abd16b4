package models

import "time"

type SubscriptionPlan struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Price          int64  `db:"price" json:"price"`
	DurationDays   int    `db:"duration_days" json:"duration_days"`
	PostsPerDay    int    `db:"posts_per_day" json:"posts_per_day"`
	CommentsPerDay int    `db:"comments_per_day" json:"comments_per_day"`
	DMsPerDay      int    `db:"dms_per_day" json:"dms_per_day"`
}

type UserSubscription struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	PlanID    int64     `db:"plan_id" json:"plan_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	IsActive  bool      `db:"is_active" json:"is_active"`
}
