package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// PaymentIntent tracks one checkout from creation to confirmation. The
// status only ever moves pending -> paid, and only through the webhook's
// conditional update.
type PaymentIntent struct {
	ID        string          `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Kind      string          `db:"kind" json:"kind"`
	PlanID    sql.NullInt64   `db:"plan_id" json:"plan_id"`
	PostData  json.RawMessage `db:"post_data" json:"post_data"`
	Amount    int64           `db:"amount" json:"amount"`
	Currency  string          `db:"currency" json:"currency"`
	Reference string          `db:"reference" json:"reference"`
	Status    string          `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

const (
	PaymentKindSubscription = "subscription"
	PaymentKindPost         = "post"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)
