package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/varunm24/socialflow/internal/models"
)

type PaymentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetByReference(ctx context.Context, reference string) (*models.PaymentIntent, bool, error)
	MarkPaidByReference(ctx context.Context, reference string) (*models.PaymentIntent, bool, error)
}

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	query := `
		INSERT INTO payment_intents (id, user_id, kind, plan_id, post_data, amount, currency, reference, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query, intent.ID, intent.UserID, intent.Kind, intent.PlanID,
		intent.PostData, intent.Amount, intent.Currency, intent.Reference, models.PaymentStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*models.PaymentIntent, bool, error) {
	query := `
		SELECT id, user_id, kind, plan_id, post_data, amount, currency, reference, status, created_at, updated_at
		FROM payment_intents
		WHERE reference = $1
	`

	var intent models.PaymentIntent
	err := r.db.QueryRowContext(ctx, query, reference).Scan(&intent.ID, &intent.UserID, &intent.Kind,
		&intent.PlanID, &intent.PostData, &intent.Amount, &intent.Currency, &intent.Reference,
		&intent.Status, &intent.CreatedAt, &intent.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &intent, true, nil
}

// MarkPaidByReference is the idempotency guard for the whole payment flow.
// The conditional update returns a row only for the first successful call;
// redelivered webhooks see zero rows and must not trigger side effects.
func (r *paymentRepository) MarkPaidByReference(ctx context.Context, reference string) (*models.PaymentIntent, bool, error) {
	query := `
		UPDATE payment_intents
		SET status = $1,
			updated_at = $2
		WHERE reference = $3
		  AND status <> $1
		RETURNING id, user_id, kind, plan_id, post_data, amount, currency, reference, status
	`

	var intent models.PaymentIntent
	err := r.db.QueryRowContext(ctx, query, models.PaymentStatusPaid, time.Now(), reference).Scan(
		&intent.ID, &intent.UserID, &intent.Kind, &intent.PlanID, &intent.PostData,
		&intent.Amount, &intent.Currency, &intent.Reference, &intent.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return &intent, true, nil
}
