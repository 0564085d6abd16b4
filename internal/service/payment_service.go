package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/repository"
	"github.com/varunm24/socialflow/internal/transfer"
)

const (
	postPrice       = 500
	defaultCurrency = "usd"
)

type PaymentService interface {
	CreateSubscriptionCheckout(ctx context.Context, userID, planID int64) (*models.PaymentIntent, error)
	CreatePostCheckout(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, event *transfer.PaymentEvent) (*transfer.WebhookResult, error)
}

type paymentService struct {
	py    repository.PaymentRepository
	sub   repository.SubscriptionRepository
	pr    repository.PostRepository
	pa    repository.PostAccountRepository
	queue Enqueuer
}

func NewPaymentService(
	py repository.PaymentRepository,
	sub repository.SubscriptionRepository,
	pr repository.PostRepository,
	pa repository.PostAccountRepository,
	queue Enqueuer) PaymentService {
	return &paymentService{
		py:    py,
		sub:   sub,
		pr:    pr,
		pa:    pa,
		queue: queue,
	}
}

func (s *paymentService) CreateSubscriptionCheckout(ctx context.Context, userID, planID int64) (*models.PaymentIntent, error) {
	plan, isExist, err := s.sub.GetPlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !isExist {
		err = errors.New("subscription plan doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}

	reference, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	intent := &models.PaymentIntent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      models.PaymentKindSubscription,
		PlanID:    sql.NullInt64{Int64: planID, Valid: true},
		Amount:    plan.Price,
		Currency:  defaultCurrency,
		Reference: reference,
		Status:    models.PaymentStatusPending,
	}

	if err := s.py.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("error saving payment intent: %w", err)
	}

	return intent, nil
}

// CreatePostCheckout snapshots the post draft into the intent; the post
// itself is only materialized once the payment is confirmed.
func (s *paymentService) CreatePostCheckout(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.PaymentIntent, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Info(err.Error())
		return nil, err
	}
	if len(pc.AccountIDs) == 0 {
		err := errors.New("no social accounts selected")
		slog.Info(err.Error())
		return nil, err
	}

	postData, err := json.Marshal(pc)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	reference, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	intent := &models.PaymentIntent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      models.PaymentKindPost,
		PostData:  postData,
		Amount:    postPrice,
		Currency:  defaultCurrency,
		Reference: reference,
		Status:    models.PaymentStatusPending,
	}

	if err := s.py.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("error saving payment intent: %w", err)
	}

	return intent, nil
}

// ConfirmPayment applies one webhook delivery. The conditional mark-paid
// update is the only idempotency guard: whoever wins it runs the side
// effects, every other delivery reports a duplicate. Side effect failures
// after a won guard are reported in the result, never as an error, so the
// gateway does not redeliver an already-consumed confirmation.
func (s *paymentService) ConfirmPayment(ctx context.Context, event *transfer.PaymentEvent) (*transfer.WebhookResult, error) {
	if event == nil || event.Reference == "" {
		return nil, errors.New("payment reference is missing")
	}

	if !event.IsSuccessSignal() {
		slog.Info("ignoring non-success payment event", "reference", event.Reference, "status", event.Status, "event", event.Event)
		return &transfer.WebhookResult{OK: true, Ignored: true}, nil
	}

	intent, won, err := s.py.MarkPaidByReference(ctx, event.Reference)
	if err != nil {
		return nil, fmt.Errorf("error marking payment paid: %w", err)
	}
	if !won {
		slog.Info("payment already processed", "reference", event.Reference)
		return &transfer.WebhookResult{OK: true, Duplicate: true}, nil
	}

	switch intent.Kind {
	case models.PaymentKindSubscription:
		if !intent.PlanID.Valid {
			slog.Error("subscription intent has no plan", "reference", intent.Reference)
			return &transfer.WebhookResult{OK: false, Message: "intent has no plan"}, nil
		}
		if err := s.sub.Activate(ctx, intent.UserID, intent.PlanID.Int64); err != nil {
			slog.Error("subscription activation failed", "reference", intent.Reference, "error", err)
			return &transfer.WebhookResult{OK: false, Message: "subscription activation failed"}, nil
		}
	case models.PaymentKindPost:
		if err := s.materializePost(ctx, intent); err != nil {
			slog.Error("post materialization failed", "reference", intent.Reference, "error", err)
			return &transfer.WebhookResult{OK: false, Message: "post materialization failed"}, nil
		}
	default:
		slog.Error("unknown payment kind", "reference", intent.Reference, "kind", intent.Kind)
		return &transfer.WebhookResult{OK: false, Message: "unknown payment kind"}, nil
	}

	slog.Info("payment confirmed", "reference", intent.Reference, "kind", intent.Kind)
	return &transfer.WebhookResult{OK: true}, nil
}

func (s *paymentService) materializePost(ctx context.Context, intent *models.PaymentIntent) error {
	var pc transfer.PostCreation
	if err := json.Unmarshal(intent.PostData, &pc); err != nil {
		return fmt.Errorf("unmarshal post data: %w", err)
	}

	status := models.PostStatusQueued
	var scheduledTime sql.NullTime
	if pc.ScheduledTime != nil && pc.ScheduledTime.After(time.Now()) {
		scheduledTime = sql.NullTime{Time: *pc.ScheduledTime, Valid: true}
		status = models.PostStatusPending
	}

	post := models.Post{
		UserID:          intent.UserID,
		MediaURL:        pc.MediaURL,
		Title:           pc.Title,
		Description:     pc.Description,
		Hashtags:        pc.Hashtags,
		Tags:            pc.Tags,
		PostType:        pc.PostType,
		PrivacyStatus:   pc.PrivacyStatus,
		DisableComments: pc.DisableComments,
		ShareToFeed:     pc.ShareToFeed,
		ScheduledTime:   scheduledTime,
		Status:          status,
	}

	postID, err := s.pr.Create(ctx, nil, &post)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	for _, accountID := range pc.AccountIDs {
		pa := models.PostAccount{PostID: postID, AccountID: accountID}
		if err := s.pa.Create(ctx, nil, &pa); err != nil {
			return fmt.Errorf("link account %d: %w", accountID, err)
		}
	}

	if status == models.PostStatusQueued {
		if err := s.queue.Submit(postID); err != nil {
			return fmt.Errorf("submit post: %w", err)
		}
	}

	return nil
}
