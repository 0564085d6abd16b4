package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/repository"
	"github.com/varunm24/socialflow/internal/transfer"
)

type fakePaymentRepo struct {
	repository.PaymentRepository
	intents map[string]*models.PaymentIntent
}

func newFakePaymentRepo(intents ...*models.PaymentIntent) *fakePaymentRepo {
	byRef := make(map[string]*models.PaymentIntent)
	for _, intent := range intents {
		byRef[intent.Reference] = intent
	}
	return &fakePaymentRepo{intents: byRef}
}

func (f *fakePaymentRepo) MarkPaidByReference(ctx context.Context, reference string) (*models.PaymentIntent, bool, error) {
	intent, ok := f.intents[reference]
	if !ok || intent.Status == models.PaymentStatusPaid {
		return nil, false, nil
	}
	intent.Status = models.PaymentStatusPaid
	return intent, true, nil
}

type fakeSubscriptionRepo struct {
	repository.SubscriptionRepository
	activations []int64
	activateErr error
}

func (f *fakeSubscriptionRepo) Activate(ctx context.Context, userID, planID int64) error {
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activations = append(f.activations, planID)
	return nil
}

func (f *fakeSubscriptionRepo) GetPlanByID(ctx context.Context, planID int64) (*models.SubscriptionPlan, bool, error) {
	return &models.SubscriptionPlan{ID: planID, Price: 900, DurationDays: 30}, true, nil
}

type fakePostRepo struct {
	repository.PostRepository
	created   []*models.Post
	createErr error
}

func (f *fakePostRepo) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	post.ID = int64(len(f.created) + 1)
	f.created = append(f.created, post)
	return post.ID, nil
}

type fakePostAccountRepo struct {
	repository.PostAccountRepository
	linked []int64
}

func (f *fakePostAccountRepo) Create(ctx context.Context, tx *sql.Tx, pa *models.PostAccount) error {
	f.linked = append(f.linked, pa.AccountID)
	return nil
}

type fakeEnqueuer struct {
	submitted []int64
}

func (f *fakeEnqueuer) Submit(postID int64) error {
	f.submitted = append(f.submitted, postID)
	return nil
}

func (f *fakeEnqueuer) SubmitAt(postID int64, at time.Time) error {
	f.submitted = append(f.submitted, postID)
	return nil
}

func subscriptionIntent(reference string) *models.PaymentIntent {
	return &models.PaymentIntent{
		ID:        "11111111-2222-3333-4444-555555555555",
		UserID:    7,
		Kind:      models.PaymentKindSubscription,
		PlanID:    sql.NullInt64{Int64: 2, Valid: true},
		Reference: reference,
		Status:    models.PaymentStatusPending,
	}
}

func postIntent(t *testing.T, reference string, pc transfer.PostCreation) *models.PaymentIntent {
	t.Helper()
	data, err := json.Marshal(pc)
	require.NoError(t, err)
	return &models.PaymentIntent{
		ID:        "11111111-2222-3333-4444-555555555555",
		UserID:    7,
		Kind:      models.PaymentKindPost,
		PostData:  data,
		Reference: reference,
		Status:    models.PaymentStatusPending,
	}
}

func TestConfirmPayment_RepeatedDeliveriesActivateOnce(t *testing.T) {
	payments := newFakePaymentRepo(subscriptionIntent("ref-1"))
	subs := &fakeSubscriptionRepo{}
	svc := NewPaymentService(payments, subs, &fakePostRepo{}, &fakePostAccountRepo{}, &fakeEnqueuer{})

	event := &transfer.PaymentEvent{Reference: "ref-1", Status: "PAID"}

	first, err := svc.ConfirmPayment(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, first.OK)
	assert.False(t, first.Duplicate)

	for i := 0; i < 3; i++ {
		res, err := svc.ConfirmPayment(context.Background(), event)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.True(t, res.Duplicate)
	}

	assert.Equal(t, []int64{2}, subs.activations, "redelivered webhooks must not re-activate")
}

func TestConfirmPayment_NonSuccessEventIsIgnored(t *testing.T) {
	payments := newFakePaymentRepo(subscriptionIntent("ref-1"))
	subs := &fakeSubscriptionRepo{}
	svc := NewPaymentService(payments, subs, &fakePostRepo{}, &fakePostAccountRepo{}, &fakeEnqueuer{})

	res, err := svc.ConfirmPayment(context.Background(), &transfer.PaymentEvent{Reference: "ref-1", Status: "pending"})
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.True(t, res.Ignored)
	assert.Empty(t, subs.activations)
	assert.Equal(t, models.PaymentStatusPending, payments.intents["ref-1"].Status)
}

func TestConfirmPayment_EventNameAloneSignalsSuccess(t *testing.T) {
	payments := newFakePaymentRepo(subscriptionIntent("ref-1"))
	subs := &fakeSubscriptionRepo{}
	svc := NewPaymentService(payments, subs, &fakePostRepo{}, &fakePostAccountRepo{}, &fakeEnqueuer{})

	res, err := svc.ConfirmPayment(context.Background(), &transfer.PaymentEvent{Reference: "ref-1", Event: "payment.success"})
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, []int64{2}, subs.activations)
}

func TestConfirmPayment_MissingReferenceIsAnError(t *testing.T) {
	svc := NewPaymentService(newFakePaymentRepo(), &fakeSubscriptionRepo{}, &fakePostRepo{}, &fakePostAccountRepo{}, &fakeEnqueuer{})

	_, err := svc.ConfirmPayment(context.Background(), &transfer.PaymentEvent{Status: "paid"})
	require.Error(t, err)
}

func TestConfirmPayment_ActivationFailureIsSwallowed(t *testing.T) {
	payments := newFakePaymentRepo(subscriptionIntent("ref-1"))
	subs := &fakeSubscriptionRepo{activateErr: errors.New("db down")}
	svc := NewPaymentService(payments, subs, &fakePostRepo{}, &fakePostAccountRepo{}, &fakeEnqueuer{})

	res, err := svc.ConfirmPayment(context.Background(), &transfer.PaymentEvent{Reference: "ref-1", Status: "paid"})
	require.NoError(t, err, "side effect failures must not trigger gateway retries")

	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Message)
}

func TestConfirmPayment_PostIntentMaterializesAndSubmits(t *testing.T) {
	pc := transfer.PostCreation{
		Title:      "launch day",
		MediaURL:   "https://cdn.example.com/clip.mp4",
		AccountIDs: []int64{4, 5},
	}
	payments := newFakePaymentRepo(postIntent(t, "ref-2", pc))
	posts := &fakePostRepo{}
	links := &fakePostAccountRepo{}
	queue := &fakeEnqueuer{}
	svc := NewPaymentService(payments, &fakeSubscriptionRepo{}, posts, links, queue)

	res, err := svc.ConfirmPayment(context.Background(), &transfer.PaymentEvent{Reference: "ref-2", Status: "successful"})
	require.NoError(t, err)
	assert.True(t, res.OK)

	require.Len(t, posts.created, 1)
	assert.Equal(t, models.PostStatusQueued, posts.created[0].Status)
	assert.Equal(t, []int64{4, 5}, links.linked)
	assert.Equal(t, []int64{1}, queue.submitted)
}

func TestConfirmPayment_ScheduledPostIsLeftForTheScheduler(t *testing.T) {
	at := time.Now().Add(2 * time.Hour)
	pc := transfer.PostCreation{
		MediaURL:      "https://cdn.example.com/clip.mp4",
		ScheduledTime: &at,
		AccountIDs:    []int64{4},
	}
	payments := newFakePaymentRepo(postIntent(t, "ref-2", pc))
	posts := &fakePostRepo{}
	queue := &fakeEnqueuer{}
	svc := NewPaymentService(payments, &fakeSubscriptionRepo{}, posts, &fakePostAccountRepo{}, queue)

	res, err := svc.ConfirmPayment(context.Background(), &transfer.PaymentEvent{Reference: "ref-2", Status: "paid"})
	require.NoError(t, err)
	assert.True(t, res.OK)

	require.Len(t, posts.created, 1)
	assert.Equal(t, models.PostStatusPending, posts.created[0].Status)
	assert.Empty(t, queue.submitted)
}

func TestConfirmPayment_MaterializationFailureIsSwallowed(t *testing.T) {
	pc := transfer.PostCreation{MediaURL: "https://cdn.example.com/clip.mp4", AccountIDs: []int64{4}}
	payments := newFakePaymentRepo(postIntent(t, "ref-2", pc))
	posts := &fakePostRepo{createErr: errors.New("insert failed")}
	svc := NewPaymentService(payments, &fakeSubscriptionRepo{}, posts, &fakePostAccountRepo{}, &fakeEnqueuer{})

	res, err := svc.ConfirmPayment(context.Background(), &transfer.PaymentEvent{Reference: "ref-2", Status: "paid"})
	require.NoError(t, err)

	assert.False(t, res.OK)
	assert.Equal(t, "post materialization failed", res.Message)
}
