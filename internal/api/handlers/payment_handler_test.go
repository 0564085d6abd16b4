package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/transfer"
)

type fakePaymentService struct {
	events []*transfer.PaymentEvent
	result *transfer.WebhookResult
	err    error
}

func (f *fakePaymentService) CreateSubscriptionCheckout(ctx context.Context, userID, planID int64) (*models.PaymentIntent, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePaymentService) CreatePostCheckout(ctx context.Context, userID int64, pc *transfer.PostCreation) (*models.PaymentIntent, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePaymentService) ConfirmPayment(ctx context.Context, event *transfer.PaymentEvent) (*transfer.WebhookResult, error) {
	f.events = append(f.events, event)
	return f.result, f.err
}

func webhookApp(svc *fakePaymentService) *fiber.App {
	app := fiber.New()
	handler := NewPaymentHandler(svc)
	app.Post("/webhook/payment", handler.PaymentWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook/payment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeResult(t *testing.T, resp *http.Response) transfer.WebhookResult {
	t.Helper()

	var result transfer.WebhookResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func TestPaymentWebhook_SuccessDelivery(t *testing.T) {
	svc := &fakePaymentService{result: &transfer.WebhookResult{OK: true}}
	app := webhookApp(svc)

	resp := postWebhook(t, app, `{"reference":"ref-1","status":"PAID"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeResult(t, resp).OK)

	require.Len(t, svc.events, 1)
	assert.Equal(t, "ref-1", svc.events[0].Reference)
	assert.Equal(t, "PAID", svc.events[0].Status)
}

func TestPaymentWebhook_EventNameOnlyPayload(t *testing.T) {
	svc := &fakePaymentService{result: &transfer.WebhookResult{OK: true}}
	app := webhookApp(svc)

	resp := postWebhook(t, app, `{"reference":"ref-1","event":"payment.success"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, svc.events, 1)
	assert.Equal(t, "payment.success", svc.events[0].Event)
}

func TestPaymentWebhook_MissingReferenceIsRejected(t *testing.T) {
	svc := &fakePaymentService{}
	app := webhookApp(svc)

	resp := postWebhook(t, app, `{"status":"paid"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, svc.events, "the service must not see a reference-less event")
}

func TestPaymentWebhook_MalformedBodyIsRejected(t *testing.T) {
	svc := &fakePaymentService{}
	app := webhookApp(svc)

	resp := postWebhook(t, app, `{not json`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPaymentWebhook_DuplicateDeliveryStillAnswers200(t *testing.T) {
	svc := &fakePaymentService{result: &transfer.WebhookResult{OK: true, Duplicate: true}}
	app := webhookApp(svc)

	resp := postWebhook(t, app, `{"reference":"ref-1","status":"paid"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeResult(t, resp)
	assert.True(t, result.OK)
	assert.True(t, result.Duplicate)
}

func TestPaymentWebhook_MaterializationFailureStillAnswers200(t *testing.T) {
	svc := &fakePaymentService{result: &transfer.WebhookResult{OK: false, Message: "post materialization failed"}}
	app := webhookApp(svc)

	resp := postWebhook(t, app, `{"reference":"ref-2","status":"paid"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode,
		"a confirmed payment must never be redelivered over a side effect failure")
	result := decodeResult(t, resp)
	assert.False(t, result.OK)
}

func TestPaymentWebhook_GuardFailureIs500(t *testing.T) {
	svc := &fakePaymentService{err: errors.New("db unreachable")}
	app := webhookApp(svc)

	resp := postWebhook(t, app, `{"reference":"ref-1","status":"paid"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
