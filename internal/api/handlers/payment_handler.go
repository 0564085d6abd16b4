package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/varunm24/socialflow/internal/service"
	"github.com/varunm24/socialflow/internal/transfer"
)

type PaymentHandler struct {
	s service.PaymentService
}

func NewPaymentHandler(service service.PaymentService) *PaymentHandler {
	return &PaymentHandler{s: service}
}

type subscriptionCheckoutRequest struct {
	PlanID int64 `json:"plan_id"`
}

func (h *PaymentHandler) CreateSubscriptionCheckout(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req subscriptionCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request",
		})
	}

	intent, err := h.s.CreateSubscriptionCheckout(c.Context(), userID, req.PlanID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"reference": intent.Reference,
		"amount":    intent.Amount,
		"currency":  intent.Currency,
	})
}

func (h *PaymentHandler) CreatePostCheckout(c *fiber.Ctx) error {
	userID := GetUserID(c)

	pc, err := parsePostCreation(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	intent, err := h.s.CreatePostCheckout(c.Context(), userID, pc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"reference": intent.Reference,
		"amount":    intent.Amount,
		"currency":  intent.Currency,
	})
}

// PaymentWebhook receives gateway deliveries. Anything after the idempotency
// guard answers 200 so the gateway stops redelivering; only a missing
// reference or a guard-level failure is reported as an error.
func (h *PaymentHandler) PaymentWebhook(c *fiber.Ctx) error {
	var event transfer.PaymentEvent
	if err := c.BodyParser(&event); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse webhook payload",
		})
	}

	if event.Reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing payment reference",
		})
	}

	result, err := h.s.ConfirmPayment(c.Context(), &event)
	if err != nil {
		slog.Error("payment confirmation failed", "reference", event.Reference, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to process payment",
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func parsePostCreation(c *fiber.Ctx) (*transfer.PostCreation, error) {
	var pc transfer.PostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return nil, fiber.NewError(fiber.StatusBadRequest, "Unable to parse post data")
	}

	if pc.ScheduledTime != nil && pc.ScheduledTime.Before(time.Now()) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Scheduled time is in the past")
	}

	return &pc, nil
}
