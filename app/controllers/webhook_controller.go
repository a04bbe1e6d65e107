package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ikram-mever-codes/csb-backend/app/models"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/billing"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/env"
)

// WebhookSignatureHeader carries the provider's HMAC-SHA256 hex signature
// over the raw request body.
const WebhookSignatureHeader = "X-CSB-Signature"

// HandlePaymentWebhook ingests payment-provider events. The signature is
// verified over the raw body before anything is stored; duplicate
// deliveries are absorbed by the event table's unique index.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	secret := env.GetEnv("PAYMENT_WEBHOOK_SECRET", "")

	if !billing.VerifyWebhookSignature(payload, c.Get(WebhookSignatureHeader), secret) {
		return apperror.Respond(c, apperror.New(apperror.KindInvalidSignature, "Invalid webhook signature"))
	}

	ev, err := billing.ParseEvent(payload)
	if err != nil {
		return apperror.Respond(c, err)
	}

	created, stored, err := webhookEvents.CreateIfNotExists(&models.WebhookEvent{
		Provider:        billing.Provider,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		return apperror.Respond(c, err)
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		// Replayed delivery of an already-processed event.
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	if err := reconciler.Apply(c.UserContext(), ev); err != nil {
		log.Errorf("webhook %s (%s) failed: %v", ev.ID, ev.Type, err)
		if markErr := webhookEvents.MarkProcessed(stored.ID, err.Error()); markErr != nil {
			log.Errorf("failed to record webhook error: %v", markErr)
		}
		// Non-2xx so the provider retries; Apply is idempotent.
		return apperror.Respond(c, err)
	}

	if err := webhookEvents.MarkProcessed(stored.ID, ""); err != nil {
		log.Errorf("failed to mark webhook processed: %v", err)
	}
	return c.JSON(fiber.Map{"received": true})
}
