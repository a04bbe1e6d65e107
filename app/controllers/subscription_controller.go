package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ikram-mever-codes/csb-backend/app/repository"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/billing"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/usercontext"
)

type buySubscriptionRequest struct {
	PaymentMethodID string `json:"paymentMethodId"`
	Plan            string `json:"plan"`
	IsRecurring     bool   `json:"isRecurring"`
	Duration        int    `json:"duration"`
}

// HandleBuySubscription purchases or upgrades a plan for the authenticated
// user. The price is computed server-side; any price in the body is
// ignored.
func HandleBuySubscription(c *fiber.Ctx) error {
	var req buySubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Invalid request body"))
	}

	sub, inv, err := billingService.Purchase(c.UserContext(), usercontext.GetUserID(c), billing.PurchaseInput{
		Plan:             req.Plan,
		PaymentMethodRef: req.PaymentMethodID,
		Recurring:        req.IsRecurring,
		DurationMonths:   req.Duration,
	})
	if err != nil {
		return apperror.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Subscription created successfully and invoice generated!",
		"subscription": sub,
		"invoice":      inv,
	})
}

// HandleGetAllInvoices lists every invoice, newest first. Admin only.
func HandleGetAllInvoices(c *fiber.Ctx) error {
	invoices, err := repository.GetGlobalFactory().GetInvoiceRepository().ListAll()
	if err != nil {
		return apperror.Respond(c, err)
	}
	if len(invoices) == 0 {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "No Sales Found!"))
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}
