package billing

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/ikram-mever-codes/csb-backend/app/models"
	"github.com/ikram-mever-codes/csb-backend/app/repository"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/entitlements"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/invoice"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/lock"
)

const purchaseLockTTL = 30 * time.Second

// Service owns the canonical subscription record and the entitlement
// projection on the user row. All mutations go through here so the two
// views cannot silently diverge.
type Service struct {
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	gateway  Gateway
	recorder *invoice.Recorder
	locker   lock.Locker
}

// NewService creates a billing service from injected collaborators.
func NewService(users repository.UserRepository, subs repository.SubscriptionRepository, gateway Gateway, recorder *invoice.Recorder, locker lock.Locker) *Service {
	return &Service{
		users:    users,
		subs:     subs,
		gateway:  gateway,
		recorder: recorder,
		locker:   locker,
	}
}

// PurchaseInput describes a user-initiated plan purchase. Price is never
// part of the input; it is derived from the plan rate table.
type PurchaseInput struct {
	Plan             string
	PaymentMethodRef string
	Recurring        bool
	DurationMonths   int
}

// Purchase charges the gateway and, on success, upserts the subscription,
// projects the summary onto the user and records an invoice. Gateway
// failure leaves the ledger untouched.
func (s *Service) Purchase(ctx context.Context, userID uint, in PurchaseInput) (*models.Subscription, *models.Invoice, error) {
	if in.PaymentMethodRef == "" || in.Plan == "" {
		return nil, nil, apperror.New(apperror.KindValidation, "Payment method and plan are required!")
	}
	if in.DurationMonths < 1 {
		in.DurationMonths = 1
	}

	release, err := s.locker.Acquire(ctx, lock.UserKey(userID), purchaseLockTTL)
	if err != nil {
		return nil, nil, apperror.Wrap(apperror.KindInternal, "Could not serialize purchase", err)
	}
	defer release()

	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.New(apperror.KindNotFound, "User not found!")
		}
		return nil, nil, err
	}

	sub, err := s.subs.GetByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub = nil
	}

	if sub != nil && sub.Status == models.STATUS_ACTIVE {
		if !entitlements.IsKnownPlan(in.Plan) ||
			(entitlements.PlanRank(in.Plan) < entitlements.PlanRank(sub.Plan)) {
			return nil, nil, apperror.New(apperror.KindPlanTooLow, "You cannot downgrade to a lower plan!")
		}
		if entitlements.NormalizePlan(sub.Plan) == entitlements.NormalizePlan(in.Plan) {
			return nil, nil, apperror.New(apperror.KindAlreadyOnPlan, "You already have the "+in.Plan+" plan!")
		}
	}
	if !entitlements.IsKnownPlan(in.Plan) {
		return nil, nil, apperror.New(apperror.KindValidation, "Invalid subscription plan!")
	}

	amount := entitlements.Price(in.Plan, in.DurationMonths)

	var result *ChargeResult
	if in.Recurring {
		result, err = s.gateway.CreateRecurring(ctx, user.Email, amount, in.Plan)
	} else {
		result, err = s.gateway.Charge(ctx, in.PaymentMethodRef, amount, user.Email)
	}
	if err != nil {
		return nil, nil, err
	}
	if !result.Success {
		return nil, nil, apperror.New(apperror.KindPaymentFailed, "Payment failed: "+result.Message)
	}

	startDate := time.Now()
	endDate := startDate.AddDate(0, in.DurationMonths, 0)

	if sub == nil {
		sub = &models.Subscription{
			UserID:        user.ID,
			Plan:          in.Plan,
			Status:        models.STATUS_ACTIVE,
			StartDate:     startDate,
			EndDate:       endDate,
			PaymentMethod: models.PAYMENT_METHOD_GATEWAY,
			PaymentStatus: models.PAYMENT_STATUS_PAID,
			BillingRef:    result.TransactionID,
			IsRecurring:   in.Recurring,
		}
		if err := s.subs.Create(sub); err != nil {
			return nil, nil, err
		}
	} else {
		sub.Plan = in.Plan
		sub.Status = models.STATUS_ACTIVE
		sub.StartDate = startDate
		sub.EndDate = endDate
		sub.PaymentStatus = models.PAYMENT_STATUS_PAID
		sub.BillingRef = result.TransactionID
		sub.IsRecurring = in.Recurring
		if err := s.subs.Update(sub); err != nil {
			return nil, nil, err
		}
	}

	if err := s.project(user.ID, sub); err != nil {
		// The subscription row is committed; the projection is repairable
		// via Reproject, so surface the fault instead of hiding it.
		return nil, nil, apperror.Wrap(apperror.KindInternal, "Subscription saved but projection failed; run reprojection", err)
	}

	inv, err := s.recorder.Record(ctx, invoice.RecordInput{
		CustomerName:   user.FullName(),
		CustomerEmail:  user.Email,
		CustomerAvatar: user.AvatarURL,
		Plan:           sub.Plan,
		InvoiceDate:    startDate,
		DueDate:        endDate,
		TotalAmount:    amount,
		SubscriptionID: sub.ID,
	})
	if err != nil {
		// Entitlement is already granted; a missing invoice document is an
		// accounting follow-up, not a reason to refuse the purchase.
		log.Printf("invoice recording failed for user %d: %v", user.ID, err)
		inv = nil
	}

	return sub, inv, nil
}

// Reproject rewrites the user's entitlement summary from the canonical
// subscription row. Idempotent; used as the repair path when the second
// write of the save pair fails.
func (s *Service) Reproject(ctx context.Context, userID uint) error {
	_ = ctx
	sub, err := s.subs.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.users.UpdateSummary(userID, models.EntitlementSummary{
				Status: models.SUBSCRIPTION_STATUS_INACTIVE,
			})
		}
		return err
	}
	return s.project(userID, sub)
}

// ChangePlan switches a subscription's plan without a charge. Admin-only
// surface; both the ledger row and the projection are rewritten.
func (s *Service) ChangePlan(ctx context.Context, userID uint, plan string) error {
	if !entitlements.IsKnownPlan(plan) {
		return apperror.New(apperror.KindValidation, "Invalid subscription plan!")
	}

	release, err := s.locker.Acquire(ctx, lock.UserKey(userID), purchaseLockTTL)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "Could not serialize plan change", err)
	}
	defer release()

	sub, err := s.subs.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.New(apperror.KindNotFound, "Subscription not found!")
		}
		return err
	}
	if entitlements.NormalizePlan(sub.Plan) == entitlements.NormalizePlan(plan) {
		return apperror.New(apperror.KindAlreadyOnPlan, "User subscription plan is already "+plan)
	}

	sub.Plan = plan
	if err := s.subs.Update(sub); err != nil {
		return err
	}
	return s.project(userID, sub)
}

// project writes the denormalized summary for sub onto the user row. The
// projected status collapses the ledger's richer state into active/inactive.
func (s *Service) project(userID uint, sub *models.Subscription) error {
	id := sub.ID
	expires := sub.EndDate
	return s.users.UpdateSummary(userID, models.EntitlementSummary{
		SubscriptionID: &id,
		Plan:           sub.Plan,
		Status:         projectedStatus(sub),
		ExpiresAt:      &expires,
	})
}

func projectedStatus(sub *models.Subscription) string {
	if sub.Status == models.STATUS_ACTIVE && sub.PaymentStatus == models.PAYMENT_STATUS_PAID {
		return models.SUBSCRIPTION_STATUS_ACTIVE
	}
	return models.SUBSCRIPTION_STATUS_INACTIVE
}
