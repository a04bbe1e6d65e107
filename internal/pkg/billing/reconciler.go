package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ikram-mever-codes/csb-backend/app/models"
	"github.com/ikram-mever-codes/csb-backend/app/repository"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
)

// Provider is the identifier recorded with every webhook envelope.
const Provider = "gateway"

const (
	EventChargeSucceeded       = "charge.succeeded"
	EventChargeFailed          = "charge.failed"
	EventSubscriptionCancelled = "subscription.cancelled"
)

// Event is the normalized payment-provider notification. PeriodEnd is only
// populated for charge.succeeded events.
type Event struct {
	ID         string
	Type       string
	BillingRef string
	PeriodEnd  time.Time
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		BillingRef string `json:"billing_ref"`
		PeriodEnd  int64  `json:"period_end"`
	} `json:"data"`
}

// ParseEvent decodes a webhook payload into a normalized Event.
func ParseEvent(raw []byte) (*Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "Malformed webhook payload", err)
	}
	if strings.TrimSpace(env.Type) == "" {
		return nil, apperror.New(apperror.KindValidation, "Webhook event type is missing")
	}

	ev := &Event{
		ID:         strings.TrimSpace(env.ID),
		Type:       strings.TrimSpace(env.Type),
		BillingRef: strings.TrimSpace(env.Data.BillingRef),
	}
	if ev.ID == "" {
		// Some providers omit the event id. Key dedup on the payload
		// content instead, so distinct id-less events never share the
		// (provider, event id) slot.
		sum := sha256.Sum256(raw)
		ev.ID = hex.EncodeToString(sum[:])
	}
	if env.Data.PeriodEnd > 0 {
		ev.PeriodEnd = time.Unix(env.Data.PeriodEnd, 0)
	}
	return ev, nil
}

// Reconciler applies asynchronous provider events to the ledger and the
// user projection. Events are at-least-once; every transition here is
// idempotent so duplicate delivery converges on the same state.
type Reconciler struct {
	subs    repository.SubscriptionRepository
	service *Service
}

// NewReconciler creates a webhook reconciler sharing the ledger's
// projection path.
func NewReconciler(subs repository.SubscriptionRepository, service *Service) *Reconciler {
	return &Reconciler{subs: subs, service: service}
}

// Apply executes the ledger transition for ev. Unknown billing refs and
// non-recurring subscriptions are a deliberate no-op: one-time purchases
// never receive follow-on webhook mutations.
func (r *Reconciler) Apply(ctx context.Context, ev *Event) error {
	if ev.BillingRef == "" {
		return nil
	}

	sub, err := r.subs.GetByBillingRef(ev.BillingRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !sub.IsRecurring {
		return nil
	}

	switch ev.Type {
	case EventChargeSucceeded:
		sub.PaymentStatus = models.PAYMENT_STATUS_PAID
		if !ev.PeriodEnd.IsZero() {
			sub.EndDate = ev.PeriodEnd
		}
	case EventChargeFailed:
		sub.PaymentStatus = models.PAYMENT_STATUS_FAILED
	case EventSubscriptionCancelled:
		sub.Status = models.STATUS_CANCELLED
	default:
		log.Printf("unhandled webhook event type %s", ev.Type)
		return nil
	}

	if err := r.subs.Update(sub); err != nil {
		return err
	}
	return r.service.Reproject(ctx, sub.UserID)
}
