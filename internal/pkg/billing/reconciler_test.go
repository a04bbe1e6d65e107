package billing

import (
	"context"
	"testing"
	"time"

	"github.com/ikram-mever-codes/csb-backend/app/models"
)

func recurringSub(userID uint, ref string) *models.Subscription {
	now := time.Now()
	return &models.Subscription{
		ID:            1,
		UserID:        userID,
		Plan:          "basic",
		Status:        models.STATUS_ACTIVE,
		StartDate:     now.AddDate(0, -1, 0),
		EndDate:       now.AddDate(0, 0, 3),
		PaymentStatus: models.PAYMENT_STATUS_PAID,
		BillingRef:    ref,
		IsRecurring:   true,
	}
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    Event
	}{
		{
			name: "charge succeeded with period end",
			raw:  `{"id":"evt_1","type":"charge.succeeded","data":{"billing_ref":"txn_9","period_end":1767225600}}`,
			want: Event{ID: "evt_1", Type: "charge.succeeded", BillingRef: "txn_9", PeriodEnd: time.Unix(1767225600, 0)},
		},
		{
			name: "missing type",
			raw:  `{"id":"evt_2","data":{"billing_ref":"txn_9"}}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			raw:     `{"id":`,
			wantErr: true,
		},
		{
			name: "whitespace trimmed",
			raw:  `{"id":" evt_3 ","type":" charge.failed ","data":{"billing_ref":" txn_9 "}}`,
			want: Event{ID: "evt_3", Type: "charge.failed", BillingRef: "txn_9"},
		},
	}

	for _, tt := range tests {
		ev, err := ParseEvent([]byte(tt.raw))
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error, got %+v", tt.name, ev)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: ParseEvent() error = %v", tt.name, err)
		}
		if ev.ID != tt.want.ID || ev.Type != tt.want.Type || ev.BillingRef != tt.want.BillingRef || !ev.PeriodEnd.Equal(tt.want.PeriodEnd) {
			t.Fatalf("%s: ParseEvent() = %+v, want %+v", tt.name, ev, tt.want)
		}
	}
}

func TestParseEventIDFallback(t *testing.T) {
	succeeded := []byte(`{"type":"charge.succeeded","data":{"billing_ref":"txn_9","period_end":1767225600}}`)
	failed := []byte(`{"type":"charge.failed","data":{"billing_ref":"txn_9"}}`)

	first, err := ParseEvent(succeeded)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected a derived event id for an id-less payload")
	}

	// Same payload must derive the same id so provider retries still dedup.
	replay, err := ParseEvent(succeeded)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if replay.ID != first.ID {
		t.Fatalf("derived id not stable: %q vs %q", replay.ID, first.ID)
	}

	// A different id-less payload must not collide with the first.
	second, err := ParseEvent(failed)
	if err != nil {
		t.Fatalf("ParseEvent() error = %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("distinct payloads derived the same id %q", first.ID)
	}
}

func TestApplyChargeSucceededExtendsPeriod(t *testing.T) {
	users := newFakeUserRepo(testUser())
	sub := recurringSub(1, "txn_9")
	subs := newFakeSubRepo(sub)
	svc, _ := newTestService(t, users, subs, &fakeGateway{})
	rec := NewReconciler(subs, svc)

	periodEnd := time.Now().AddDate(0, 1, 0).Truncate(time.Second)
	ev := &Event{ID: "evt_1", Type: EventChargeSucceeded, BillingRef: "txn_9", PeriodEnd: periodEnd}

	if err := rec.Apply(context.Background(), ev); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	stored, _ := subs.GetByBillingRef("txn_9")
	if !stored.EndDate.Equal(periodEnd) {
		t.Fatalf("expected end date %v, got %v", periodEnd, stored.EndDate)
	}
	if stored.PaymentStatus != models.PAYMENT_STATUS_PAID {
		t.Fatalf("expected paid, got %q", stored.PaymentStatus)
	}

	// Replaying the same event must converge on identical state.
	if err := rec.Apply(context.Background(), ev); err != nil {
		t.Fatalf("Apply() replay error = %v", err)
	}
	replayed, _ := subs.GetByBillingRef("txn_9")
	if !replayed.EndDate.Equal(stored.EndDate) || replayed.PaymentStatus != stored.PaymentStatus {
		t.Fatalf("replay diverged: %+v vs %+v", replayed, stored)
	}

	user, _ := users.GetByID(1)
	if user.Subscription.Status != models.SUBSCRIPTION_STATUS_ACTIVE {
		t.Fatalf("projection not refreshed: %+v", user.Subscription)
	}
}

func TestApplyChargeFailedDeactivatesProjection(t *testing.T) {
	users := newFakeUserRepo(testUser())
	subs := newFakeSubRepo(recurringSub(1, "txn_9"))
	svc, _ := newTestService(t, users, subs, &fakeGateway{})
	rec := NewReconciler(subs, svc)

	err := rec.Apply(context.Background(), &Event{ID: "evt_2", Type: EventChargeFailed, BillingRef: "txn_9"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	stored, _ := subs.GetByBillingRef("txn_9")
	if stored.PaymentStatus != models.PAYMENT_STATUS_FAILED {
		t.Fatalf("expected failed payment status, got %q", stored.PaymentStatus)
	}
	user, _ := users.GetByID(1)
	if user.Subscription.Status != models.SUBSCRIPTION_STATUS_INACTIVE {
		t.Fatalf("projection should be inactive after failed charge: %+v", user.Subscription)
	}
}

func TestApplyCancellation(t *testing.T) {
	users := newFakeUserRepo(testUser())
	subs := newFakeSubRepo(recurringSub(1, "txn_9"))
	svc, _ := newTestService(t, users, subs, &fakeGateway{})
	rec := NewReconciler(subs, svc)

	err := rec.Apply(context.Background(), &Event{ID: "evt_3", Type: EventSubscriptionCancelled, BillingRef: "txn_9"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	stored, _ := subs.GetByBillingRef("txn_9")
	if stored.Status != models.STATUS_CANCELLED {
		t.Fatalf("expected cancelled, got %q", stored.Status)
	}
	user, _ := users.GetByID(1)
	if user.Subscription.Status != models.SUBSCRIPTION_STATUS_INACTIVE {
		t.Fatalf("projection should be inactive after cancellation: %+v", user.Subscription)
	}
}

func TestApplyLateChargeDoesNotResurrectCancellation(t *testing.T) {
	users := newFakeUserRepo(testUser())
	subs := newFakeSubRepo(recurringSub(1, "txn_9"))
	svc, _ := newTestService(t, users, subs, &fakeGateway{})
	rec := NewReconciler(subs, svc)

	if err := rec.Apply(context.Background(), &Event{ID: "evt_4", Type: EventSubscriptionCancelled, BillingRef: "txn_9"}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// A charge settling after the cancellation extends the paid period but
	// must not flip the subscription back to active.
	periodEnd := time.Now().AddDate(0, 1, 0).Truncate(time.Second)
	err := rec.Apply(context.Background(), &Event{ID: "evt_5", Type: EventChargeSucceeded, BillingRef: "txn_9", PeriodEnd: periodEnd})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	stored, _ := subs.GetByBillingRef("txn_9")
	if stored.Status != models.STATUS_CANCELLED {
		t.Fatalf("late charge resurrected cancellation: %q", stored.Status)
	}
	if !stored.EndDate.Equal(periodEnd) {
		t.Fatalf("expected end date %v, got %v", periodEnd, stored.EndDate)
	}
	user, _ := users.GetByID(1)
	if user.Subscription.Status != models.SUBSCRIPTION_STATUS_INACTIVE {
		t.Fatalf("projection should stay inactive: %+v", user.Subscription)
	}
}

func TestApplyIgnoresNonRecurringAndUnknownRefs(t *testing.T) {
	users := newFakeUserRepo(testUser())
	oneTime := recurringSub(1, "txn_once")
	oneTime.IsRecurring = false
	subs := newFakeSubRepo(oneTime)
	svc, _ := newTestService(t, users, subs, &fakeGateway{})
	rec := NewReconciler(subs, svc)

	before, _ := subs.GetByBillingRef("txn_once")

	events := []*Event{
		{ID: "evt_4", Type: EventChargeFailed, BillingRef: "txn_once"},
		{ID: "evt_5", Type: EventChargeFailed, BillingRef: "txn_missing"},
		{ID: "evt_6", Type: EventChargeFailed},
		{ID: "evt_7", Type: "charge.refunded", BillingRef: "txn_once"},
	}
	for _, ev := range events {
		if err := rec.Apply(context.Background(), ev); err != nil {
			t.Fatalf("Apply(%s) error = %v", ev.ID, err)
		}
	}

	after, _ := subs.GetByBillingRef("txn_once")
	if after.PaymentStatus != before.PaymentStatus || after.Status != before.Status {
		t.Fatalf("one-time subscription mutated: %+v", after)
	}
}
