package services

import (
	"context"
	"encoding/json"
	"testing"

	stripe "github.com/stripe/stripe-go/v79"

	"github.com/selfmap/selfmap-backend/internal/store"
)

func newTestBilling(st *fakeStore, t *testing.T) BillingService {
	return NewBillingService(st, nil, testLogger(t))
}

func subscriptionEvent(eventType string, payload string) stripe.Event {
	return stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(payload)},
	}
}

func TestBillingUnavailableWithoutStripe(t *testing.T) {
	st := newFakeStore()
	st.seed(store.TableUsers, map[string]any{"id": "u1", "email": "ada@example.com"})
	svc := newTestBilling(st, t)

	_, err := svc.CreateCheckout(context.Background(), "u1", "price_123")
	assertStatus(t, err, 503, "billing_unavailable")

	_, err = svc.CreatePortal(context.Background(), "u1")
	assertStatus(t, err, 503, "billing_unavailable")
}

func TestSubscriptionDeletedDowngradesUser(t *testing.T) {
	st := newFakeStore()
	st.seed(store.TableUsers, map[string]any{
		"id":                     "u1",
		"subscription_tier":      "pro",
		"subscription_status":    "active",
		"stripe_customer_id":     "cus_1",
		"stripe_subscription_id": "sub_1",
	})
	svc := newTestBilling(st, t)

	event := subscriptionEvent("customer.subscription.deleted", `{"id":"sub_1","customer":"cus_1"}`)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	user, _ := st.GetByID(context.Background(), store.TableUsers, "u1")
	if user["subscription_tier"] != "free" {
		t.Errorf("expected free tier, got %v", user["subscription_tier"])
	}
	if user["subscription_status"] != "canceled" {
		t.Errorf("expected canceled status, got %v", user["subscription_status"])
	}
	if user["stripe_subscription_id"] != nil {
		t.Errorf("expected cleared subscription id, got %v", user["stripe_subscription_id"])
	}
	if user["stripe_customer_id"] != "cus_1" {
		t.Errorf("customer id must survive cancellation, got %v", user["stripe_customer_id"])
	}
}

func TestSubscriptionDeletedUnknownUserIsAcknowledged(t *testing.T) {
	svc := newTestBilling(newFakeStore(), t)
	event := subscriptionEvent("customer.subscription.deleted", `{"id":"sub_unknown"}`)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unknown subscriptions must be acknowledged, got %v", err)
	}
}

func TestSubscriptionUpdatedCancelAtPeriodEnd(t *testing.T) {
	t.Setenv("STRIPE_PRO_MONTHLY_PRICE_ID", "price_pro")
	st := newFakeStore()
	st.seed(store.TableUsers, map[string]any{
		"id":                     "u1",
		"subscription_tier":      "pro",
		"subscription_status":    "active",
		"stripe_customer_id":     "cus_1",
		"stripe_subscription_id": "sub_1",
	})
	svc := newTestBilling(st, t)

	payload := `{
		"id": "sub_1",
		"customer": "cus_1",
		"status": "active",
		"cancel_at_period_end": true,
		"items": {"data": [{"price": {"id": "price_pro"}}]}
	}`
	event := subscriptionEvent("customer.subscription.updated", payload)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	user, _ := st.GetByID(context.Background(), store.TableUsers, "u1")
	if user["subscription_status"] != "active_until_period_end" {
		t.Errorf("expected active_until_period_end, got %v", user["subscription_status"])
	}
	if user["subscription_tier"] != "pro" {
		t.Errorf("paid tier must be kept until the period ends, got %v", user["subscription_tier"])
	}
}

func TestSubscriptionUpdatedPastDueDropsToFree(t *testing.T) {
	st := newFakeStore()
	st.seed(store.TableUsers, map[string]any{
		"id":                     "u1",
		"subscription_tier":      "pro",
		"subscription_status":    "active",
		"stripe_customer_id":     "cus_1",
		"stripe_subscription_id": "sub_1",
	})
	svc := newTestBilling(st, t)

	payload := `{"id": "sub_1", "customer": "cus_1", "status": "past_due"}`
	event := subscriptionEvent("customer.subscription.updated", payload)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	user, _ := st.GetByID(context.Background(), store.TableUsers, "u1")
	if user["subscription_tier"] != "free" {
		t.Errorf("expected free tier on past_due, got %v", user["subscription_tier"])
	}
	if user["subscription_status"] != "past_due" {
		t.Errorf("expected past_due status, got %v", user["subscription_status"])
	}
}

func TestInvoicePaymentFailedMarksUser(t *testing.T) {
	st := newFakeStore()
	st.seed(store.TableUsers, map[string]any{
		"id":                  "u1",
		"subscription_status": "active",
		"stripe_customer_id":  "cus_1",
	})
	svc := newTestBilling(st, t)

	event := subscriptionEvent("invoice.payment_failed", `{"id": "in_1", "customer": "cus_1"}`)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	user, _ := st.GetByID(context.Background(), store.TableUsers, "u1")
	if user["subscription_status"] != "payment_failed" {
		t.Errorf("expected payment_failed, got %v", user["subscription_status"])
	}
}

func TestInvoicePaidReactivates(t *testing.T) {
	st := newFakeStore()
	st.seed(store.TableUsers, map[string]any{
		"id":                  "u1",
		"subscription_status": "payment_failed",
		"stripe_customer_id":  "cus_1",
	})
	svc := newTestBilling(st, t)

	event := subscriptionEvent("invoice.paid", `{"id": "in_1", "customer": "cus_1"}`)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	user, _ := st.GetByID(context.Background(), store.TableUsers, "u1")
	if user["subscription_status"] != "active" {
		t.Errorf("expected active, got %v", user["subscription_status"])
	}
}

func TestUnhandledEventIsAcknowledged(t *testing.T) {
	svc := newTestBilling(newFakeStore(), t)
	event := subscriptionEvent("charge.refunded", `{}`)
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unhandled events must be acknowledged, got %v", err)
	}
}

func TestPriceTierMap(t *testing.T) {
	t.Setenv("STRIPE_PRO_MONTHLY_PRICE_ID", "price_pm")
	t.Setenv("STRIPE_UNLIMITED_YEARLY_PRICE_ID", "price_uy")

	m := priceTierMap()
	if m["price_pm"] != "pro" {
		t.Errorf("expected pro for price_pm, got %q", m["price_pm"])
	}
	if m["price_uy"] != "unlimited" {
		t.Errorf("expected unlimited for price_uy, got %q", m["price_uy"])
	}
	if _, ok := m[""]; ok {
		t.Error("unset price ids must not map to a tier")
	}
}
