package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	stripe "github.com/stripe/stripe-go/v79"

	"github.com/selfmap/selfmap-backend/internal/platform/apierr"
	"github.com/selfmap/selfmap-backend/internal/platform/envutil"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/platform/payments"
	"github.com/selfmap/selfmap-backend/internal/store"
	"github.com/selfmap/selfmap-backend/internal/types"
)

// statusActiveUntilPeriodEnd marks a subscription that stays paid
// until the period ends, then lapses.
const statusActiveUntilPeriodEnd = "active_until_period_end"

type BillingService interface {
	CreateCheckout(ctx context.Context, userID, priceID string) (string, error)
	CreatePortal(ctx context.Context, userID string) (string, error)
	// HandleEvent applies a verified Stripe webhook event. A nil error
	// means the event is acknowledged, including events for unknown
	// users that a retry would never resolve.
	HandleEvent(ctx context.Context, event stripe.Event) error
}

type billingService struct {
	store       store.Store
	payments    payments.Client
	frontendURL string
	log         *logger.Logger
}

func NewBillingService(st store.Store, pay payments.Client, log *logger.Logger) BillingService {
	return &billingService{
		store:       st,
		payments:    pay,
		frontendURL: envutil.String("FRONTEND_URL", "http://localhost:3000"),
		log:         log.With("service", "BillingService"),
	}
}

func errBillingUnavailable() *apierr.Error {
	return apierr.New(http.StatusServiceUnavailable, "billing_unavailable", fmt.Errorf("billing is not configured"))
}

// priceTierMap maps configured Stripe price ids to tiers. Read per
// call so rotated price ids take effect without a restart.
func priceTierMap() map[string]string {
	m := map[string]string{}
	for env, tier := range map[string]string{
		"STRIPE_PRO_MONTHLY_PRICE_ID":       types.TierPro,
		"STRIPE_PRO_YEARLY_PRICE_ID":        types.TierPro,
		"STRIPE_UNLIMITED_MONTHLY_PRICE_ID": types.TierUnlimited,
		"STRIPE_UNLIMITED_YEARLY_PRICE_ID":  types.TierUnlimited,
	} {
		if id := envutil.String(env, ""); id != "" {
			m[id] = tier
		}
	}
	return m
}

func (s *billingService) CreateCheckout(ctx context.Context, userID, priceID string) (string, error) {
	if s.payments == nil {
		return "", errBillingUnavailable()
	}
	if priceID == "" {
		return "", apierr.Validation(fmt.Errorf("priceId is required"), map[string]string{"priceId": "Price ID is required"})
	}
	user, err := s.store.GetByID(ctx, store.TableUsers, userID)
	if err != nil {
		return "", apierr.Internal(err)
	}
	if user == nil {
		return "", apierr.NotFound("user_not_found", fmt.Errorf("user not found"))
	}

	url, err := s.payments.CreateCheckoutSession(ctx, payments.CheckoutParams{
		PriceID:       priceID,
		UserID:        userID,
		CustomerID:    rowString(user, "stripe_customer_id"),
		CustomerEmail: rowString(user, "email"),
		SuccessURL:    s.frontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.frontendURL + "/payment/cancel",
	})
	if err != nil {
		s.log.Error("Checkout session creation failed", "user_id", userID, "error", err)
		return "", apierr.Internal(err)
	}
	return url, nil
}

func (s *billingService) CreatePortal(ctx context.Context, userID string) (string, error) {
	if s.payments == nil {
		return "", errBillingUnavailable()
	}
	user, err := s.store.GetByID(ctx, store.TableUsers, userID)
	if err != nil {
		return "", apierr.Internal(err)
	}
	if user == nil {
		return "", apierr.NotFound("user_not_found", fmt.Errorf("user not found"))
	}
	customerID := rowString(user, "stripe_customer_id")
	if customerID == "" {
		return "", apierr.Validation(fmt.Errorf("no stripe customer"), map[string]string{"subscription": "No active subscription found to manage."})
	}

	url, err := s.payments.CreatePortalSession(ctx, customerID, s.frontendURL+"/account-settings")
	if err != nil {
		s.log.Error("Portal session creation failed", "user_id", userID, "error", err)
		return "", apierr.Internal(err)
	}
	return url, nil
}

func (s *billingService) HandleEvent(ctx context.Context, event stripe.Event) error {
	s.log.Info("Processing Stripe event", "event_type", string(event.Type))
	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created":
		// Initial setup happens in checkout.session.completed.
		return nil
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event)
	case "invoice.paid":
		return s.handleInvoicePaid(ctx, event)
	case "invoice.payment_failed":
		return s.handleInvoicePaymentFailed(ctx, event)
	default:
		s.log.Warn("Unhandled Stripe event type", "event_type", string(event.Type))
		return nil
	}
}

func (s *billingService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return apierr.Validation(fmt.Errorf("malformed checkout session payload: %w", err), nil)
	}
	userID := session.Metadata["user_id"]
	if userID == "" {
		return apierr.Validation(fmt.Errorf("user_id missing from checkout session metadata"), nil)
	}
	if session.Customer == nil || session.Subscription == nil {
		return apierr.Validation(fmt.Errorf("customer or subscription missing from checkout session"), nil)
	}
	customerID := session.Customer.ID
	subscriptionID := session.Subscription.ID

	sub, err := s.payments.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return apierr.Internal(err)
	}
	tier := s.tierFromSubscription(sub)
	if tier == "" {
		return apierr.Validation(fmt.Errorf("unknown price on subscription %s", subscriptionID), nil)
	}

	user, err := s.store.GetByID(ctx, store.TableUsers, userID)
	if err != nil {
		return apierr.Internal(err)
	}
	if user == nil {
		return apierr.NotFound("user_not_found", fmt.Errorf("user %s not found for checkout completion", userID))
	}

	if _, err := s.store.Update(ctx, store.TableUsers, userID, map[string]any{
		"stripe_customer_id":     customerID,
		"stripe_subscription_id": subscriptionID,
		"subscription_tier":      tier,
		"subscription_status":    "active",
	}); err != nil {
		return apierr.Internal(err)
	}
	s.log.Info("Checkout fulfilled", "user_id", userID, "tier", tier)
	return nil
}

func (s *billingService) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return apierr.Validation(fmt.Errorf("malformed subscription payload: %w", err), nil)
	}
	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	user, err := s.findBillingUser(ctx, customerID, sub.ID)
	if err != nil {
		return apierr.Internal(err)
	}
	if user == nil {
		// Acknowledge: a retry will not make the user appear.
		s.log.Warn("No user for subscription update", "error", fmt.Errorf("subscription %s", sub.ID))
		return nil
	}
	userID := rowString(user, "id")

	status := string(sub.Status)
	tier := rowString(user, "subscription_tier")
	if mapped := s.tierFromSubscription(&sub); mapped != "" {
		tier = mapped
	} else if status != string(stripe.SubscriptionStatusActive) {
		tier = types.TierFree
	}

	data := map[string]any{
		"subscription_status":    status,
		"subscription_tier":      tier,
		"stripe_subscription_id": sub.ID,
	}
	if customerID != "" {
		data["stripe_customer_id"] = customerID
	}
	if status != string(stripe.SubscriptionStatusActive) && status != string(stripe.SubscriptionStatusTrialing) {
		data["subscription_tier"] = types.TierFree
		if status == string(stripe.SubscriptionStatusCanceled) {
			data["stripe_subscription_id"] = nil
		}
	}
	if sub.CancelAtPeriodEnd {
		// Paid tier is kept until the deletion event arrives.
		data["subscription_status"] = statusActiveUntilPeriodEnd
		data["subscription_tier"] = tier
	}

	if _, err := s.store.Update(ctx, store.TableUsers, userID, data); err != nil {
		return apierr.Internal(err)
	}
	s.log.Info("Subscription updated", "user_id", userID, "tier", data["subscription_tier"])
	return nil
}

func (s *billingService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return apierr.Validation(fmt.Errorf("malformed subscription payload: %w", err), nil)
	}
	user, err := s.findBillingUser(ctx, "", sub.ID)
	if err != nil {
		return apierr.Internal(err)
	}
	if user == nil {
		s.log.Warn("No user for subscription deletion", "error", fmt.Errorf("subscription %s", sub.ID))
		return nil
	}
	userID := rowString(user, "id")

	// Customer id is kept for future subscriptions.
	if _, err := s.store.Update(ctx, store.TableUsers, userID, map[string]any{
		"subscription_tier":      types.TierFree,
		"subscription_status":    "canceled",
		"stripe_subscription_id": nil,
	}); err != nil {
		return apierr.Internal(err)
	}
	s.log.Info("Subscription canceled", "user_id", userID)
	return nil
}

func (s *billingService) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return apierr.Validation(fmt.Errorf("malformed invoice payload: %w", err), nil)
	}
	if invoice.Customer == nil {
		s.log.Warn("Invoice paid event without customer")
		return nil
	}
	user, err := s.findBillingUser(ctx, invoice.Customer.ID, "")
	if err != nil {
		return apierr.Internal(err)
	}
	if user == nil {
		s.log.Warn("Invoice paid for unknown customer")
		return nil
	}
	if rowString(user, "subscription_status") == "active" {
		return nil
	}
	if _, err := s.store.Update(ctx, store.TableUsers, rowString(user, "id"), map[string]any{
		"subscription_status": "active",
	}); err != nil {
		return apierr.Internal(err)
	}
	return nil
}

func (s *billingService) handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return apierr.Validation(fmt.Errorf("malformed invoice payload: %w", err), nil)
	}
	if invoice.Customer == nil {
		s.log.Warn("Invoice payment failed event without customer")
		return nil
	}
	user, err := s.findBillingUser(ctx, invoice.Customer.ID, "")
	if err != nil {
		return apierr.Internal(err)
	}
	if user == nil {
		s.log.Warn("Invoice payment failed for unknown customer")
		return nil
	}
	if rowString(user, "subscription_status") == "payment_failed" {
		return nil
	}
	if _, err := s.store.Update(ctx, store.TableUsers, rowString(user, "id"), map[string]any{
		"subscription_status": "payment_failed",
	}); err != nil {
		return apierr.Internal(err)
	}
	s.log.Warn("Subscription payment failed", "user_id", rowString(user, "id"))
	return nil
}

// findBillingUser looks a user up by Stripe customer id, falling back
// to subscription id.
func (s *billingService) findBillingUser(ctx context.Context, customerID, subscriptionID string) (map[string]any, error) {
	if customerID != "" {
		rows, err := s.store.GetAll(ctx, store.TableUsers, map[string]any{"stripe_customer_id": customerID})
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows[0], nil
		}
	}
	if subscriptionID != "" {
		rows, err := s.store.GetAll(ctx, store.TableUsers, map[string]any{"stripe_subscription_id": subscriptionID})
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows[0], nil
		}
	}
	return nil, nil
}

func (s *billingService) tierFromSubscription(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	return priceTierMap()[sub.Items.Data[0].Price.ID]
}
