// Package payments wraps the Stripe SDK behind a small interface so
// billing logic can be exercised without network calls.
package payments

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	portalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/selfmap/selfmap-backend/internal/platform/envutil"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
)

type CheckoutParams struct {
	PriceID       string
	UserID        string
	CustomerID    string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type Client interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type stripeClient struct {
	webhookSecret string
	log           *logger.Logger
}

func NewClient(log *logger.Logger) (Client, error) {
	key := envutil.String("STRIPE_SECRET_KEY", "")
	if key == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	stripe.Key = key
	return &stripeClient{
		webhookSecret: envutil.String("STRIPE_WEBHOOK_SECRET", ""),
		log:           log.With("client", "StripeClient"),
	}, nil
}

func (c *stripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("user_id", p.UserID)
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	} else {
		// No Stripe customer yet: let checkout create one, and tag the
		// subscription so the webhook can link it back to the user.
		params.CustomerEmail = stripe.String(p.CustomerEmail)
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": p.UserID},
		}
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	c.log.Info("Created checkout session", "checkout_session", sess.ID)
	return sess.URL, nil
}

func (c *stripeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

func (c *stripeClient) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := subscription.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription %s: %w", id, err)
	}
	return sub, nil
}

func (c *stripeClient) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if c.webhookSecret == "" {
		return stripe.Event{}, fmt.Errorf("STRIPE_WEBHOOK_SECRET is not configured")
	}
	return webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
}
