package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/selfmap/selfmap-backend/internal/http/response"
	"github.com/selfmap/selfmap-backend/internal/platform/ctxutil"
	"github.com/selfmap/selfmap-backend/internal/platform/logger"
	"github.com/selfmap/selfmap-backend/internal/platform/payments"
	"github.com/selfmap/selfmap-backend/internal/services"
)

type BillingHandler struct {
	billing  services.BillingService
	payments payments.Client
	log      *logger.Logger
}

func NewBillingHandler(billing services.BillingService, pay payments.Client, log *logger.Logger) *BillingHandler {
	return &BillingHandler{billing: billing, payments: pay, log: log.With("Handler", "BillingHandler")}
}

type checkoutRequest struct {
	PriceID string `json:"priceId"`
}

func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	userID := ctxutil.UserID(c.Request.Context()).String()
	url, err := h.billing.CreateCheckout(c.Request.Context(), userID, req.PriceID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}

func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context()).String()
	url, err := h.billing.CreatePortal(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"url": url})
}

// Webhook verifies the Stripe signature on the raw body before
// handing the event to the billing service.
func (h *BillingHandler) Webhook(c *gin.Context) {
	if h.payments == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "billing_unavailable", nil)
		return
	}
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil || len(payload) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_payload", err)
		return
	}
	sig := c.GetHeader("Stripe-Signature")
	if sig == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_signature", nil)
		return
	}
	event, err := h.payments.VerifyEvent(payload, sig)
	if err != nil {
		h.log.Warn("Stripe webhook verification failed", "error", err)
		response.RespondError(c, http.StatusBadRequest, "invalid_signature", err)
		return
	}
	if err := h.billing.HandleEvent(c.Request.Context(), event); err != nil {
		response.FromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "success"})
}
