package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"therapia/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const webhookMaxBodyBytes = int64(65536)

// StripeWebhook ingests payment gateway events. The signature is verified
// before anything is touched, and processed event IDs are remembered in
// redis so redelivered events mutate nothing twice.
func (hb *HandlerBundle) StripeWebhook(c *gin.Context) {
	logger := utils.GetLogger()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookMaxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), hb.WebhookSecret)
	if err != nil {
		logger.Warn("webhook signature rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	ctx := c.Request.Context()
	dedupeKey := utils.WebhookDedupePrefix + event.ID
	fresh, err := hb.Cache.SetNX(ctx, dedupeKey, 1, utils.WebhookDedupeTTL).Result()
	if err != nil {
		logger.Error("webhook dedupe check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dedupe unavailable"})
		return
	}
	if !fresh {
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	if err := hb.dispatchPaymentEvent(c, event); err != nil {
		// Forget the event so the gateway's retry gets another attempt.
		hb.Cache.Del(ctx, dedupeKey)
		logger.Error("webhook processing failed",
			zap.String("eventID", event.ID), zap.String("type", string(event.Type)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (hb *HandlerBundle) dispatchPaymentEvent(c *gin.Context, event stripe.Event) error {
	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	case "account.updated":
		var acct stripe.Account
		if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
			return err
		}
		_, err := hb.Payments.SyncPayoutAccount(c.Request.Context(), acct.ID)
		return err
	default:
		return nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return err
	}

	ctx := c.Request.Context()
	succeeded := event.Type == "payment_intent.succeeded"

	switch pi.Metadata["kind"] {
	case "booking":
		if succeeded {
			return hb.Bookings.HandlePaymentSucceeded(ctx, pi.ID)
		}
		return hb.Bookings.HandlePaymentFailed(ctx, pi.ID)
	case "package":
		if succeeded {
			return hb.Packages.HandlePaymentSucceeded(ctx, pi.ID)
		}
		return hb.Packages.HandlePaymentFailed(ctx, pi.ID)
	default:
		// Not an intent this service created.
		return nil
	}
}
