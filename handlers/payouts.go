package handlers

import (
	"net/http"

	"therapia/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPayoutAccount onboards the authenticated therapist onto the payment
// gateway's connected accounts. Safe to call again while verification is
// pending; repeat calls refresh the readiness flag.
func (hb *HandlerBundle) SetupPayoutAccount(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req struct {
		Email   string `json:"email" binding:"required,email"`
		Country string `json:"country" binding:"required,len=2"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	t, err := hb.Payments.SetupPayoutAccount(c.Request.Context(), actor.TherapistID, req.Email, req.Country)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payoutAccountId":    t.PayoutAccountID,
		"payoutAccountReady": t.PayoutAccountReady,
	})
}

// GetPayoutAccount reports the stored onboarding state; the readiness flag
// is kept current by the gateway's account-status webhook.
func (hb *HandlerBundle) GetPayoutAccount(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	t, err := hb.Payments.PayoutAccountStatus(c.Request.Context(), actor.TherapistID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"payoutAccountId":    t.PayoutAccountID,
		"payoutAccountReady": t.PayoutAccountReady,
	})
}
