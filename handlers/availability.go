package handlers

import (
	"net/http"

	"therapia/middleware"
	"therapia/models"

	"github.com/gin-gonic/gin"
)

// GetAvailableSlots returns the bookable windows for a therapist on a date,
// rendered in the requester's timezone.
func (hb *HandlerBundle) GetAvailableSlots(c *gin.Context) {
	var req models.AvailableSlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	st, err := hb.Catalog.GetSessionType(c.Request.Context(), req.SessionTypeID)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown session type"})
		return
	}

	slots, err := hb.Availability.GetAvailableSlots(c.Request.Context(),
		req.TherapistID, req.Date, st.DurationMinutes, req.Timezone)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if slots == nil {
		slots = []models.AvailableSlot{}
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots, "date": req.Date, "timezone": req.Timezone})
}

func (hb *HandlerBundle) SetWeeklyRule(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.SetWeeklyRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	rule, err := hb.Availability.SetWeeklyRule(c.Request.Context(), actor.TherapistID, req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (hb *HandlerBundle) ListWeeklyRules(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	rules, err := hb.Availability.ListWeeklyRules(c.Request.Context(), actor.TherapistID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if rules == nil {
		rules = []models.TherapistAvailability{}
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func (hb *HandlerBundle) DeactivateRule(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	if err := hb.Availability.DeactivateRule(c.Request.Context(), actor.TherapistID, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (hb *HandlerBundle) AddException(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.AddExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	exc, err := hb.Availability.AddException(c.Request.Context(), actor.TherapistID, req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, exc)
}

func (hb *HandlerBundle) ListExceptions(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	exceptions, err := hb.Availability.ListExceptions(c.Request.Context(),
		actor.TherapistID, c.Query("from"), c.Query("to"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if exceptions == nil {
		exceptions = []models.AvailabilityException{}
	}
	c.JSON(http.StatusOK, gin.H{"exceptions": exceptions})
}

func (hb *HandlerBundle) RemoveException(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	if err := hb.Availability.RemoveException(c.Request.Context(), actor.TherapistID, c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
