package handlers

import (
	"net/http"

	"therapia/middleware"
	"therapia/models"

	"github.com/gin-gonic/gin"
)

// CreateBooking reserves a slot for the authenticated patient and returns
// the booking plus the client secret needed to complete payment.
func (hb *HandlerBundle) CreateBooking(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	res, err := hb.Bookings.Create(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (hb *HandlerBundle) AcceptBooking(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	b, err := hb.Bookings.Accept(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (hb *HandlerBundle) RejectBooking(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.RejectBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := hb.Bookings.Reject(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (hb *HandlerBundle) CancelBooking(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := hb.Bookings.Cancel(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CompleteBooking records the caller's completion acknowledgment.
func (hb *HandlerBundle) CompleteBooking(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	b, err := hb.Bookings.MarkCompleted(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (hb *HandlerBundle) GetBooking(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	b, err := hb.Bookings.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (hb *HandlerBundle) ListBookings(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var q models.ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	bookings, err := hb.Bookings.List(c.Request.Context(), actor, q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "page": q.Page, "limit": q.Limit})
}
