package handlers

import (
	"net/http"

	"therapia/middleware"
	"therapia/models"

	"github.com/gin-gonic/gin"
)

func (hb *HandlerBundle) RaiseDispute(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.RaiseDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	d, err := hb.Disputes.Raise(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (hb *HandlerBundle) ResolveDispute(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	d, err := hb.Disputes.Resolve(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (hb *HandlerBundle) CloseDispute(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req struct {
		Resolution string `json:"resolution" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	d, err := hb.Disputes.Close(c.Request.Context(), actor, c.Param("id"), req.Resolution)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (hb *HandlerBundle) GetDispute(c *gin.Context) {
	d, err := hb.Disputes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dispute not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (hb *HandlerBundle) ListDisputes(c *gin.Context) {
	var q models.ListDisputesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	disputes, err := hb.Disputes.List(c.Request.Context(), q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if disputes == nil {
		disputes = []models.SessionDispute{}
	}
	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}
