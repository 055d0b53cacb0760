package handlers

import (
	"net/http"
	"strconv"

	"therapia/middleware"
	"therapia/models"

	"github.com/gin-gonic/gin"
)

// PurchasePackage opens a provisional prepaid bundle and returns the client
// secret to complete payment. The bundle activates on the payment webhook.
func (hb *HandlerBundle) PurchasePackage(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req models.PurchasePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	res, err := hb.Packages.Purchase(c.Request.Context(), actor, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (hb *HandlerBundle) ListPackages(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	packages, err := hb.Packages.List(c.Request.Context(), actor, page, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if packages == nil {
		packages = []models.PackagePurchase{}
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

// GetActivePackage returns the caller's usable package for a session type,
// or 404 when none exists.
func (hb *HandlerBundle) GetActivePackage(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	p, err := hb.Packages.GetActive(c.Request.Context(), actor,
		c.Query("therapistId"), c.Query("sessionTypeId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active package"})
		return
	}
	c.JSON(http.StatusOK, p)
}
