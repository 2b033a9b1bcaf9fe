package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pmb-docgen/internal/convert"
	"pmb-docgen/internal/ledger"
)

// CurrentPolicyNumber handles GET /api/current-policy-number.
func (h *Handler) CurrentPolicyNumber(c *gin.Context) {
	current, err := h.ledgers.Current(ledger.Main)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read policy counter"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentPolicyNumber": current})
}

// ResetPolicyNumber handles POST /api/reset-policy-number/:newNumber.
func (h *Handler) ResetPolicyNumber(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("newNumber"))
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "newNumber must be a positive integer"})
		return
	}
	if err := h.ledgers.Reset(ledger.Main, n); err != nil {
		h.log.Error("policy counter reset failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset policy counter"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Policy number reset", "nextPolicyNumber": n})
}

// Health handles GET /api/health: template availability per directory plus
// the conversion backend state.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"templates":            h.resolver.HealthReport(),
		"conversionConfigured": h.converter.Remote().Configured(),
	})
}

// Status handles GET /api/status: queue occupancy.
func (h *Handler) Status(c *gin.Context) {
	active, waiting, ceiling := h.governor.Stats()
	c.JSON(http.StatusOK, gin.H{
		"active":  active,
		"queued":  waiting,
		"ceiling": ceiling,
	})
}

// GetConversionConfig handles GET /api/conversion/config.
func (h *Handler) GetConversionConfig(c *gin.Context) {
	creds, err := convert.LoadCredentials(h.credentialsFile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read conversion config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"configured": creds.PublicKey != "",
		"publicKey":  creds.PublicKey,
	})
}

// SetConversionConfig handles POST /api/conversion/config.
func (h *Handler) SetConversionConfig(c *gin.Context) {
	var creds convert.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil || creds.PublicKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "publicKey is required"})
		return
	}
	if err := convert.SaveCredentials(h.credentialsFile, creds); err != nil {
		h.log.Error("saving conversion credentials failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save conversion config"})
		return
	}
	h.converter.Remote().SetPublicKey(creds.PublicKey)
	c.JSON(http.StatusOK, gin.H{"message": "Conversion credentials updated"})
}

// ConversionCredits handles GET /api/conversion/credits.
func (h *Handler) ConversionCredits(c *gin.Context) {
	if !h.converter.Remote().Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Conversion provider not configured"})
		return
	}
	credits, err := h.converter.Remote().Credits(c.Request.Context())
	if err != nil {
		h.log.Error("credit lookup failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch remaining credits"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"remainingCredits": credits})
}
