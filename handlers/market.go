package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-ledger/money"
	"portfolio-ledger/quotes"
)

// GetQuote looks up a current price without trading. The cached quote
// source in front of the provider keeps repeated lookups cheap.
func (h *Handler) GetQuote(c *gin.Context) {
	symbol := c.Param("symbol")

	q, err := h.quotes.Lookup(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to fetch stock data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol": q.Symbol,
		"name":   q.Name,
		"price":  money.USD(q.PriceCents),
	})
}
