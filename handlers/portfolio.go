package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-ledger/ledger"
	"portfolio-ledger/money"
)

// OrderInput is the buy/sell request body. Shares arrives as text from
// the form field; the ledger parses and validates it.
type OrderInput struct {
	Symbol string `json:"symbol" binding:"required"`
	Shares string `json:"shares" binding:"required"`
}

func (h *Handler) executeOrder(c *gin.Context, side ledger.Side) {
	userID := c.MustGet("user_id").(uint)
	var input OrderInput

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quantity, err := ledger.ParseQuantity(input.Shares)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ledger.ExecuteOrder(c.Request.Context(), userID, input.Symbol, side, quantity); err != nil {
		c.JSON(orderStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order executed"})
}

func (h *Handler) Buy(c *gin.Context) {
	h.executeOrder(c, ledger.SideBuy)
}

func (h *Handler) Sell(c *gin.Context) {
	h.executeOrder(c, ledger.SideSell)
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	view, err := h.ledger.GetPortfolioView(c.Request.Context(), userID)
	if err != nil {
		c.JSON(orderStatus(err), gin.H{"error": err.Error()})
		return
	}

	holdings := make([]gin.H, 0, len(view.Holdings))
	for _, hv := range view.Holdings {
		holdings = append(holdings, gin.H{
			"symbol": hv.Symbol,
			"name":   hv.Name,
			"shares": hv.Shares,
			"price":  money.USD(hv.PriceCents),
			"value":  money.USD(hv.ValueCents),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"holdings": holdings,
		"cash":     money.USD(view.CashCents),
		"total":    money.USD(view.TotalCents),
	})
}

func (h *Handler) GetHistory(c *gin.Context) {
	userID := c.MustGet("user_id").(uint)

	txs, err := h.ledger.GetHistory(c.Request.Context(), userID)
	if err != nil {
		c.JSON(orderStatus(err), gin.H{"error": err.Error()})
		return
	}

	history := make([]gin.H, 0, len(txs))
	for _, t := range txs {
		history = append(history, gin.H{
			"type":      t.Type,
			"symbol":    t.Symbol,
			"shares":    t.Shares,
			"price":     money.USD(t.PriceCents),
			"timestamp": t.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, history)
}
