package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"valutatrade/internal/rates"
)

// RatesHandler exposes the exchange-rate table.
type RatesHandler struct {
	table rates.Table
}

// NewRatesHandler creates a new RatesHandler
func NewRatesHandler(table rates.Table) *RatesHandler {
	return &RatesHandler{table: table}
}

// GetRates returns the full exchange-rate table
// @Summary     Exchange rates
// @Description The static rate table used for valuations and conversions, keyed by currency code
// @Tags        rates
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]string "Rates"
// @Router      /rates [get]
func (h *RatesHandler) GetRates(c *gin.Context) {
	table := make(map[string]decimal.Decimal, len(h.table.Codes()))
	for _, code := range h.table.Codes() {
		rate, _ := h.table.Rate(code)
		table[code] = rate
	}
	c.JSON(http.StatusOK, gin.H{"rates": table})
}
