package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "valutatrade/internal/errors"
	"valutatrade/internal/pagination"
	"valutatrade/internal/services"
)

// PortfolioHandler handles wallet and conversion requests.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService services.PortfolioServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// AddCurrencyRequest represents the wallet creation payload
type AddCurrencyRequest struct {
	CurrencyCode string `json:"currency_code" binding:"required,currency_code"`
}

// AmountRequest represents a deposit or withdrawal payload. The amount is
// a decimal string so precision is never lost in transit.
type AmountRequest struct {
	Amount string `json:"amount" binding:"required,decimal_amount"`
}

// ConversionRequest represents a buy or sell payload
type ConversionRequest struct {
	Amount       string `json:"amount" binding:"required,decimal_amount"`
	FromCurrency string `json:"from_currency" binding:"required,currency_code"`
	ToCurrency   string `json:"to_currency" binding:"required,currency_code"`
}

// AddCurrency creates a new zero-balance wallet
// @Summary     Add a currency wallet
// @Description Create a zero-balance wallet for a currency known to the exchange-rate table
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddCurrencyRequest true "Currency code"
// @Success     201 {object} models.Wallet "Created wallet"
// @Failure     400 {object} ErrorResponse "Unknown currency"
// @Failure     409 {object} ErrorResponse "Wallet already exists"
// @Router      /portfolio/wallets [post]
func (h *PortfolioHandler) AddCurrency(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	wallet, err := h.portfolioService.AddCurrency(userID, req.CurrencyCode)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"wallet": wallet})
}

// GetUserWallets lists the user's wallets
// @Summary     List wallets
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Wallet] "Wallets"
// @Router      /portfolio/wallets [get]
func (h *PortfolioHandler) GetUserWallets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.portfolioService.GetUserWallets(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetWallet returns a single wallet by currency code
// @Summary     Get wallet
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       code path string true "Currency code"
// @Success     200 {object} models.Wallet "Wallet"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /portfolio/wallets/{code} [get]
func (h *PortfolioHandler) GetWallet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.portfolioService.GetWallet(userID, c.Param("code"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// Deposit adds funds to a wallet
// @Summary     Deposit into a wallet
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       code path string true "Currency code"
// @Param       request body AmountRequest true "Amount"
// @Success     200 {object} models.Wallet "Updated wallet"
// @Failure     400 {object} ErrorResponse "Invalid amount"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /portfolio/wallets/{code}/deposit [post]
func (h *PortfolioHandler) Deposit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidAmount, err.Error()))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.portfolioService.Deposit(userID, c.Param("code"), amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// Withdraw removes funds from a wallet
// @Summary     Withdraw from a wallet
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       code path string true "Currency code"
// @Param       request body AmountRequest true "Amount"
// @Success     200 {object} models.Wallet "Updated wallet"
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient funds"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /portfolio/wallets/{code}/withdraw [post]
func (h *PortfolioHandler) Withdraw(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidAmount, err.Error()))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	wallet, err := h.portfolioService.Withdraw(userID, c.Param("code"), amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wallet": wallet})
}

// BuyCurrency converts value from one wallet into another
// @Summary     Buy currency
// @Description Withdraw from the source wallet and deposit the converted amount into the destination wallet
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ConversionRequest true "Conversion"
// @Success     200 {object} services.Conversion "Conversion result"
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient funds"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /portfolio/buy [post]
func (h *PortfolioHandler) BuyCurrency(c *gin.Context) {
	h.convert(c, h.portfolioService.BuyCurrency)
}

// SellCurrency converts value from one wallet into another with a
// sufficient-funds pre-check
// @Summary     Sell currency
// @Tags        portfolio
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ConversionRequest true "Conversion"
// @Success     200 {object} services.Conversion "Conversion result"
// @Failure     400 {object} ErrorResponse "Invalid amount or insufficient funds"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /portfolio/sell [post]
func (h *PortfolioHandler) SellCurrency(c *gin.Context) {
	h.convert(c, h.portfolioService.SellCurrency)
}

func (h *PortfolioHandler) convert(c *gin.Context, op func(uint, decimal.Decimal, string, string) (*services.Conversion, error)) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := op(userID, amount, req.FromCurrency, req.ToCurrency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversion": result})
}

// GetTotalValue returns the portfolio value in a base currency
// @Summary     Portfolio value
// @Description Sum of every wallet's value expressed in the base currency
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       base query string false "Base currency (default USD)"
// @Success     200 {object} map[string]string "Total value"
// @Failure     400 {object} ErrorResponse "Unknown base currency"
// @Router      /portfolio/value [get]
func (h *PortfolioHandler) GetTotalValue(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	base := strings.ToUpper(c.DefaultQuery("base", "USD"))

	total, err := h.portfolioService.GetTotalValue(userID, base)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"base_currency": base,
		"total_value":   total,
	})
}
