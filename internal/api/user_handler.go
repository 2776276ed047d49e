package api

import (
	"fmt"
	"net/http"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (s *Server) balances(c *gin.Context) {
	balance, err := s.svc.GetBalance(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "balances", balance)
}

func (s *Server) coins(c *gin.Context) {
	coins, err := s.svc.ListCoinTypes(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "coins", coins)
}

func (s *Server) adminMessages(c *gin.Context) {
	messages, err := s.svc.AdminMessages(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "admin messages", messages)
}

func (s *Server) websocket(c *gin.Context) {
	s.hub.Serve(c.Writer, c.Request, currentUserID(c), c.GetString(ctxRole) == models.RoleAdmin)
}

type tradeRequest struct {
	Symbol       string          `json:"symbol" binding:"required"`
	Direction    string          `json:"direction" binding:"required,oneof=up fall"`
	DeliveryTime int             `json:"delivery_time"`
	TradeAmount  decimal.Decimal `json:"trade_amount"`
	TradeProfit  decimal.Decimal `json:"trade_profit"`
}

func (s *Server) placeTrade(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	trade, balance, err := s.svc.PlaceTrade(c.Request.Context(), currentUserID(c), service.TradeInput{
		Symbol:       req.Symbol,
		Direction:    req.Direction,
		DeliveryTime: req.DeliveryTime,
		TradeAmount:  req.TradeAmount,
		TradeProfit:  req.TradeProfit,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusCreated, true, "trade settled", gin.H{"trade": trade, "balance": balance})
}

func (s *Server) tradeHistory(c *gin.Context) {
	trades, err := s.svc.TradeHistory(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "trade history", trades)
}

func (s *Server) lossStatus(c *gin.Context) {
	applied, err := s.svc.LossStatus(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "loss status", gin.H{"loss_applied": applied})
}

func (s *Server) investmentPlans(c *gin.Context) {
	APIResponse(c, http.StatusOK, true, "investment plans", service.Plans())
}

type investRequest struct {
	Plan   string          `json:"plan" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) invest(c *gin.Context) {
	var req investRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	investment, err := s.svc.Invest(c.Request.Context(), currentUserID(c), req.Plan, req.Amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusCreated, true, "investment created", investment)
}

func (s *Server) investments(c *gin.Context) {
	investments, err := s.svc.ListInvestments(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "investments", investments)
}

func (s *Server) swapQuote(c *gin.Context) {
	from, err := currency(c.Query("from"))
	if err != nil {
		s.fail(c, err)
		return
	}
	to, err := currency(c.Query("to"))
	if err != nil {
		s.fail(c, err)
		return
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		s.fail(c, fmt.Errorf("%w: amount must be a number", service.ErrInvalidAmount))
		return
	}

	quote, err := s.svc.Quote(c.Request.Context(), from, to, amount)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "swap quote", quote)
}

type swapRequest struct {
	FromCrypto string          `json:"from_crypto" binding:"required"`
	ToCrypto   string          `json:"to_crypto" binding:"required"`
	FromAmount decimal.Decimal `json:"from_amount"`
	ToAmount   decimal.Decimal `json:"to_amount"`
}

func (s *Server) swap(c *gin.Context) {
	var req swapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	from, err := currency(req.FromCrypto)
	if err != nil {
		s.fail(c, err)
		return
	}
	to, err := currency(req.ToCrypto)
	if err != nil {
		s.fail(c, err)
		return
	}

	result, err := s.svc.Swap(c.Request.Context(), currentUserID(c), service.SwapInput{
		From:       from,
		To:         to,
		FromAmount: req.FromAmount,
		ToAmount:   req.ToAmount,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "swap completed", result)
}

func (s *Server) submitDeposit(c *gin.Context) {
	userID := currentUserID(c)
	symbol, err := currency(c.PostForm("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	amount, err := decimal.NewFromString(c.PostForm("amount"))
	if err != nil {
		s.fail(c, fmt.Errorf("%w: amount must be a number", service.ErrInvalidAmount))
		return
	}
	if !amount.IsPositive() {
		s.fail(c, service.ErrInvalidAmount)
		return
	}

	slip, err := s.saveImage(c, "slip", "slips", fmt.Sprintf("%d_%s", userID, symbol), true)
	if err != nil {
		s.fail(c, err)
		return
	}

	deposit, err := s.svc.SubmitDeposit(c.Request.Context(), userID, service.DepositInput{
		Symbol:   symbol,
		Amount:   amount,
		SlipPath: slip,
	})
	if err != nil {
		s.discardUpload(slip)
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusCreated, true, "deposit submitted", deposit)
}

func (s *Server) depositHistory(c *gin.Context) {
	filter, err := listFilter(c, currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	deposits, err := s.svc.ListDeposits(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "deposit history", deposits)
}

func (s *Server) depositAddress(c *gin.Context) {
	symbol, err := currency(c.Param("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	info, err := s.svc.DepositAddress(c.Request.Context(), currentUserID(c), symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "deposit details", info)
}

type withdrawRequest struct {
	Amount            decimal.Decimal `json:"amount_withdraw"`
	CoinID            *uint           `json:"coin_id"`
	WalletAddress     string          `json:"crypto_wallet"`
	AccountHolderName string          `json:"account_holder_name"`
	BankName          string          `json:"bank_name"`
	BankAccountNumber string          `json:"bank_account_number"`
}

func (s *Server) requestWithdrawal(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	withdraw, err := s.svc.RequestWithdrawal(c.Request.Context(), currentUserID(c), service.WithdrawInput{
		Amount:            req.Amount,
		CoinID:            req.CoinID,
		WalletAddress:     req.WalletAddress,
		AccountHolderName: req.AccountHolderName,
		BankName:          req.BankName,
		BankAccountNumber: req.BankAccountNumber,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusCreated, true, "withdrawal requested", withdraw)
}

func (s *Server) withdrawHistory(c *gin.Context) {
	filter, err := listFilter(c, currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	withdraws, err := s.svc.ListWithdrawals(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "withdrawal history", withdraws)
}
