package api

import (
	"net/http"

	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func (s *Server) adminUsers(c *gin.Context) {
	users, err := s.svc.ListUsers(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "users", users)
}

func (s *Server) adminToggleBlock(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	user, err := s.svc.ToggleBlock(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	message := "user unblocked"
	if user.IsBlocked {
		message = "user blocked"
	}
	APIResponse(c, http.StatusOK, true, message, user)
}

func (s *Server) adminApproveUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	user, err := s.svc.ApproveUser(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "user approved", user)
}

func (s *Server) adminDeleteUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.svc.DeleteUser(c.Request.Context(), currentUserID(c), id); err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "user deleted", nil)
}

func (s *Server) adminDeletedUsers(c *gin.Context) {
	archived, err := s.svc.ListDeletedUsers(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "deleted users", archived)
}

func (s *Server) adminRestoreUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	user, err := s.svc.RestoreUser(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "user restored", user)
}

func (s *Server) adminOnlineUsers(c *gin.Context) {
	users, err := s.svc.OnlineUsers(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "online users", users)
}

func (s *Server) adminTradeLossData(c *gin.Context) {
	users, err := s.svc.TradeLossUsers(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "trade loss data", users)
}

type lossRequest struct {
	LossApplied *bool `json:"loss_applied" binding:"required"`
}

func (s *Server) adminUpdateLoss(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		s.fail(c, err)
		return
	}
	var req lossRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.svc.SetLossApplied(c.Request.Context(), userID, *req.LossApplied)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "loss flag updated", user)
}

func (s *Server) adminTradeHistory(c *gin.Context) {
	userID, err := optionalID(c, c.Param("userId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	trades, err := s.svc.TradeHistory(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "trade history", trades)
}

func (s *Server) adminInvestmentHistory(c *gin.Context) {
	userID, err := optionalID(c, c.Param("userId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	investments, err := s.svc.InvestmentHistory(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "investment history", investments)
}

func (s *Server) adminDeposits(c *gin.Context) {
	userID, err := optionalID(c, c.Query("user_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	filter, err := listFilter(c, userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	deposits, err := s.svc.ListDeposits(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "deposits", deposits)
}

type reviewRequest struct {
	Action string `json:"action" binding:"required,oneof=approve reject"`
}

func (s *Server) adminReviewDeposit(c *gin.Context) {
	walletID, err := pathID(c, "walletId")
	if err != nil {
		s.fail(c, err)
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	deposit, err := s.svc.ReviewDeposit(c.Request.Context(), walletID, req.Action)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "deposit "+deposit.Status, deposit)
}

type adjustRequest struct {
	Currency string          `json:"currency" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Action   string          `json:"action" binding:"required,oneof=add subtract"`
}

func (s *Server) adminAdjustBalance(c *gin.Context) {
	userID, err := pathID(c, "userId")
	if err != nil {
		s.fail(c, err)
		return
	}
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cur, err := currency(req.Currency)
	if err != nil {
		s.fail(c, err)
		return
	}

	balance, err := s.svc.AdjustBalance(c.Request.Context(), userID, cur, req.Amount, req.Action)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "balance updated", balance)
}

func (s *Server) adminWithdrawals(c *gin.Context) {
	userID, err := optionalID(c, c.Query("user_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	filter, err := listFilter(c, userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	withdraws, err := s.svc.ListWithdrawals(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "withdrawals", withdraws)
}

func (s *Server) adminApproveWithdrawal(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	withdraw, err := s.svc.ApproveWithdrawal(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "withdrawal approved", withdraw)
}

func (s *Server) adminRejectWithdrawal(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	withdraw, err := s.svc.RejectWithdrawal(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "withdrawal rejected", withdraw)
}

func (s *Server) adminUpdateWithdrawal(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		s.fail(c, err)
		return
	}
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	withdraw, err := s.svc.UpdateWithdrawal(c.Request.Context(), id, service.WithdrawUpdate{
		Amount:            req.Amount,
		WalletAddress:     req.WalletAddress,
		AccountHolderName: req.AccountHolderName,
		BankName:          req.BankName,
		BankAccountNumber: req.BankAccountNumber,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "withdrawal updated", withdraw)
}

func (s *Server) adminDepositDetails(c *gin.Context) {
	symbol, err := currency(c.PostForm("symbol"))
	if err != nil {
		s.fail(c, err)
		return
	}
	qr, err := s.saveImage(c, "qr_code", "qr_codes", string(symbol), false)
	if err != nil {
		s.fail(c, err)
		return
	}

	detail, err := s.svc.SetDepositDetail(c.Request.Context(), symbol, c.PostForm("address"), qr)
	if err != nil {
		s.discardUpload(qr)
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "deposit details updated", detail)
}

type registrationRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (s *Server) adminSetRegistration(c *gin.Context) {
	var req registrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.SetRegistrationOpen(c.Request.Context(), *req.Enabled); err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "registration status updated", gin.H{"enabled": *req.Enabled})
}

type messagesRequest struct {
	Messages []string `json:"messages"`
}

func (s *Server) adminSetMessages(c *gin.Context) {
	var req messagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.SetAdminMessages(c.Request.Context(), req.Messages); err != nil {
		s.fail(c, err)
		return
	}
	messages, err := s.svc.AdminMessages(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "admin messages updated", messages)
}
