package api

import (
	"net/http"

	"github.com/Fi44er/tradewallet/config"
	"github.com/Fi44er/tradewallet/internal/realtime"
	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/Fi44er/tradewallet/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type Server struct {
	svc     *service.Service
	tokens  *utils.TokenIssuer
	hub     *realtime.Hub
	cfg     *config.Config
	logger  *utils.Logger
	limiter *IPRateLimiter
}

func NewServer(svc *service.Service, tokens *utils.TokenIssuer, hub *realtime.Hub, cfg *config.Config, logger *utils.Logger) *Server {
	return &Server{
		svc:     svc,
		tokens:  tokens,
		hub:     hub,
		cfg:     cfg,
		logger:  logger,
		limiter: NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(s.RequestLogger())
	r.Use(CORSMiddleware())
	r.MaxMultipartMemory = s.cfg.MaxUploadBytes

	r.GET("/ping", func(c *gin.Context) {
		APIResponse(c, http.StatusOK, true, "pong", nil)
	})
	r.Static("/storage", s.cfg.UploadDir)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		auth.Use(RateLimitMiddleware(s.limiter))
		{
			auth.POST("/register", s.register)
			auth.POST("/login", s.login)
			auth.POST("/logout", s.AuthRequired(), s.logout)
		}
		api.GET("/settings/registration-status", s.registrationStatus)

		user := api.Group("/")
		user.Use(s.AuthRequired())
		{
			user.GET("/me", s.me)
			user.GET("/balances", s.balances)
			user.GET("/coins", s.coins)
			user.GET("/admin-messages", s.adminMessages)
			user.GET("/ws", s.websocket)

			user.POST("/trade/store", s.placeTrade)
			user.GET("/trade/history", s.tradeHistory)
			user.GET("/trade/loss-status", s.lossStatus)

			user.GET("/investment/plans", s.investmentPlans)
			user.POST("/investment/store", s.invest)
			user.GET("/investment", s.investments)

			user.GET("/swap/quote", s.swapQuote)
			user.POST("/swap", s.swap)

			user.POST("/deposit", s.submitDeposit)
			user.GET("/deposit/history", s.depositHistory)
			user.GET("/deposit/:symbol", s.depositAddress)

			user.POST("/withdraw/store", s.requestWithdrawal)
			user.GET("/withdraw/history", s.withdrawHistory)

			user.POST("/ip-location", s.storeIPLocation)
		}

		admin := api.Group("/admin")
		admin.Use(s.AuthRequired(), AdminOnly())
		{
			admin.GET("/users", s.adminUsers)
			admin.POST("/users/block/:id", s.adminToggleBlock)
			admin.POST("/users/approve/:id", s.adminApproveUser)
			admin.POST("/users/delete/:id", s.adminDeleteUser)
			admin.GET("/deleted-users", s.adminDeletedUsers)
			admin.POST("/deleted-users/restore/:id", s.adminRestoreUser)
			admin.GET("/online-users", s.adminOnlineUsers)

			admin.GET("/trade-loss-data", s.adminTradeLossData)
			admin.POST("/trade-loss/update-loss/:userId", s.adminUpdateLoss)
			admin.GET("/trade-history", s.adminTradeHistory)
			admin.GET("/trade-history/:userId", s.adminTradeHistory)
			admin.GET("/investment-history", s.adminInvestmentHistory)
			admin.GET("/investment-history/:userId", s.adminInvestmentHistory)

			admin.GET("/update-wallet", s.adminDeposits)
			admin.POST("/update-wallet/:walletId", s.adminReviewDeposit)
			admin.POST("/update-wallet/balance/:userId", s.adminAdjustBalance)

			admin.GET("/withdrawals", s.adminWithdrawals)
			admin.POST("/withdrawals/approve/:id", s.adminApproveWithdrawal)
			admin.POST("/withdrawals/reject/:id", s.adminRejectWithdrawal)
			admin.POST("/withdrawals/update/:id", s.adminUpdateWithdrawal)

			admin.POST("/deposit-details", s.adminDepositDetails)
			admin.POST("/settings/registration-status", s.adminSetRegistration)
			admin.POST("/admin-messages", s.adminSetMessages)
			admin.GET("/user-ip-locations", s.adminIPLocations)

			admin.GET("/security/status", s.adminSecurityStatus)
			admin.POST("/security/setup", s.adminSetupSecurity)
			admin.POST("/security/verify", s.adminVerifySecurity)
			admin.POST("/security/recover", s.adminRecoverSecurity)
		}
	}

	return r
}
