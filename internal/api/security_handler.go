package api

import (
	"net/http"

	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/gin-gonic/gin"
)

type ipLocationRequest struct {
	IPAddress string `json:"ip_address" binding:"required,ip"`
	City      string `json:"city"`
	Region    string `json:"region"`
	Country   string `json:"country"`
}

func (s *Server) storeIPLocation(c *gin.Context) {
	var req ipLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	location, err := s.svc.StoreIPLocation(c.Request.Context(), currentUserID(c), service.IPLocationInput{
		IPAddress: req.IPAddress,
		City:      req.City,
		Region:    req.Region,
		Country:   req.Country,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusCreated, true, "location saved", location)
}

func (s *Server) adminIPLocations(c *gin.Context) {
	userID, err := optionalID(c, c.Query("user_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	locations, err := s.svc.ListIPLocations(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "user ip locations", locations)
}

type securitySetupRequest struct {
	Answer1              string `json:"answer1" binding:"required,max=255"`
	Answer2              string `json:"answer2" binding:"required,max=255"`
	Answer3              string `json:"answer3" binding:"required,max=255"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required,eqfield=Password"`
}

type securityVerifyRequest struct {
	Password string `json:"password" binding:"required"`
}

type securityRecoverRequest struct {
	QuestionIndex           int    `json:"questionIndex" binding:"required,oneof=1 2 3"`
	Answer                  string `json:"answer" binding:"required,max=255"`
	NewPassword             string `json:"new_password" binding:"required"`
	NewPasswordConfirmation string `json:"new_password_confirmation" binding:"required,eqfield=NewPassword"`
}

func (s *Server) adminSecurityStatus(c *gin.Context) {
	configured, err := s.svc.SecurityConfigured(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "security status", gin.H{
		"hasSecurity": configured,
		"questions":   service.SecurityQuestions,
	})
}

func (s *Server) adminSetupSecurity(c *gin.Context) {
	var req securitySetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	answers := [3]string{req.Answer1, req.Answer2, req.Answer3}
	if err := s.svc.SetupSecurity(c.Request.Context(), currentUserID(c), req.Password, answers); err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusCreated, true, "security setup successful", nil)
}

func (s *Server) adminVerifySecurity(c *gin.Context) {
	var req securityVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.VerifySecurityPassword(c.Request.Context(), currentUserID(c), req.Password); err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "password verified", nil)
}

func (s *Server) adminRecoverSecurity(c *gin.Context) {
	var req securityRecoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := s.svc.RecoverSecurityPassword(c.Request.Context(), currentUserID(c), req.QuestionIndex, req.Answer, req.NewPassword)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "password updated", nil)
}
