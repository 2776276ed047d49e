package api

import (
	"net/http"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name                 string `json:"name" binding:"required"`
	Email                string `json:"email" binding:"required"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation" binding:"omitempty,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) session(c *gin.Context, code int, message string, user *models.User) {
	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, code, true, message, sessionResponse{Token: token, User: user})
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.session(c, http.StatusCreated, "registered", user)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.svc.RecordLogin(c.Request.Context(), user.ID, c.ClientIP())
	s.session(c, http.StatusOK, "logged in", user)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.svc.Logout(c.Request.Context(), currentUserID(c)); err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "logged out", nil)
}

func (s *Server) registrationStatus(c *gin.Context) {
	open, err := s.svc.RegistrationOpen(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "registration status", gin.H{"enabled": open})
}

func (s *Server) me(c *gin.Context) {
	user, err := s.svc.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	APIResponse(c, http.StatusOK, true, "profile", user)
}
