package api

import (
	"errors"
	"net/http"

	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/gin-gonic/gin"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func APIResponse(c *gin.Context, code int, success bool, message string, data interface{}) {
	c.JSON(code, Response{
		Success: success,
		Message: message,
		Data:    data,
	})
}

func abortWith(c *gin.Context, code int, message, detail string) {
	c.AbortWithStatusJSON(code, Response{Success: false, Message: message, Error: detail})
}

var errorStatus = []struct {
	err  error
	code int
}{
	{service.ErrInsufficientFunds, http.StatusBadRequest},
	{service.ErrInvalidAmount, http.StatusBadRequest},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrUserBlocked, http.StatusForbidden},
	{service.ErrRegistrationClosed, http.StatusForbidden},
	{service.ErrAlreadyProcessed, http.StatusConflict},
	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrQuoteUnavailable, http.StatusServiceUnavailable},
}

// statusFor maps a service error to its HTTP status and public message.
func statusFor(err error) (int, string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.code, e.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal server error"
}

func (s *Server) fail(c *gin.Context, err error) {
	code, message := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.WithField("request_id", c.GetString(ctxRequestID)).Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		abortWith(c, code, message, "")
		return
	}
	abortWith(c, code, message, err.Error())
}

func badRequest(c *gin.Context, err error) {
	abortWith(c, http.StatusBadRequest, "invalid request", err.Error())
}
