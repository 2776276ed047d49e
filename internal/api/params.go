package api

import (
	"fmt"
	"strconv"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/gin-gonic/gin"
)

func pathID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s", service.ErrInvalidInput, name)
	}
	return uint(id), nil
}

// optionalID reads a path or query id, returning zero when it is absent.
func optionalID(c *gin.Context, raw string) (uint, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", service.ErrInvalidInput, raw)
	}
	return uint(id), nil
}

func currency(raw string) (models.Currency, error) {
	c, ok := models.ParseCurrency(raw)
	if !ok {
		return "", fmt.Errorf("%w: unsupported currency %q", service.ErrInvalidInput, raw)
	}
	return c, nil
}

// listFilter builds a history filter from ?symbol= and ?status=.
func listFilter(c *gin.Context, userID uint) (service.ListFilter, error) {
	filter := service.ListFilter{UserID: userID, Status: c.Query("status")}
	if raw := c.Query("symbol"); raw != "" {
		symbol, err := currency(raw)
		if err != nil {
			return filter, err
		}
		filter.Symbol = symbol
	}
	return filter, nil
}
