package service

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/Fi44er/tradewallet/utils"
)

// Locator resolves an IP address to a place.
type Locator interface {
	Locate(ctx context.Context, ip string) (utils.Location, error)
}

// SetLocator enables location lookups for sign-ins and for stored locations
// submitted without a place.
func (s *Service) SetLocator(locator Locator) {
	s.locator = locator
}

type IPLocationInput struct {
	IPAddress string
	City      string
	Region    string
	Country   string
}

// StoreIPLocation records a location for the user. When the place is left
// empty it is looked up from the address.
func (s *Service) StoreIPLocation(ctx context.Context, userID uint, in IPLocationInput) (*models.UserIPLocation, error) {
	ip := strings.TrimSpace(in.IPAddress)
	if net.ParseIP(ip) == nil {
		return nil, fmt.Errorf("%w: invalid ip address", ErrInvalidInput)
	}
	place := utils.Location{
		City:    strings.TrimSpace(in.City),
		Region:  strings.TrimSpace(in.Region),
		Country: strings.TrimSpace(in.Country),
	}
	if place.City == "" && place.Region == "" && place.Country == "" {
		place = s.locate(ctx, ip)
	}

	location := &models.UserIPLocation{
		UserID:    userID,
		IPAddress: ip,
		City:      place.City,
		Region:    place.Region,
		Country:   place.Country,
	}
	if err := s.repo.CreateIPLocation(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to save ip location: %w", err)
	}

	s.logger.Infof("Location saved for user %d: %s (%s, %s, %s)", userID, ip, place.City, place.Region, place.Country)
	return location, nil
}

// RecordLogin stores where a sign-in came from. Failures are logged and do
// not affect the login.
func (s *Service) RecordLogin(ctx context.Context, userID uint, ip string) {
	if _, err := s.StoreIPLocation(ctx, userID, IPLocationInput{IPAddress: ip}); err != nil {
		s.logger.Warnf("Failed to record login location for user %d: %v", userID, err)
	}
}

func (s *Service) ListIPLocations(ctx context.Context, userID uint) ([]models.UserIPLocation, error) {
	return s.repo.ListIPLocations(ctx, userID)
}

func (s *Service) locate(ctx context.Context, ip string) utils.Location {
	if s.locator == nil {
		return utils.UnknownLocation
	}
	place, err := s.locator.Locate(ctx, ip)
	if err != nil {
		s.logger.Warnf("Failed to locate %s: %v", ip, err)
		return utils.UnknownLocation
	}
	return place
}
