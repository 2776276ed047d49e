package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const unknownPlace = "Unknown"

// Location is a resolved place. Missing parts are "Unknown".
type Location struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

var UnknownLocation = Location{City: unknownPlace, Region: unknownPlace, Country: unknownPlace}

type ipAPIResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	City       string `json:"city"`
	RegionName string `json:"regionName"`
	Country    string `json:"country"`
}

// GeoLocator looks addresses up on an ip-api.com compatible endpoint.
type GeoLocator struct {
	httpClient *http.Client
	baseURL    string
}

func NewGeoLocator(baseURL string) *GeoLocator {
	return &GeoLocator{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (g *GeoLocator) Locate(ctx context.Context, ip string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+url.PathEscape(ip), nil)
	if err != nil {
		return UnknownLocation, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return UnknownLocation, fmt.Errorf("location request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnknownLocation, &apiError{
			StatusCode: resp.StatusCode,
			Message:    "bad response from location API",
		}
	}

	var data ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return UnknownLocation, fmt.Errorf("failed to parse location response: %w", err)
	}
	if data.Status != "success" {
		return UnknownLocation, fmt.Errorf("location lookup for %s failed: %s", ip, data.Message)
	}

	return Location{
		City:    orUnknown(data.City),
		Region:  orUnknown(data.RegionName),
		Country: orUnknown(data.Country),
	}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return unknownPlace
	}
	return s
}
