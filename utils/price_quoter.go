package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Fi44er/tradewallet/internal/models"
	"github.com/shopspring/decimal"
)

// rateScale is the number of decimal places kept on a cross rate.
const rateScale = 12

type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type cachedPrice struct {
	price     decimal.Decimal
	expiresAt time.Time
}

// PriceService quotes USD prices from a Binance-compatible ticker API and
// keeps each price for ttl. USDT is pinned to 1.
type PriceService struct {
	httpClient *http.Client
	baseURL    string
	ttl        time.Duration
	logger     *Logger

	mu     sync.Mutex
	prices map[models.Currency]cachedPrice
}

func NewPriceService(baseURL string, ttl time.Duration, logger *Logger) *PriceService {
	return &PriceService{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		ttl:        ttl,
		logger:     logger,
		prices:     make(map[models.Currency]cachedPrice),
	}
}

// Rate returns how many units of to one unit of from buys.
func (s *PriceService) Rate(ctx context.Context, from, to models.Currency) (decimal.Decimal, error) {
	type priceResult struct {
		price decimal.Decimal
		err   error
	}
	fromChan := make(chan priceResult, 1)

	go func() {
		price, err := s.USDPrice(ctx, from)
		fromChan <- priceResult{price: price, err: err}
	}()

	toPrice, err := s.USDPrice(ctx, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get %s price: %w", to, err)
	}

	result := <-fromChan
	if result.err != nil {
		return decimal.Zero, fmt.Errorf("failed to get %s price: %w", from, result.err)
	}

	return CrossRate(result.price, toPrice)
}

// USDPrice returns the cached price of c in USDT, refreshing it when stale.
func (s *PriceService) USDPrice(ctx context.Context, c models.Currency) (decimal.Decimal, error) {
	if c == models.USDT {
		return decimal.NewFromInt(1), nil
	}

	s.mu.Lock()
	cached, ok := s.prices[c]
	s.mu.Unlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.price, nil
	}

	price, err := s.fetchTicker(ctx, strings.ToUpper(string(c))+"USDT")
	if err != nil {
		if ok {
			s.logger.Warnf("Price refresh for %s failed, serving stale value: %v", c, err)
			return cached.price, nil
		}
		return decimal.Zero, err
	}

	s.mu.Lock()
	s.prices[c] = cachedPrice{price: price, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	s.logger.Debugf("Price cache updated: %s = %s USDT", c, price)
	return price, nil
}

func (s *PriceService) fetchTicker(ctx context.Context, pair string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/ticker/price?symbol=%s", s.baseURL, pair)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, &apiError{
			StatusCode: resp.StatusCode,
			Message:    "bad response from price API",
		}
	}

	var data tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse price response: %w", err)
	}

	price, err := decimal.NewFromString(data.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price format for %s: %w", pair, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price for %s: %s", pair, price)
	}

	return price, nil
}

// StaticPrices is a fixed USD price table. Missing currencies fail to quote.
type StaticPrices map[models.Currency]decimal.Decimal

func (p StaticPrices) Rate(_ context.Context, from, to models.Currency) (decimal.Decimal, error) {
	fromPrice, ok := p.usd(from)
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for %s", from)
	}
	toPrice, ok := p.usd(to)
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for %s", to)
	}
	return CrossRate(fromPrice, toPrice)
}

func (p StaticPrices) usd(c models.Currency) (decimal.Decimal, bool) {
	if c == models.USDT {
		return decimal.NewFromInt(1), true
	}
	price, ok := p[c]
	return price, ok
}

func CrossRate(fromUSD, toUSD decimal.Decimal) (decimal.Decimal, error) {
	if !toUSD.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid quote price %s", toUSD)
	}
	return fromUSD.DivRound(toUSD, rateScale), nil
}
