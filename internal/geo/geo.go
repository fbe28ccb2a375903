package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// UnknownLocation результат по умолчанию: любая проблема с геолокацией
// деградирует к нему, наружу ошибки не отдаются
var UnknownLocation = Location{Country: "Unknown", City: "Unknown"}

// Location страна и город по IP
type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// apiResponse ответ ip-api.com совместимого сервиса
type apiResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	City    string `json:"city"`
	Message string `json:"message"`
}

// Resolver клиент внешнего сервиса геолокации с LRU-кэшем результатов
type Resolver struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	cache   *lru.Cache[string, Location]
	logger  *zap.Logger
}

func NewResolver(baseURL string, timeout time.Duration, cacheSize int, logger *zap.Logger) (*Resolver, error) {
	cache, err := lru.New[string, Location](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create geo cache: %w", err)
	}

	return &Resolver{
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
		logger:  logger,
	}, nil
}

// Resolve определяет страну и город по IP. Никогда не возвращает ошибку:
// таймаут, не-2xx, неуспешный статус ответа — всё деградирует к Unknown.
func (r *Resolver) Resolve(ctx context.Context, ipAddress string) Location {
	if !isResolvable(ipAddress) {
		return UnknownLocation
	}

	if loc, ok := r.cache.Get(ipAddress); ok {
		return loc
	}

	loc := r.lookup(ctx, ipAddress)
	if loc != UnknownLocation {
		r.cache.Add(ipAddress, loc)
	}
	return loc
}

func (r *Resolver) lookup(ctx context.Context, ipAddress string) Location {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/json/%s?fields=status,country,city,message", r.baseURL, ipAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		r.logger.Warn("Failed to build geo request", zap.String("ip", ipAddress), zap.Error(err))
		return UnknownLocation
	}
	req.Header.Set("User-Agent", "ClickLens-Analytics/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("Geo lookup failed", zap.String("ip", ipAddress), zap.Error(err))
		return UnknownLocation
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Warn("Geo service returned non-2xx", zap.String("ip", ipAddress), zap.Int("status", resp.StatusCode))
		return UnknownLocation
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		r.logger.Warn("Failed to decode geo response", zap.String("ip", ipAddress), zap.Error(err))
		return UnknownLocation
	}

	if data.Status != "success" {
		r.logger.Debug("Geo lookup unsuccessful",
			zap.String("ip", ipAddress),
			zap.String("message", data.Message),
		)
		return UnknownLocation
	}

	loc := Location{Country: data.Country, City: data.City}
	if loc.Country == "" {
		loc.Country = UnknownLocation.Country
	}
	if loc.City == "" {
		loc.City = UnknownLocation.City
	}
	return loc
}

// isResolvable отсекает адреса, по которым внешний сервис спрашивать
// бессмысленно: пустые, unknown, loopback, приватные и link-local диапазоны
func isResolvable(ipAddress string) bool {
	if ipAddress == "" || ipAddress == "unknown" {
		return false
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return false
	}

	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return false
	}

	return true
}
