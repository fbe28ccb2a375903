package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/falkeetsingh/ClickLens/internal/geo"
	"github.com/falkeetsingh/ClickLens/internal/models"
	"github.com/falkeetsingh/ClickLens/internal/repository"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu     sync.RWMutex
	links  map[string]*models.Link
	nextID int64
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links:  make(map[string]*models.Link),
		nextID: 1,
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	link.ID = m.nextID
	m.nextID++
	m.links[link.ShortCode] = link
	return nil
}

func (m *MockLinkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[code]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockLinkRepository) GetLinkIDByShortCode(ctx context.Context, code string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[code]
	if !exists {
		return 0, repository.ErrLinkNotFound
	}
	return link.ID, nil
}

func (m *MockLinkRepository) ListByUser(ctx context.Context, userID string) ([]models.LinkWithAnalytics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []models.LinkWithAnalytics{}
	for _, link := range m.links {
		if link.UserID != userID {
			continue
		}
		result = append(result, models.LinkWithAnalytics{
			ID:          link.ID,
			OriginalURL: link.OriginalURL,
			ShortCode:   link.ShortCode,
			CreatedAt:   link.CreatedAt,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockLinkRepository) DeleteByID(ctx context.Context, id int64, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for code, link := range m.links {
		if link.ID == id {
			if link.UserID != userID {
				return "", repository.ErrNotOwner
			}
			delete(m.links, code)
			return code, nil
		}
	}
	return "", repository.ErrLinkNotFound
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.Link)
	m.nextID = 1
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Link
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[key]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = link
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.Link)
}

// MockClickRepository implements repository.ClickRepository for testing
type MockClickRepository struct {
	mu     sync.RWMutex
	clicks []*models.Click
	// FailInserts заставляет RecordClick возвращать ошибку
	FailInserts bool
	FailErr     error
}

func NewMockClickRepository() *MockClickRepository {
	return &MockClickRepository{}
}

func (m *MockClickRepository) RecordClick(ctx context.Context, click *models.Click) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailInserts {
		if m.FailErr != nil {
			return m.FailErr
		}
		return errors.New("insert rejected")
	}
	m.clicks = append(m.clicks, click)
	return nil
}

func (m *MockClickRepository) GetStats(ctx context.Context, shortCode string) (*models.ClickStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var totalClicks int64
	uniqueIPs := make(map[string]bool)

	for _, click := range m.clicks {
		if click.ShortCode == shortCode {
			totalClicks++
			uniqueIPs[click.IPAddress] = true
		}
	}

	return &models.ClickStats{
		ShortCode:    shortCode,
		TotalClicks:  totalClicks,
		UniqueClicks: int64(len(uniqueIPs)),
	}, nil
}

func (m *MockClickRepository) GetDailyStats(ctx context.Context, shortCode string, days int) ([]models.DailyClickStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().AddDate(0, 0, -days)
	byDate := map[string]int64{}
	for _, click := range m.clicks {
		if click.ShortCode != shortCode || click.ClickedAt.Before(cutoff) {
			continue
		}
		byDate[click.ClickedAt.Format("2006-01-02")]++
	}

	stats := []models.DailyClickStats{}
	for date, clicks := range byDate {
		stats = append(stats, models.DailyClickStats{Date: date, Clicks: clicks})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Date > stats[j].Date
	})
	return stats, nil
}

func (m *MockClickRepository) GetBreakdown(ctx context.Context, shortCode string) (*models.ClickBreakdown, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	breakdown := &models.ClickBreakdown{ShortCode: shortCode}
	devices := map[string]int64{}
	browsers := map[string]int64{}
	systems := map[string]int64{}
	countries := map[string]int64{}

	for _, click := range m.clicks {
		if click.ShortCode != shortCode {
			continue
		}
		devices[click.DeviceType]++
		browsers[click.Browser]++
		systems[click.OS]++
		countries[click.Country]++
	}

	breakdown.Devices = toEntries(devices)
	breakdown.Browsers = toEntries(browsers)
	breakdown.Systems = toEntries(systems)
	breakdown.Countries = toEntries(countries)
	return breakdown, nil
}

func toEntries(counts map[string]int64) []models.BreakdownEntry {
	entries := []models.BreakdownEntry{}
	for value, clicks := range counts {
		entries = append(entries, models.BreakdownEntry{Value: value, Clicks: clicks})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Clicks > entries[j].Clicks
	})
	return entries
}

// Clicks возвращает копию записанных кликов
func (m *MockClickRepository) Clicks() []*models.Click {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Click, len(m.clicks))
	copy(out, m.clicks)
	return out
}

func (m *MockClickRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clicks = nil
	m.FailInserts = false
}

// MockGeoResolver implements service.GeoResolver for testing
type MockGeoResolver struct {
	mu       sync.Mutex
	Location geo.Location
	Calls    []string
}

func NewMockGeoResolver() *MockGeoResolver {
	return &MockGeoResolver{Location: geo.UnknownLocation}
}

func (m *MockGeoResolver) Resolve(ctx context.Context, ipAddress string) geo.Location {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, ipAddress)
	return m.Location
}
