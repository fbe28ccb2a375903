package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/falkeetsingh/ClickLens/internal/geo"
	"github.com/falkeetsingh/ClickLens/internal/models"
	"github.com/falkeetsingh/ClickLens/internal/service"
	"github.com/falkeetsingh/ClickLens/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupProcessor создаёт процессор кликов с моковыми зависимостями
func setupProcessor(t *testing.T) (service.ClickProcessor, *mocks.MockClickRepository, *mocks.MockLinkRepository, *mocks.MockGeoResolver) {
	clickRepo := mocks.NewMockClickRepository()
	linkRepo := mocks.NewMockLinkRepository()
	geoResolver := mocks.NewMockGeoResolver()
	logger := zap.NewNop()

	processor := service.NewClickProcessor(clickRepo, linkRepo, geoResolver, logger)
	processor.Start()
	t.Cleanup(processor.Stop)

	return processor, clickRepo, linkRepo, geoResolver
}

// TestClickProcessor_EnrichesAndPersists проверяет полный путь обогащения:
// user-agent классифицируется, гео подставляется, клик записывается
func TestClickProcessor_EnrichesAndPersists(t *testing.T) {
	processor, clickRepo, _, geoResolver := setupProcessor(t)
	geoResolver.Location = geo.Location{Country: "Germany", City: "Berlin"}

	event := &models.ClickEvent{
		LinkID:    42,
		ShortCode: "abc12345",
		IPAddress: "203.0.113.10",
		Referrer:  "https://news.example.com/",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}

	err := processor.RecordClick(context.Background(), event)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(clickRepo.Clicks()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	click := clickRepo.Clicks()[0]
	assert.Equal(t, int64(42), click.LinkID)
	assert.Equal(t, "203.0.113.10", click.IPAddress)
	assert.Equal(t, "https://news.example.com/", click.Referrer)
	assert.Equal(t, "Germany", click.Country)
	assert.Equal(t, "Berlin", click.City)
	assert.Equal(t, "Desktop", click.DeviceType)
	assert.Equal(t, "Chrome", click.Browser)
	assert.Equal(t, "Windows", click.OS)
	assert.False(t, click.ClickedAt.IsZero())
}

// TestClickProcessor_LooksUpLinkID проверяет fallback на поиск ID по коду
func TestClickProcessor_LooksUpLinkID(t *testing.T) {
	processor, clickRepo, linkRepo, _ := setupProcessor(t)

	link := &models.Link{ShortCode: "known123", OriginalURL: "https://example.com", CreatedAt: time.Now()}
	require.NoError(t, linkRepo.Create(context.Background(), link))

	event := &models.ClickEvent{
		ShortCode: "known123",
		IPAddress: "unknown",
	}

	require.NoError(t, processor.RecordClick(context.Background(), event))

	require.Eventually(t, func() bool {
		return len(clickRepo.Clicks()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, link.ID, clickRepo.Clicks()[0].LinkID)
}

// TestClickProcessor_UnknownShortCode проверяет, что событие без валидной
// ссылки молча отбрасывается
func TestClickProcessor_UnknownShortCode(t *testing.T) {
	processor, clickRepo, _, _ := setupProcessor(t)

	event := &models.ClickEvent{ShortCode: "nonexistent"}
	require.NoError(t, processor.RecordClick(context.Background(), event))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, clickRepo.Clicks())
}

// TestClickProcessor_PersistenceFailureSwallowed проверяет, что ошибка
// записи не выходит за пределы воркера
func TestClickProcessor_PersistenceFailureSwallowed(t *testing.T) {
	processor, clickRepo, _, _ := setupProcessor(t)
	clickRepo.FailInserts = true

	event := &models.ClickEvent{
		LinkID:    7,
		ShortCode: "abc12345",
		IPAddress: "203.0.113.10",
	}

	// RecordClick не возвращает ошибку: она останется внутри worker pool
	err := processor.RecordClick(context.Background(), event)
	assert.NoError(t, err)

	// Даём воркеру исчерпать попытки записи
	time.Sleep(500 * time.Millisecond)
	assert.Empty(t, clickRepo.Clicks())
}

// TestClickProcessor_GeoFailureDegrades проверяет Unknown при недоступной геолокации
func TestClickProcessor_GeoFailureDegrades(t *testing.T) {
	processor, clickRepo, _, geoResolver := setupProcessor(t)
	geoResolver.Location = geo.UnknownLocation

	event := &models.ClickEvent{
		LinkID:    1,
		ShortCode: "abc12345",
		IPAddress: "203.0.113.10",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
	}

	require.NoError(t, processor.RecordClick(context.Background(), event))

	require.Eventually(t, func() bool {
		return len(clickRepo.Clicks()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	click := clickRepo.Clicks()[0]
	assert.Equal(t, "Unknown", click.Country)
	assert.Equal(t, "Unknown", click.City)
	// User-agent всё равно классифицирован
	assert.Equal(t, "Mobile", click.DeviceType)
	assert.Equal(t, "Safari", click.Browser)
	assert.Equal(t, "iOS", click.OS)
}

// TestClickProcessor_StopDrainsBuffer проверяет, что Stop дорабатывает
// события, оставшиеся в буфере канала, прежде чем вернуться
func TestClickProcessor_StopDrainsBuffer(t *testing.T) {
	processor, clickRepo, _, _ := setupProcessor(t)

	const total = 50
	for i := 0; i < total; i++ {
		event := &models.ClickEvent{
			LinkID:    1,
			ShortCode: "abc12345",
			IPAddress: "unknown",
		}
		require.NoError(t, processor.RecordClick(context.Background(), event))
	}

	processor.Stop()

	assert.Len(t, clickRepo.Clicks(), total)
}

// TestClickProcessor_RecordAfterStop проверяет, что событие после остановки
// молча теряется, без паники и без ошибки наружу
func TestClickProcessor_RecordAfterStop(t *testing.T) {
	processor, clickRepo, _, _ := setupProcessor(t)
	processor.Stop()

	event := &models.ClickEvent{LinkID: 1, ShortCode: "abc12345"}
	assert.NoError(t, processor.RecordClick(context.Background(), event))
	assert.Empty(t, clickRepo.Clicks())
}

// TestClickProcessor_GetDailyStats проверяет дневную агрегацию кликов
func TestClickProcessor_GetDailyStats(t *testing.T) {
	processor, _, _, _ := setupProcessor(t)

	for i := 0; i < 3; i++ {
		event := &models.ClickEvent{LinkID: 1, ShortCode: "abc12345", IPAddress: "unknown"}
		require.NoError(t, processor.RecordClick(context.Background(), event))
	}

	require.Eventually(t, func() bool {
		daily, err := processor.GetDailyStats(context.Background(), "abc12345", 7)
		return err == nil && len(daily) == 1 && daily[0].Clicks == 3
	}, 2*time.Second, 10*time.Millisecond)

	daily, err := processor.GetDailyStats(context.Background(), "abc12345", 7)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, time.Now().Format("2006-01-02"), daily[0].Date)
}

// TestClickProcessor_GetChannelStats проверяет данные очереди для health-эндпоинта
func TestClickProcessor_GetChannelStats(t *testing.T) {
	processor, _, _, _ := setupProcessor(t)

	stats := processor.GetChannelStats()
	assert.Equal(t, 3, stats.WorkerCount)
	assert.Equal(t, 1000, stats.BufferSize)
	assert.GreaterOrEqual(t, stats.BufferUsed, 0)
}

// TestClickProcessor_GetStats проверяет подсчёт общих и уникальных кликов
func TestClickProcessor_GetStats(t *testing.T) {
	processor, _, _, _ := setupProcessor(t)

	events := []*models.ClickEvent{
		{LinkID: 1, ShortCode: "abc12345", IPAddress: "203.0.113.1"},
		{LinkID: 1, ShortCode: "abc12345", IPAddress: "203.0.113.1"},
		{LinkID: 1, ShortCode: "abc12345", IPAddress: "203.0.113.2"},
	}
	for _, e := range events {
		require.NoError(t, processor.RecordClick(context.Background(), e))
	}

	require.Eventually(t, func() bool {
		stats, err := processor.GetStats(context.Background(), "abc12345")
		return err == nil && stats.TotalClicks == 3
	}, 2*time.Second, 10*time.Millisecond)

	stats, err := processor.GetStats(context.Background(), "abc12345")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalClicks)
	assert.Equal(t, int64(2), stats.UniqueClicks)
}
