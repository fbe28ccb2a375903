package service

import (
	"context"
	"sync"
	"time"

	"github.com/falkeetsingh/ClickLens/internal/analytics"
	"github.com/falkeetsingh/ClickLens/internal/geo"
	"github.com/falkeetsingh/ClickLens/internal/models"
	"github.com/falkeetsingh/ClickLens/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	maxRetries           = 3    // Максимальное количество попыток записи
)

// GeoResolver определяет страну и город по IP, никогда не возвращает ошибку
type GeoResolver interface {
	Resolve(ctx context.Context, ipAddress string) geo.Location
}

// ClickProcessor интерфейс для асинхронного отслеживания кликов.
// RecordClick неблокирующий: задержки и ошибки обогащения или записи
// никогда не доходят до обработчика редиректа.
type ClickProcessor interface {
	Start()
	Stop()
	RecordClick(ctx context.Context, event *models.ClickEvent) error
	GetStats(ctx context.Context, shortCode string) (*models.ClickStats, error)
	GetDailyStats(ctx context.Context, shortCode string, days int) ([]models.DailyClickStats, error)
	GetBreakdown(ctx context.Context, shortCode string) (*models.ClickBreakdown, error)
	GetChannelStats() ChannelStats
}

// clickProcessor реализация процессора кликов с использованием Worker Pool
type clickProcessor struct {
	clickRepo    repository.ClickRepository
	linkRepo     repository.LinkRepository
	geoResolver  GeoResolver
	logger       *zap.Logger
	clickChannel chan *models.ClickEvent // Канал для событий кликов
	workerCount  int                     // Количество воркеров
	wg           sync.WaitGroup          // WaitGroup для ожидания завершения воркеров
	mu           sync.RWMutex            // Защищает stopped и закрытие канала
	stopped      bool
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewClickProcessor создаёт новый экземпляр процессора кликов
func NewClickProcessor(
	clickRepo repository.ClickRepository,
	linkRepo repository.LinkRepository,
	geoResolver GeoResolver,
	logger *zap.Logger,
) ClickProcessor {
	return &clickProcessor{
		clickRepo:    clickRepo,
		linkRepo:     linkRepo,
		geoResolver:  geoResolver,
		logger:       logger,
		clickChannel: make(chan *models.ClickEvent, defaultChannelBuffer),
		workerCount:  defaultWorkerCount,
	}
}

// Start запускает worker pool
func (p *clickProcessor) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("Запуск воркеров процессора кликов", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop корректно останавливает worker pool: приём новых событий
// прекращается, буфер канала дорабатывается до конца
func (p *clickProcessor) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.clickChannel)
	p.mu.Unlock()

	p.logger.Info("Остановка процессора кликов...",
		zap.Int("buffered", len(p.clickChannel)),
	)
	p.wg.Wait()
	p.cancel()
	p.logger.Info("Процессор кликов остановлен")
}

// worker обрабатывает события кликов из канала до его закрытия
func (p *clickProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер кликов запущен", zap.Int("id", id))

	for event := range p.clickChannel {
		p.processClick(event)
	}

	p.logger.Debug("Воркер кликов остановлен", zap.Int("id", id))
}

// processClick обогащает одно событие (user-agent, гео) и пишет его в БД.
// Все ошибки здесь только логируются: редирект уже ушёл клиенту.
func (p *clickProcessor) processClick(event *models.ClickEvent) {
	ctx, cancel := context.WithTimeout(p.ctx, 10*time.Second)
	defer cancel()

	linkID := event.LinkID
	if linkID == 0 {
		// Событие пришло без ID - получаем по короткому коду
		id, err := p.linkRepo.GetLinkIDByShortCode(ctx, event.ShortCode)
		if err != nil {
			p.logger.Warn("Не удалось получить ID ссылки для клика",
				zap.String("short_code", event.ShortCode),
				zap.Error(err),
			)
			return
		}
		linkID = id
	}

	// Классификация user-agent - чистая функция, без I/O
	uaInfo := analytics.ParseUserAgent(event.UserAgent)

	// Геолокация - единственный внешний вызов, со своим таймаутом внутри
	location := p.geoResolver.Resolve(ctx, event.IPAddress)

	click := &models.Click{
		LinkID:     linkID,
		ShortCode:  event.ShortCode,
		IPAddress:  event.IPAddress,
		Referrer:   event.Referrer,
		UserAgent:  event.UserAgent,
		Country:    location.Country,
		City:       location.City,
		DeviceType: uaInfo.DeviceType,
		Browser:    uaInfo.Browser,
		OS:         uaInfo.OS,
		ClickedAt:  time.Now(),
	}

	// Retry логика для записи в БД
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := p.clickRepo.RecordClick(ctx, click); err == nil {
			return
		} else {
			lastErr = err
		}
		// Логгируем попытку retry
		if i < maxRetries-1 {
			p.logger.Debug("Повторная попытка записи клика",
				zap.String("short_code", event.ShortCode),
				zap.Int("attempt", i+1),
				zap.Error(lastErr),
			)
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}

	p.logger.Error("Не удалось записать клик после всех попыток",
		zap.String("short_code", event.ShortCode),
		zap.Error(lastErr),
	)
}

// RecordClick отправляет событие клика в worker pool (неблокирующая операция)
func (p *clickProcessor) RecordClick(ctx context.Context, event *models.ClickEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		// Сервис уже останавливается, событие теряем молча
		p.logger.Debug("Процессор кликов остановлен, событие потеряно",
			zap.String("short_code", event.ShortCode),
		)
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.clickChannel <- event:
		return nil
	default:
		// Канал заполнен, логируем предупреждение, но не блокируем запрос
		p.logger.Warn("Буфер канала кликов заполнен, событие потеряно",
			zap.String("short_code", event.ShortCode),
		)
		return nil // Не прерываем запрос, просто теряем статистику
	}
}

// GetStats получает статистику кликов для короткого кода
func (p *clickProcessor) GetStats(ctx context.Context, shortCode string) (*models.ClickStats, error) {
	return p.clickRepo.GetStats(ctx, shortCode)
}

// GetDailyStats получает дневную статистику кликов
func (p *clickProcessor) GetDailyStats(ctx context.Context, shortCode string, days int) ([]models.DailyClickStats, error) {
	return p.clickRepo.GetDailyStats(ctx, shortCode, days)
}

// GetBreakdown получает распределение кликов по устройствам, браузерам, ОС и странам
func (p *clickProcessor) GetBreakdown(ctx context.Context, shortCode string) (*models.ClickBreakdown, error) {
	return p.clickRepo.GetBreakdown(ctx, shortCode)
}

// GetChannelStats возвращает статистику канала для мониторинга
func (p *clickProcessor) GetChannelStats() ChannelStats {
	return ChannelStats{
		BufferSize:  cap(p.clickChannel),
		BufferUsed:  len(p.clickChannel),
		WorkerCount: p.workerCount,
	}
}

// ChannelStats статистика канала worker pool
type ChannelStats struct {
	BufferSize  int `json:"buffer_size"`  // Общая ёмкость канала
	BufferUsed  int `json:"buffer_used"`  // Текущее использование
	WorkerCount int `json:"worker_count"` // Количество воркеров
}
