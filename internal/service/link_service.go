package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/falkeetsingh/ClickLens/internal/models"
	"github.com/falkeetsingh/ClickLens/internal/repository"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidURL  = errors.New("invalid URL")
	ErrInvalidCode = errors.New("invalid custom code")
	ErrSpamDomain  = errors.New("domain is blacklisted")
)

// Константы сервиса
const (
	defaultTTL = 24 * time.Hour
	maxTTL     = 30 * 24 * time.Hour
	codeLength = 8
	charset    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var customCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Чёрный список доменов (можно вынести в конфиг или БД)
var blacklistedDomains = []string{
	"malware.com",
	"phishing.com",
	"spam.com",
}

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	GetLink(ctx context.Context, code string) (*models.Link, error)
	ListLinks(ctx context.Context, userID string, baseURL string) ([]models.LinkWithAnalytics, error)
	DeleteLink(ctx context.Context, id int64, userID string) error
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	logger    *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(linkRepo repository.LinkRepository, cacheRepo repository.CacheRepository, logger *zap.Logger) LinkService {
	return &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// CreateLink создаёт новую короткую ссылку
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	// Валидация URL
	if err := s.validateURL(input.OriginalURL); err != nil {
		return nil, err
	}

	// Проверка на спам-домены
	if err := s.checkSpamDomain(input.OriginalURL); err != nil {
		return nil, err
	}

	// Генерация короткого кода
	shortCode := input.CustomCode
	if shortCode == nil || *shortCode == "" {
		code, err := s.generateShortCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}
		shortCode = &code
	} else {
		// Валидация кастомного кода
		if err := s.validateCustomCode(*shortCode); err != nil {
			return nil, ErrInvalidCode
		}
	}

	// Расчёт TTL
	var expiresAt *time.Time
	if input.ExpiresIn != nil && *input.ExpiresIn > 0 {
		ttl := time.Duration(*input.ExpiresIn) * time.Minute
		if ttl > maxTTL {
			ttl = maxTTL
		}
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	// Создание ссылки
	link := &models.Link{
		ShortCode:   *shortCode,
		OriginalURL: input.OriginalURL,
		UserID:      input.UserID,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now(),
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			// Retry с новым кодом при коллизии сгенерированного кода
			if input.CustomCode == nil || *input.CustomCode == "" {
				return s.CreateLink(ctx, input)
			}
		}
		return nil, err
	}

	// Кэширование
	ttl := defaultTTL
	if expiresAt != nil {
		ttl = time.Until(*expiresAt)
	}
	if err := s.cacheRepo.Set(ctx, link.ShortCode, link, ttl); err != nil {
		s.logger.Warn("Failed to cache link", zap.String("short_code", link.ShortCode), zap.Error(err))
	}

	return link, nil
}

// GetLink получает ссылку по короткому коду (сначала из кэша, затем из БД).
// Код сравнивается как есть, без нормализации регистра.
func (s *linkService) GetLink(ctx context.Context, code string) (*models.Link, error) {
	// Проверка кэша
	link, err := s.cacheRepo.Get(ctx, code)
	if err == nil {
		return link, nil
	}

	// Запрос из БД
	link, err = s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		return nil, err
	}

	// Кэширование результата
	ttl := defaultTTL
	if link.ExpiresAt != nil {
		ttl = time.Until(*link.ExpiresAt)
	}
	s.cacheRepo.Set(ctx, code, link, ttl)

	return link, nil
}

// ListLinks возвращает ссылки пользователя с аналитикой и собранным short_url
func (s *linkService) ListLinks(ctx context.Context, userID string, baseURL string) ([]models.LinkWithAnalytics, error) {
	links, err := s.linkRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(baseURL, "/")
	for i := range links {
		links[i].ShortURL = base + "/r/" + links[i].ShortCode
	}

	return links, nil
}

// DeleteLink удаляет ссылку по id вместе с кликами (каскад на стороне БД)
func (s *linkService) DeleteLink(ctx context.Context, id int64, userID string) error {
	shortCode, err := s.linkRepo.DeleteByID(ctx, id, userID)
	if err != nil {
		return err
	}

	// Инвалидация кэша, иначе редирект живёт до истечения TTL
	if err := s.cacheRepo.Delete(ctx, shortCode); err != nil {
		s.logger.Warn("Failed to invalidate link cache", zap.String("short_code", shortCode), zap.Error(err))
	}

	return nil
}

// generateShortCode генерирует случайный короткий код длиной 8 символов
func (s *linkService) generateShortCode() (string, error) {
	result := make([]byte, codeLength)
	for i := 0; i < codeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[num.Int64()]
	}
	return string(result), nil
}

// validateURL проверяет, что URL абсолютный с http/https схемой
func (s *linkService) validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// validateCustomCode проверяет формат кастомного кода (4-12 символов, буквы и цифры)
func (s *linkService) validateCustomCode(code string) error {
	if len(code) < 4 || len(code) > 12 {
		return ErrInvalidCode
	}
	if !customCodePattern.MatchString(code) {
		return ErrInvalidCode
	}
	return nil
}

// checkSpamDomain проверяет наличие домена URL в чёрном списке
func (s *linkService) checkSpamDomain(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range blacklistedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return ErrSpamDomain
		}
	}
	return nil
}
