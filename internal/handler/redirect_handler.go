package handler

import (
	"net/http"
	"strings"

	"github.com/falkeetsingh/ClickLens/internal/config"
	"github.com/falkeetsingh/ClickLens/internal/models"
	"github.com/falkeetsingh/ClickLens/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RedirectHandler разрешает короткий код в редирект и асинхронно пишет клик
type RedirectHandler struct {
	service        service.LinkService
	clickProcessor service.ClickProcessor
	cfg            config.AppConfig
	logger         *zap.Logger
}

func NewRedirectHandler(
	service service.LinkService,
	clickProcessor service.ClickProcessor,
	cfg config.AppConfig,
	logger *zap.Logger,
) *RedirectHandler {
	return &RedirectHandler{
		service:        service,
		clickProcessor: clickProcessor,
		cfg:            cfg,
		logger:         logger,
	}
}

// Redirect обрабатывает GET /{code} и GET /r/{code}.
// Любой сбой разрешения кода (пустой код, код не найден, ошибка хранилища)
// деградирует к редиректу на fallback URL, а не к 4xx/5xx: битая короткая
// ссылка должна выглядеть для посетителя как "не найдено", не как ошибка.
func (h *RedirectHandler) Redirect(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}

	code := normalizeCode(c.Request.URL.Path)
	if code == "" {
		h.fallback(c)
		return
	}

	link, err := h.service.GetLink(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("Link resolution failed", zap.String("code", code), zap.Error(err))
		h.fallback(c)
		return
	}

	// Асинхронная запись статистики: событие уходит в worker pool,
	// редирект не ждёт ни обогащения, ни записи в БД
	clickEvent := &models.ClickEvent{
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		IPAddress: clientIP(c.Request),
		Referrer:  referrer(c.Request),
		UserAgent: c.Request.UserAgent(),
	}
	if err := h.clickProcessor.RecordClick(c.Request.Context(), clickEvent); err != nil {
		h.logger.Debug("Failed to record click (non-blocking)", zap.Error(err))
	}

	noCache(c)
	c.Redirect(http.StatusFound, link.OriginalURL)
}

// fallback редирект на настроенный адрес по умолчанию, без записи клика
func (h *RedirectHandler) fallback(c *gin.Context) {
	noCache(c)
	c.Redirect(http.StatusFound, h.cfg.FallbackURL)
}

// normalizeCode достаёт короткий код из пути запроса: срезает ведущий "/"
// и опциональный префикс "r/", который оставляют некоторые клиенты при
// сборке ссылки. Регистр кода не трогаем - совпадение строгое.
func normalizeCode(path string) string {
	code := strings.TrimPrefix(path, "/")
	code = strings.TrimPrefix(code, "r/")
	return strings.TrimSpace(code)
}

// noCache запрещает промежуточным кэшам сохранять редирект, чтобы смена
// или удаление ссылки не обслуживались устаревшим Location
func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}

// clientIP извлекает IP посетителя из доверенных заголовков прокси
// в порядке приоритета: CDN, первый адрес X-Forwarded-For, X-Real-IP
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}

// referrer учитывает оба варианта написания заголовка
func referrer(r *http.Request) string {
	if ref := r.Header.Get("Referer"); ref != "" {
		return ref
	}
	return r.Header.Get("Referrer")
}
