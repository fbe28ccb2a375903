package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/falkeetsingh/ClickLens/internal/config"
	"github.com/falkeetsingh/ClickLens/internal/middleware"
	"github.com/falkeetsingh/ClickLens/internal/models"
	"github.com/falkeetsingh/ClickLens/internal/repository"
	"github.com/falkeetsingh/ClickLens/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service        service.LinkService
	clickProcessor service.ClickProcessor
	cfg            config.AppConfig
	logger         *zap.Logger
}

func NewLinkHandler(
	service service.LinkService,
	clickProcessor service.ClickProcessor,
	cfg config.AppConfig,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		service:        service,
		clickProcessor: clickProcessor,
		cfg:            cfg,
		logger:         logger,
	}
}

type CreateLinkRequest struct {
	URL        string `json:"url" binding:"required"`
	ExpiresIn  *int   `json:"expires_in,omitempty"`
	CustomCode string `json:"custom_code,omitempty"`
}

type CreateLinkResponse struct {
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ListLinksResponse struct {
	URLs []models.LinkWithAnalytics `json:"urls"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// CreateLink создаёт короткую ссылку для аутентифицированного пользователя
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	input := &models.CreateLinkInput{
		OriginalURL: req.URL,
		UserID:      currentUserID(c),
		ExpiresIn:   req.ExpiresIn,
	}

	if req.CustomCode != "" {
		input.CustomCode = &req.CustomCode
	}

	link, err := h.service.CreateLink(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create link", zap.Error(err))

		switch {
		case errors.Is(err, service.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_url",
				Message: "Invalid URL format",
			})
		case errors.Is(err, service.ErrInvalidCode):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_code",
				Message: "Custom code must be 4-12 alphanumeric characters",
			})
		case errors.Is(err, service.ErrSpamDomain):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "spam_domain",
				Message: "Domain is blacklisted",
			})
		case errors.Is(err, repository.ErrCodeExists):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "code_exists",
				Message: "Custom code is already taken",
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to create link",
			})
		}
		return
	}

	response := CreateLinkResponse{
		ShortCode:   link.ShortCode,
		ShortURL:    strings.TrimRight(h.cfg.BaseURL, "/") + "/r/" + link.ShortCode,
		OriginalURL: link.OriginalURL,
		ExpiresAt:   link.ExpiresAt,
		CreatedAt:   link.CreatedAt,
	}

	c.JSON(http.StatusCreated, response)
}

// ListLinks возвращает ссылки пользователя с аналитикой для дашборда
func (h *LinkHandler) ListLinks(c *gin.Context) {
	links, err := h.service.ListLinks(c.Request.Context(), currentUserID(c), h.cfg.BaseURL)
	if err != nil {
		h.logger.Error("Failed to list links", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list links",
		})
		return
	}

	c.JSON(http.StatusOK, ListLinksResponse{URLs: links})
}

// DeleteLink удаляет ссылку по id вместе со всеми её кликами
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Link id must be an integer",
		})
		return
	}

	err = h.service.DeleteLink(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.logger.Warn("Failed to delete link", zap.Int64("id", id), zap.Error(err))

		switch {
		case errors.Is(err, repository.ErrNotOwner):
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "forbidden",
				Message: "Link belongs to another user",
			})
		default:
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
}

// GetStats возвращает общее и уникальное количество кликов
func (h *LinkHandler) GetStats(c *gin.Context) {
	code := c.Param("code")

	stats, err := h.clickProcessor.GetStats(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("Failed to get stats", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Link not found",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetDailyStats возвращает дневную статистику кликов
func (h *LinkHandler) GetDailyStats(c *gin.Context) {
	code := c.Param("code")
	days := 7
	if d := c.Query("days"); d != "" {
		if _, err := fmt.Sscanf(d, "%d", &days); err != nil || days < 1 || days > 90 {
			days = 7
		}
	}

	stats, err := h.clickProcessor.GetDailyStats(c.Request.Context(), code, days)
	if err != nil {
		h.logger.Warn("Failed to get daily stats", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Link not found",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetBreakdown возвращает распределение кликов по устройствам, браузерам, ОС и странам
func (h *LinkHandler) GetBreakdown(c *gin.Context) {
	code := c.Param("code")

	breakdown, err := h.clickProcessor.GetBreakdown(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("Failed to get breakdown", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Link not found",
		})
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// currentUserID владелец определяется по имени валидированного API ключа
func currentUserID(c *gin.Context) string {
	if name, ok := middleware.GetAPIKeyName(c); ok {
		return name
	}
	return ""
}
