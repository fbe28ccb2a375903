package handler

import (
	"net/http"

	"github.com/falkeetsingh/ClickLens/internal/config"
	"github.com/falkeetsingh/ClickLens/internal/middleware"
	"github.com/falkeetsingh/ClickLens/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	linkService service.LinkService,
	clickProcessor service.ClickProcessor,
	cfg config.AppConfig,
	rateLimiter *middleware.RateLimiter,
	apiKeyMiddleware gin.HandlerFunc,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	// Rate limiting для всех запросов
	router.Use(rateLimiter.Middleware())

	// Инициализация обработчиков
	linkHandler := NewLinkHandler(linkService, clickProcessor, cfg, logger)
	redirectHandler := NewRedirectHandler(linkService, clickProcessor, cfg, logger)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck(clickProcessor))

		// Применяем API Key middleware только к защищенным эндпоинтам
		if apiKeyMiddleware != nil {
			v1.Use(apiKeyMiddleware)
		}

		v1.POST("/links", linkHandler.CreateLink)
		v1.GET("/links", linkHandler.ListLinks)
		v1.DELETE("/links/:id", linkHandler.DeleteLink)
		v1.GET("/links/:code/stats", linkHandler.GetStats)
		v1.GET("/links/:code/stats/daily", linkHandler.GetDailyStats)
		v1.GET("/links/:code/stats/breakdown", linkHandler.GetBreakdown)
	}

	// Редирект публичный, без API key проверки. Вешаем его на NoRoute:
	// статический сегмент "r" и параметр ":code" на одном уровне дерева
	// роутов gin не уживаются, а код берётся прямо из пути.
	router.NoRoute(redirectHandler.Redirect)

	return router
}

// HealthCheck liveness-эндпоинт с текущим состоянием очереди кликов
func HealthCheck(clickProcessor service.ClickProcessor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"click_queue": clickProcessor.GetChannelStats(),
		})
	}
}
