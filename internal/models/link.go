package models

import (
	"time"
)

type Link struct {
	ID          int64      `json:"id"`
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	UserID      string     `json:"user_id"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CreateLinkInput struct {
	OriginalURL string  `json:"original_url" binding:"required,url"`
	UserID      string  `json:"-"`
	ExpiresIn   *int    `json:"expires_in,omitempty"`
	CustomCode  *string `json:"custom_code,omitempty"`
}

// LinkAnalytics агрегированная статистика по одной ссылке для дашборда
type LinkAnalytics struct {
	TotalClicks   int64      `json:"total_clicks"`
	LastClickTime *time.Time `json:"last_click_time"`
}

// LinkWithAnalytics ссылка вместе с агрегатами для списка пользователя
type LinkWithAnalytics struct {
	ID          int64         `json:"id"`
	OriginalURL string        `json:"original_url"`
	ShortCode   string        `json:"short_code"`
	ShortURL    string        `json:"short_url"`
	CreatedAt   time.Time     `json:"created_at"`
	Analytics   LinkAnalytics `json:"analytics"`
}
