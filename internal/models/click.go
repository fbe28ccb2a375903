package models

import (
	"time"
)

// Click запись одного визита со всеми производными полями
type Click struct {
	ID         int64     `json:"id"`
	LinkID     int64     `json:"link_id"`
	ShortCode  string    `json:"short_code"`
	IPAddress  string    `json:"ip_address"`
	Referrer   string    `json:"referrer"`
	UserAgent  string    `json:"user_agent"`
	Country    string    `json:"country"`
	City       string    `json:"city"`
	DeviceType string    `json:"device_type"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	ClickedAt  time.Time `json:"clicked_at"`
}

// ClickEvent сырое событие клика до обогащения (user-agent + гео)
type ClickEvent struct {
	LinkID    int64
	ShortCode string
	IPAddress string
	Referrer  string
	UserAgent string
}

type ClickStats struct {
	ShortCode    string `json:"short_code"`
	TotalClicks  int64  `json:"total_clicks"`
	UniqueClicks int64  `json:"unique_clicks"`
}

type DailyClickStats struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// BreakdownEntry количество кликов для одного значения измерения
type BreakdownEntry struct {
	Value  string `json:"value"`
	Clicks int64  `json:"clicks"`
}

// ClickBreakdown распределение кликов по устройствам, браузерам, ОС и странам
type ClickBreakdown struct {
	ShortCode string           `json:"short_code"`
	Devices   []BreakdownEntry `json:"devices"`
	Browsers  []BreakdownEntry `json:"browsers"`
	Systems   []BreakdownEntry `json:"systems"`
	Countries []BreakdownEntry `json:"countries"`
}
