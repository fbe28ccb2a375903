package analytics_test

import (
	"testing"

	"github.com/falkeetsingh/ClickLens/internal/analytics"
	"github.com/stretchr/testify/assert"
)

// TestParseUserAgent_Desktop проверяет классификацию десктопных браузеров
func TestParseUserAgent_Desktop(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		device  string
		browser string
		os      string
	}{
		{
			name:    "Chrome on Windows",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			device:  "Desktop",
			browser: "Chrome",
			os:      "Windows",
		},
		{
			name:    "Edge on Windows",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
			device:  "Desktop",
			browser: "Edge",
			os:      "Windows",
		},
		{
			name:    "Firefox on Linux",
			ua:      "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			device:  "Desktop",
			browser: "Firefox",
			os:      "Linux",
		},
		{
			name:    "Safari on macOS",
			ua:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
			device:  "Desktop",
			browser: "Safari",
			os:      "macOS",
		},
		{
			name:   "Opera on Windows",
			ua:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36 OPR/105.0.0.0",
			device: "Desktop",
			// Chrome токен присутствует и проверяется раньше Opera
			browser: "Chrome",
			os:      "Windows",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := analytics.ParseUserAgent(tt.ua)
			assert.Equal(t, tt.device, info.DeviceType)
			assert.Equal(t, tt.browser, info.Browser)
			assert.Equal(t, tt.os, info.OS)
		})
	}
}

// TestParseUserAgent_Mobile проверяет классификацию мобильных устройств
func TestParseUserAgent_Mobile(t *testing.T) {
	// iPhone: Mobile токен, Safari без Chrome, iOS
	info := analytics.ParseUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 16_0) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1")
	assert.Equal(t, "Mobile", info.DeviceType)
	assert.Equal(t, "Safari", info.Browser)
	assert.Equal(t, "iOS", info.OS)

	// Android Chrome
	info = analytics.ParseUserAgent("Mozilla/5.0 (Android 14; Mobile) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36")
	assert.Equal(t, "Mobile", info.DeviceType)
	assert.Equal(t, "Chrome", info.Browser)
	assert.Equal(t, "Android", info.OS)
}

// TestParseUserAgent_Tablet проверяет, что планшеты имеют приоритет над Mobile
func TestParseUserAgent_Tablet(t *testing.T) {
	// iPad содержит и Mobile токен, но Tablet/iPad проверяется первым
	info := analytics.ParseUserAgent("Mozilla/5.0 (iPad; CPU OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1")
	assert.Equal(t, "Tablet", info.DeviceType)

	info = analytics.ParseUserAgent("Mozilla/5.0 (Linux; Android 13; Tablet) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Equal(t, "Tablet", info.DeviceType)
	assert.Equal(t, "Android", info.OS)
}

// TestParseUserAgent_Overlaps проверяет порядок проверок при пересечении токенов
func TestParseUserAgent_Overlaps(t *testing.T) {
	// Chromium не считается Chrome; Safari токен без Chrome остаётся
	info := analytics.ParseUserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chromium/120.0 Safari/537.36")
	assert.NotEqual(t, "Chrome", info.Browser)
	assert.Equal(t, "Safari", info.Browser)

	// Android не считается Linux, хотя ядро Linux в строке присутствует
	info = analytics.ParseUserAgent("Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36")
	assert.Equal(t, "Android", info.OS)
}

// TestParseUserAgent_Empty проверяет пустой и пробельный user-agent
func TestParseUserAgent_Empty(t *testing.T) {
	for _, ua := range []string{"", "   "} {
		info := analytics.ParseUserAgent(ua)
		assert.Equal(t, "Unknown", info.DeviceType)
		assert.Equal(t, "Unknown", info.Browser)
		assert.Equal(t, "Unknown", info.OS)
	}
}

// TestParseUserAgent_Unclassifiable проверяет значение по умолчанию
func TestParseUserAgent_Unclassifiable(t *testing.T) {
	info := analytics.ParseUserAgent("curl/8.4.0")
	assert.Equal(t, "Desktop", info.DeviceType)
	assert.Equal(t, "Unknown", info.Browser)
	assert.Equal(t, "Unknown", info.OS)
}
