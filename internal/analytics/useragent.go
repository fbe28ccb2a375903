package analytics

import (
	"strings"
)

// UnknownValue значение по умолчанию для всех неклассифицированных полей
const UnknownValue = "Unknown"

// UAInfo результат классификации user-agent
type UAInfo struct {
	DeviceType string
	Browser    string
	OS         string
}

// rule одно правило каскада: первый сработавший предикат выигрывает
type rule struct {
	match func(ua string) bool
	label string
}

func token(substrings ...string) func(string) bool {
	return func(ua string) bool {
		for _, s := range substrings {
			if strings.Contains(ua, strings.ToLower(s)) {
				return true
			}
		}
		return false
	}
}

func tokenExcluding(substr, excluded string) func(string) bool {
	return func(ua string) bool {
		return strings.Contains(ua, strings.ToLower(substr)) &&
			!strings.Contains(ua, strings.ToLower(excluded))
	}
}

// Порядок проверок важен: токены пересекаются. Chrome-совместимые браузеры
// добавляют "Safari" ради совместимости, Edge содержит "Chrome", поэтому
// Edge проверяется раньше Chrome, а Safari исключает Chrome.
var browserRules = []rule{
	{token("edg/"), "Edge"},
	{tokenExcluding("chrome/", "chromium"), "Chrome"},
	{token("firefox/"), "Firefox"},
	{tokenExcluding("safari/", "chrome"), "Safari"},
	{token("opera", "opr/"), "Opera"},
}

var osRules = []rule{
	{token("windows nt"), "Windows"},
	{token("mac os x", "macintosh"), "macOS"},
	{tokenExcluding("linux", "android"), "Linux"},
	{token("iphone", "ios"), "iOS"},
	{token("android"), "Android"},
}

var deviceRules = []rule{
	{token("tablet", "ipad"), "Tablet"},
	{token("mobile"), "Mobile"},
}

func classify(ua string, rules []rule, fallback string) string {
	for _, r := range rules {
		if r.match(ua) {
			return r.label
		}
	}
	return fallback
}

// ParseUserAgent классифицирует user-agent по устройству, браузеру и ОС.
// Чистая функция без I/O, матчинг регистронезависимый.
func ParseUserAgent(userAgent string) UAInfo {
	if strings.TrimSpace(userAgent) == "" {
		return UAInfo{
			DeviceType: UnknownValue,
			Browser:    UnknownValue,
			OS:         UnknownValue,
		}
	}

	ua := strings.ToLower(userAgent)

	return UAInfo{
		DeviceType: classify(ua, deviceRules, "Desktop"),
		Browser:    classify(ua, browserRules, UnknownValue),
		OS:         classify(ua, osRules, UnknownValue),
	}
}
