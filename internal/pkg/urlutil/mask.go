// Package urlutil — утилиты для безопасной работы с URL.
package urlutil

import (
	"net/url"
	"strings"
)

// MaskURL оставляет от URL только scheme и host. Используется для
// webhook и Pushgateway адресов, в path которых бывают токены:
// "https://hooks.slack.com/services/XXX/YYY" → "https://hooks.slack.com/***".
func MaskURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "***invalid-url***"
	}
	return u.Scheme + "://" + u.Host + "/***"
}

// Redact убирает из URL userinfo и query, сохраняя path.
// Базовый адрес AI Hub выводится в отчёте через Redact.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "***invalid-url***"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/")
}

// Join склеивает базовый URL и путь без двойных слэшей.
func Join(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
