package hub

import (
	"errors"
	"fmt"

	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
)

// Коды ошибок клиента AI Hub.
const (
	// ErrHubUnreachable — сетевая ошибка, сервер недоступен
	ErrHubUnreachable = "HUB.UNREACHABLE"
	// ErrHubTimeout — истёк таймаут запроса
	ErrHubTimeout = "HUB.TIMEOUT"
	// ErrHubUnexpectedStatus — HTTP статус отличается от ожидаемого
	ErrHubUnexpectedStatus = "HUB.UNEXPECTED_STATUS"
	// ErrHubCancelled — запрос прерван отменой контекста
	ErrHubCancelled = "HUB.CANCELLED"
	// ErrHubDecode — тело ответа не JSON или не кодируется запрос
	ErrHubDecode = "HUB.DECODE"
	// ErrHubContract — ответ не соответствует JSON Schema контракта
	ErrHubContract = "HUB.CONTRACT"
	// ErrAuthRejected — сервер отклонил токен или учётные данные (401/403)
	ErrAuthRejected = "AUTH.REJECTED"
	// ErrAuthConflict — пользователь уже существует (409)
	ErrAuthConflict = "AUTH.CONFLICT"
	// ErrAuthNoToken — в успешном ответе auth нет токена
	ErrAuthNoToken = "AUTH.NO_TOKEN"
)

// HubError представляет ошибку обращения к AI Hub.
type HubError struct {
	// Code — код ошибки (одна из констант Err*)
	Code string
	// Message — человекочитаемое описание
	Message string
	// StatusCode — HTTP статус ответа, 0 если ответа не было
	StatusCode int
	// ServerCode — машинный код из тела ошибки сервера (MISSING_TOKEN и т.п.)
	ServerCode string
	// Cause — исходная ошибка
	Cause error
}

// Error реализует интерфейс error.
func (e *HubError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.ServerCode != "" {
		msg += " (" + e.ServerCode + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap возвращает исходную ошибку для errors.Is/As.
func (e *HubError) Unwrap() error {
	return e.Cause
}

// As поддерживает преобразование HubError в apperrors.AppError через errors.As.
func (e *HubError) As(target any) bool {
	if t, ok := target.(**apperrors.AppError); ok {
		*t = &apperrors.AppError{
			Code:    e.Code,
			Message: e.Message,
			Cause:   e.Cause,
		}
		return true
	}
	return false
}

// NewHubError создаёт HubError без HTTP статуса.
func NewHubError(code, message string, cause error) *HubError {
	return &HubError{Code: code, Message: message, Cause: cause}
}

// NewHubErrorWithStatus создаёт HubError с HTTP статусом.
func NewHubErrorWithStatus(code, message string, statusCode int, cause error) *HubError {
	return &HubError{Code: code, Message: message, StatusCode: statusCode, Cause: cause}
}

// CodeOf возвращает код HubError в цепочке или пустую строку.
func CodeOf(err error) string {
	var hubErr *HubError
	if errors.As(err, &hubErr) {
		return hubErr.Code
	}
	return ""
}

// IsUnreachable — сервер недоступен или не ответил вовремя.
func IsUnreachable(err error) bool {
	code := CodeOf(err)
	return code == ErrHubUnreachable || code == ErrHubTimeout
}

// IsCancelled — запрос прерван отменой контекста, сервер тут ни при чём.
func IsCancelled(err error) bool {
	return CodeOf(err) == ErrHubCancelled
}

// IsAuthRejected — сервер ответил 401/403.
func IsAuthRejected(err error) bool {
	return CodeOf(err) == ErrAuthRejected
}

// IsConflict — регистрация вернула 409.
func IsConflict(err error) bool {
	return CodeOf(err) == ErrAuthConflict
}

// StatusOf возвращает HTTP статус из HubError или 0.
func StatusOf(err error) int {
	var hubErr *HubError
	if errors.As(err, &hubErr) {
		return hubErr.StatusCode
	}
	return 0
}
