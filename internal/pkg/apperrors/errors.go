// Package apperrors предоставляет структурированные ошибки приложения.
// Назван apperrors чтобы не конфликтовать со стандартной библиотекой errors.
package apperrors

import (
	"errors"
	"fmt"
)

// Коды ошибок в формате CATEGORY.SPECIFIC_ERROR.
// Категорию легко найти grep'ом: `grep "SMOKE\."`.
const (
	// CONFIG — загрузка и парсинг конфигурации.
	ErrConfigLoad     = "CONFIG.LOAD_FAILED"
	ErrConfigParse    = "CONFIG.PARSE_FAILED"
	ErrConfigValidate = "CONFIG.VALIDATION_FAILED"

	// COMMAND — выполнение команд.
	ErrCommandNotFound = "COMMAND.NOT_FOUND"
	ErrCommandExec     = "COMMAND.EXEC_FAILED"

	// OUTPUT — форматирование вывода.
	ErrOutputFormat = "OUTPUT.FORMAT_FAILED"

	// SMOKE — прогон сценария против AI Hub.
	ErrSmokeScenario = "SMOKE.SCENARIO_INVALID"
	ErrSmokeFatal    = "SMOKE.FATAL_PRECONDITION"
	ErrSmokeFailed   = "SMOKE.STEPS_FAILED"
)

// AppError представляет структурированную ошибку приложения.
// Реализует error и поддерживает wrapping через Unwrap().
//
// ВАЖНО: Message НЕ ДОЛЖЕН содержать секреты (пароли, токены, API-ключи).
//
//	return apperrors.NewAppError(apperrors.ErrConfigLoad,
//	    "не удалось прочитать файл конфигурации", err)
type AppError struct {
	// Code — машиночитаемый код ошибки CATEGORY.SPECIFIC.
	Code string `json:"code"`

	// Message — человекочитаемое описание.
	Message string `json:"message"`

	// Cause — исходная ошибка. В JSON не попадает.
	Cause error `json:"-"`
}

// Error реализует интерфейс error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает wrapped ошибку для errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError создаёт новый AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf возвращает код первой AppError в цепочке или пустую строку.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
