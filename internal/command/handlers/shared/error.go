package shared

import (
	"fmt"
	"io"

	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
)

// errorHints — подсказки для ошибок, которые оператор исправляет сам.
var errorHints = map[string]string{
	apperrors.ErrSmokeScenario:  "проверьте BR_SCENARIO или BR_SCENARIO_FILE, список сценариев: BR_COMMAND=help",
	apperrors.ErrConfigValidate: "проверьте BR_HUB_URL: нужен http(s) адрес с хостом",
	ErrWatchSchedule:            "BR_WATCH_SCHEDULE принимает cron выражение из 5 полей или @every <duration>",
}

// writeTextError выводит ошибку команды в текстовом формате.
func writeTextError(w io.Writer, message, code string) error {
	if _, err := fmt.Fprintf(w, "Ошибка: %s\nКод: %s\n", message, code); err != nil {
		return err
	}
	if hint, ok := errorHints[code]; ok {
		_, err := fmt.Fprintf(w, "Подсказка: %s\n", hint)
		return err
	}
	return nil
}
