package command

import (
	"strings"

	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
)

// ExitCode переводит ошибку Execute в код завершения процесса.
//
//	nil                         → 0
//	SMOKE.FATAL_PRECONDITION    → 1
//	COMMAND.NOT_FOUND           → 2
//	CONFIG.*, SCENARIO_INVALID  → 5
//	прочие ошибки               → 8
func ExitCode(err error) int {
	if err == nil {
		return constants.ExitOK
	}
	code := apperrors.CodeOf(err)
	switch {
	case code == apperrors.ErrSmokeFatal:
		return constants.ExitFatal
	case code == apperrors.ErrCommandNotFound:
		return constants.ExitUnknownCommand
	case code == apperrors.ErrSmokeScenario, strings.HasPrefix(code, "CONFIG."):
		return constants.ExitConfig
	default:
		return constants.ExitStepsFailed
	}
}
