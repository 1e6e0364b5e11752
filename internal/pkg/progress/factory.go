package progress

import (
	"os"
	"strings"
)

// New выбирает реализацию Progress по окружению:
//  1. BR_SHOW_PROGRESS=false → NoopProgress
//  2. BR_OUTPUT_FORMAT=json и BR_PROGRESS_STREAM=true → JSONProgress в stderr
//  3. BR_OUTPUT_FORMAT=json → NoopProgress, stdout занят JSON результатом
//  4. Output — терминал → TTYProgress
//  5. Иначе → LineProgress
func New(opts Options) Progress {
	if os.Getenv("BR_SHOW_PROGRESS") == "false" {
		return NewNoOp()
	}

	if strings.EqualFold(opts.Format, "json") {
		if os.Getenv("BR_PROGRESS_STREAM") != "true" {
			return NewNoOp()
		}
		if opts.Output == nil {
			opts.Output = os.Stderr
		}
		return NewJSONProgress(opts.Output)
	}

	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if IsTTY(opts.Output) {
		return NewTTYProgress(opts.Output)
	}
	return NewLineProgress(opts.Output)
}
