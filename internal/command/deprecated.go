package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Kargones/aihub-smoke/internal/config"
)

// Deprecatable опционально реализуется deprecated handlers.
// Используется help-командой для определения deprecated статуса.
type Deprecatable interface {
	IsDeprecated() bool
	NewName() string
}

var (
	_ Handler      = (*DeprecatedBridge)(nil)
	_ Deprecatable = (*DeprecatedBridge)(nil)
)

// DeprecatedBridge выполняет команду под старым именем (test-mvp, demo-mvp),
// предварительно печатая предупреждение в stderr. stdout не трогается,
// чтобы не ломать JSON вывод.
type DeprecatedBridge struct {
	actual     Handler
	deprecated string
	newName    string
	// warnOut — куда писать предупреждение. nil — os.Stderr.
	warnOut io.Writer
}

// Name возвращает deprecated имя команды.
func (b *DeprecatedBridge) Name() string { return b.deprecated }

// Description делегирует описание actual handler.
func (b *DeprecatedBridge) Description() string { return b.actual.Description() }

// IsDeprecated всегда true.
func (b *DeprecatedBridge) IsDeprecated() bool { return true }

// NewName возвращает рекомендуемое имя команды.
func (b *DeprecatedBridge) NewName() string { return b.newName }

// Execute печатает предупреждение и делегирует выполнение actual handler.
// При отменённом context возвращает ctx.Err() без предупреждения.
func (b *DeprecatedBridge) Execute(ctx context.Context, cfg *config.Config) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w := b.warnOut
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "WARNING: command '%s' is deprecated, use '%s' instead\n",
		b.deprecated, b.newName)
	return b.actual.Execute(ctx, cfg)
}
