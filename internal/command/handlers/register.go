// Package handlers provides explicit registration of all command handlers.
// Registration is explicit rather than init()-based, so the dependency graph
// stays visible and tests control exactly which commands exist.
package handlers

import (
	"github.com/Kargones/aihub-smoke/internal/command/handlers/help"
	"github.com/Kargones/aihub-smoke/internal/command/handlers/smokehandler"
	"github.com/Kargones/aihub-smoke/internal/command/handlers/version"
	"github.com/Kargones/aihub-smoke/internal/command/handlers/watchhandler"
)

// RegisterAll explicitly registers all command handlers in the global registry.
// Call this once from main() before using any commands.
// Returns an error if any handler registration fails.
func RegisterAll() error {
	for _, register := range []func() error{
		smokehandler.RegisterCmd,
		watchhandler.RegisterCmd,
		version.RegisterCmd,
		help.RegisterCmd,
	} {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}
