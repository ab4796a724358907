package common

import (
	"errors"
	"fmt"
)

// ErrModulePaused is wrapped into the error Guard returns while a module's
// pause flag is set. Match it with errors.Is; the returned error also names
// the paused module.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a module's value-moving operations are gated.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the named module is paused. A nil view or an
// empty module name means pausing is not wired and the call proceeds.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return fmt.Errorf("%s: %w", module, ErrModulePaused)
	}
	return nil
}
