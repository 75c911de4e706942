package cli

import (
	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/ui"
)

// Ensure CLIColorProvider implements apperrors.ColorProvider at compile time.
var _ apperrors.ColorProvider = CLIColorProvider{}

// CLIColorProvider implements apperrors.ColorProvider with the current theme,
// read at call time so a later InitTheme is honored.
type CLIColorProvider struct{}

// Yellow returns the warning color code of the current theme.
func (c CLIColorProvider) Yellow() string { return ui.GetCurrentTheme().Yellow() }

// Reset returns the reset code of the current theme.
func (c CLIColorProvider) Reset() string { return ui.GetCurrentTheme().Reset() }
