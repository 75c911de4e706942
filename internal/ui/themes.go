// Package ui provides theme and color support for the application's user interface.
// Themes are palettes of github.com/fatih/color attributes; they render both
// through color.Color printers and as raw escape codes for callers that build
// strings by hand, such as the error handler.
package ui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Role names the purpose of a piece of styled output.
type Role int

const (
	// Primary is the main accent color for important elements.
	Primary Role = iota
	// Secondary is used for less prominent elements.
	Secondary
	// Success indicates positive outcomes.
	Success
	// Warning is used for caution messages and limits.
	Warning
	// Error indicates failures.
	Error
	// Info is used for informational values such as indices.
	Info
	// Bold emphasizes headings.
	Bold
)

// Theme defines a color scheme for UI output.
type Theme struct {
	// Name is the identifier of the theme.
	Name    string
	palette map[Role][]color.Attribute
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = Theme{
		Name: "dark",
		palette: map[Role][]color.Attribute{
			Primary:   {color.FgHiBlue},
			Secondary: {color.FgHiBlack},
			Success:   {color.FgHiGreen},
			Warning:   {color.FgHiYellow},
			Error:     {color.FgHiRed},
			Info:      {color.FgHiMagenta},
			Bold:      {color.Bold},
		},
	}

	// LightTheme is optimized for light terminal backgrounds.
	LightTheme = Theme{
		Name: "light",
		palette: map[Role][]color.Attribute{
			Primary:   {color.FgBlue},
			Secondary: {color.FgBlack},
			Success:   {color.FgGreen},
			Warning:   {color.FgYellow},
			Error:     {color.FgRed},
			Info:      {color.FgMagenta},
			Bold:      {color.Bold},
		},
	}

	// NoColorTheme disables all color output.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// Enabled reports whether the theme emits any escape codes.
func (t Theme) Enabled() bool { return len(t.palette) > 0 }

// Code returns the raw escape sequence for r, or "" for an uncolored theme.
func (t Theme) Code(r Role) string {
	attrs := t.palette[r]
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = strconv.Itoa(int(a))
	}
	return "\x1b[" + strings.Join(parts, ";") + "m"
}

// Reset returns the escape sequence that clears formatting.
func (t Theme) Reset() string {
	if !t.Enabled() {
		return ""
	}
	return "\x1b[0m"
}

// Yellow returns the warning color. Together with Reset it lets a Theme be
// passed wherever an apperrors.ColorProvider is expected.
func (t Theme) Yellow() string { return t.Code(Warning) }

// Color returns a printer for r. The printer honors the theme rather than the
// global color.NoColor switch, so rendering is deterministic in tests.
func (t Theme) Color(r Role) *color.Color {
	c := color.New(t.palette[r]...)
	if t.Enabled() {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Sprint styles the operands of a with r.
func (t Theme) Sprint(r Role, a ...any) string {
	return t.Color(r).Sprint(a...)
}

// GetCurrentTheme returns the currently active theme in a thread-safe manner.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the currently active theme in a thread-safe manner.
// This is primarily used for testing purposes to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme changes the active theme by name.
// Valid names are: "dark", "light", "none". Unknown names select dark.
func SetTheme(name string) {
	switch name {
	case "light":
		SetCurrentTheme(LightTheme)
	case "none":
		SetCurrentTheme(NoColorTheme)
	default:
		SetCurrentTheme(DarkTheme)
	}
}

// InitTheme selects the theme from the --no-color flag and the environment.
// color.NoColor already reflects NO_COLOR, TERM=dumb and whether stdout is a
// terminal; noColor forces it on.
func InitTheme(noColor bool) {
	if noColor {
		color.NoColor = true
	}
	if color.NoColor {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetCurrentTheme(DarkTheme)
}
