package tui

import (
	"image/color"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
)

// ThemeName identifies one color scheme.
type ThemeName string

// ThemeName values.
const (
	ThemeDark  ThemeName = "dark"
	ThemeLight ThemeName = "light"
)

// Theme is the shared color-scheme state. It is created once at startup and
// handed to every view that renders colors.
type Theme struct {
	mu   sync.RWMutex
	name ThemeName
}

// NewTheme constructs a theme; unknown names fall back to dark.
func NewTheme(name string) *Theme {
	t := &Theme{name: ThemeDark}
	if ThemeName(strings.ToLower(strings.TrimSpace(name))) == ThemeLight {
		t.name = ThemeLight
	}
	return t
}

// Name returns the active scheme.
func (t *Theme) Name() ThemeName {
	if t == nil {
		return ThemeDark
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.name
}

// Toggle switches between dark and light and returns the new scheme.
func (t *Theme) Toggle() ThemeName {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.name == ThemeLight {
		t.name = ThemeDark
	} else {
		t.name = ThemeLight
	}
	return t.name
}

// palette holds the colors one scheme renders with.
type palette struct {
	accent color.Color
	text   color.Color
	muted  color.Color
	dim    color.Color
	danger color.Color
	done   color.Color
	// markdown names the glamour standard style matching the scheme.
	markdown string
}

func (t *Theme) palette() palette {
	if t.Name() == ThemeLight {
		return palette{
			accent:   lipgloss.Color("25"),
			text:     lipgloss.Color("235"),
			muted:    lipgloss.Color("243"),
			dim:      lipgloss.Color("249"),
			danger:   lipgloss.Color("160"),
			done:     lipgloss.Color("28"),
			markdown: "light",
		}
	}
	return palette{
		accent:   lipgloss.Color("62"),
		text:     lipgloss.Color("252"),
		muted:    lipgloss.Color("241"),
		dim:      lipgloss.Color("239"),
		danger:   lipgloss.Color("203"),
		done:     lipgloss.Color("78"),
		markdown: "dark",
	}
}
