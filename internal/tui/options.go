package tui

import "context"

// Option configures a Model.
type Option func(*Model)

// WithTheme injects the shared theme state.
func WithTheme(theme *Theme) Option {
	return func(m *Model) {
		if theme != nil {
			m.theme = theme
		}
	}
}

// WithCompactWidth sets the width below which the filter bar moves under the list.
func WithCompactWidth(width int) Option {
	return func(m *Model) {
		if width > 0 {
			m.compactWidth = width
		}
	}
}

// WithClipboard replaces the clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithContext sets the context session and feed calls run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}
