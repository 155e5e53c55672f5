package view

import "context"

type settingsKey string

const themeKey settingsKey = "theme"

// Supported color themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// WithTheme stores the visitor's color theme in ctx.
func WithTheme(ctx context.Context, theme string) context.Context {
	return context.WithValue(ctx, themeKey, theme)
}

// Theme returns the color theme stored in ctx, dark by default.
func Theme(ctx context.Context) string {
	if theme, ok := ctx.Value(themeKey).(string); ok && theme == ThemeLight {
		return ThemeLight
	}
	return ThemeDark
}
