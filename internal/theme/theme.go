// Package theme handles page theme selection and syntax highlighting CSS for previews.
package theme

import (
	"html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/the-archive-admin/internal/cache"
	"github.com/debemdeboas/the-archive-admin/internal/config"
)

// DefaultTheme resolves the configured default ("dark" or "light") to a theme class.
func DefaultTheme() string {
	if config.AppConfig != nil && strings.HasPrefix(config.AppConfig.Theme.Default, "light") {
		return config.LightTheme
	}
	return config.DefaultTheme
}

func GetThemeFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieTheme); err == nil {
		if cookie.Value == config.LightTheme || cookie.Value == config.DarkTheme {
			return cookie.Value
		}
	}
	return DefaultTheme()
}

func GetDefaultSyntaxTheme(theme string) string {
	light, dark := config.DefaultLightSyntaxTheme, config.DefaultDarkSyntaxTheme
	if config.AppConfig != nil {
		light = config.AppConfig.Theme.SyntaxHighlighting.DefaultLight
		dark = config.AppConfig.Theme.SyntaxHighlighting.DefaultDark
	}
	if theme == config.LightTheme {
		return light
	}
	return dark
}

func GetSyntaxThemeFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return GetDefaultSyntaxTheme(GetThemeFromRequest(r))
}

func GetSyntaxThemes() []string {
	styleNames := styles.Names()
	slices.Sort(styleNames)
	return styleNames
}

func GetFormatter() *html.Formatter {
	return html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WithLineNumbers(true),
		html.WrapLongLines(true),
	)
}

func GenerateSyntaxCSS(theme string) template.CSS {
	if css, ok := cache.GetSyntaxCSS(theme); ok {
		return css
	}

	var buf strings.Builder
	formatter := GetFormatter()
	style := styles.Get(theme)

	bg := style.Get(chroma.Background)
	if !bg.Colour.IsSet() {
		// Pick a readable text color when the style doesn't supply one
		luminance := (0.299*float64(bg.Background.Red()) +
			0.587*float64(bg.Background.Green()) +
			0.114*float64(bg.Background.Blue())) / 255
		if luminance > 0.5 {
			buf.WriteString(".chroma { color: #181818; }\n")
		}
	}

	formatter.WriteCSS(&buf, style)
	css := template.CSS(buf.String())
	cache.SetSyntaxCSS(theme, css)
	return css
}
