package model

import (
	"html/template"
	"net/http"

	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/theme"
)

type PageData struct {
	SiteName string

	PageURL string

	Theme string

	SyntaxCSS    template.CSS
	SyntaxTheme  string
	SyntaxThemes []string

	Notification Notification
}

func NewPageData(r *http.Request, n Notification) *PageData {
	siteName := ""
	if config.AppConfig != nil {
		siteName = config.AppConfig.Site.Name
	}
	syntaxTheme := theme.GetSyntaxThemeFromRequest(r)
	return &PageData{
		SiteName:     siteName,
		PageURL:      r.URL.Path,
		Theme:        theme.GetThemeFromRequest(r),
		SyntaxTheme:  syntaxTheme,
		SyntaxCSS:    theme.GenerateSyntaxCSS(syntaxTheme),
		SyntaxThemes: theme.GetSyntaxThemes(),
		Notification: n,
	}
}
