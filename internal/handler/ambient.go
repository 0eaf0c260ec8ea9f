package handler

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/metrics"
	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/debemdeboas/the-archive-admin/internal/sse"
	"github.com/debemdeboas/the-archive-admin/internal/theme"
	"github.com/debemdeboas/the-archive-admin/internal/util"
)

func (h *Handler) robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("User-agent: *\nDisallow: /"))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(config.HCType, "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *Handler) themeToggle(w http.ResponseWriter, r *http.Request) {
	newTheme := config.DarkTheme
	if theme.GetThemeFromRequest(r) == config.DarkTheme {
		newTheme = config.LightTheme
	}

	http.SetCookie(w, &http.Cookie{
		Name:  config.CookieTheme,
		Value: newTheme,
		Path:  "/",
	})

	syntaxTheme := theme.GetDefaultSyntaxTheme(newTheme)
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil && cookie.Value != "" {
		syntaxTheme = cookie.Value
	}

	w.Header().Set(config.HHxTrigger, fmt.Sprintf(`{"themeChanged":{"value":%q,"syntaxTheme":%q}}`, newTheme, syntaxTheme))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) syntaxThemeSet(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("syntax-theme-select")
	if !slices.Contains(theme.GetSyntaxThemes(), name) {
		http.Error(w, fmt.Sprintf("unknown syntax theme %q", name), http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieSyntaxTheme,
		Value:    name,
		Path:     "/",
		HttpOnly: true,
	})

	css := []byte(theme.GenerateSyntaxCSS(name))
	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(css))
	w.WriteHeader(http.StatusOK)
	w.Write(css)
}

func (h *Handler) markdownHint(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Rules    []model.MarkdownRule
		GuideURL string
	}{
		Rules:    model.MarkdownRules,
		GuideURL: model.MarkdownGuideURL,
	}
	h.render(w, r, http.StatusOK, "hint", data, config.TemplateHint)
}

func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	s := state(r)
	client := sse.NewClient(s.ID)
	log := zerolog.Ctx(r.Context())

	metrics.SSEClients.Inc()
	defer metrics.SSEClients.Dec()

	log.Debug().Str("session", s.ID).Msg("SSE client connected")
	if !h.clients.Stream(w, r, client) {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	log.Debug().Str("session", s.ID).Msg("SSE client disconnected")
}

func (h *Handler) notificationCurrent(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "notification", state(r).Notifier.Current(), config.TemplateNotify)
}

func (h *Handler) notificationDismiss(w http.ResponseWriter, r *http.Request) {
	s := state(r)
	s.Notifier.Dismiss()
	h.render(w, r, http.StatusOK, "notification", s.Notifier.Current(), config.TemplateNotify)
}
