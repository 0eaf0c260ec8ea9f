// Package handler serves the admin's pages and htmx partials. Handlers read
// the author's session from the request context and render templates from
// the embedded filesystem.
package handler

import (
	"bytes"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/metrics"
	"github.com/debemdeboas/the-archive-admin/internal/middleware"
	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/debemdeboas/the-archive-admin/internal/routes"
	"github.com/debemdeboas/the-archive-admin/internal/session"
	"github.com/debemdeboas/the-archive-admin/internal/sse"
)

// EventNotification is the SSE event carrying the rendered notification.
const EventNotification = "notification"

var handlerLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	handlerLogger = l
}

type Handler struct {
	fs      fs.FS
	clients *sse.SSEClients
}

// New serves templates and static files out of content, which holds the
// templates and static directories.
func New(content fs.FS, clients *sse.SSEClients) *Handler {
	return &Handler{
		fs:      content,
		clients: clients,
	}
}

// Register mounts every route on mux. Routes that need the author's state
// run behind the session middleware.
func (h *Handler) Register(mux *http.ServeMux, sessions *session.Manager) {
	handle := func(method, pattern string, fn http.HandlerFunc) {
		mux.Handle(method+" "+pattern, middleware.Metrics(pattern, fn))
	}
	withSession := func(method, pattern string, fn http.HandlerFunc) {
		mux.Handle(method+" "+pattern, middleware.Metrics(pattern, sessions.Middleware(fn)))
	}

	static, err := fs.Sub(h.fs, config.StaticLocalDir)
	if err != nil {
		handlerLogger.Fatal().Err(err).Msg("Static directory missing from content")
	}
	mux.Handle("GET "+config.StaticUrlPath, http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(static))))

	handle(http.MethodGet, routes.RobotsPath, h.robots)
	handle(http.MethodGet, routes.HealthPath, h.health)
	handle(http.MethodPost, routes.ThemeToggle, h.themeToggle)
	handle(http.MethodPost, routes.SyntaxTheme, h.syntaxThemeSet)
	handle(http.MethodGet, routes.MarkdownHint, h.markdownHint)

	withSession(http.MethodGet, routes.SSEPath, h.events)
	withSession(http.MethodGet, routes.NotificationsCurrent, h.notificationCurrent)
	withSession(http.MethodPost, routes.NotificationsDismiss, h.notificationDismiss)

	withSession(http.MethodGet, routes.RootPath, h.index)
	withSession(http.MethodGet, routes.PartialsPosts, h.partialPosts)
	withSession(http.MethodDelete, routes.DeletePost, h.deletePost)
	withSession(http.MethodGet, routes.Search, h.search)
	withSession(http.MethodPost, routes.SearchClear, h.searchClear)

	withSession(http.MethodGet, routes.CreatePost, h.createPost)
	withSession(http.MethodGet, routes.UpdatePost, h.updatePost)
	withSession(http.MethodPost, routes.FormField, h.formField)
	withSession(http.MethodPost, routes.FormThumbnail, h.formThumbnail)
	withSession(http.MethodPost, routes.FormImage, h.formImage)
	withSession(http.MethodPost, routes.FormSubmit, h.formSubmit)
	withSession(http.MethodPost, routes.FormReset, h.formReset)
	withSession(http.MethodGet, routes.FormPreview, h.formPreview)
}

// PushNotification renders n and sends it to every open tab of the session.
// It is the session layer's OnNotify hook.
func (h *Handler) PushNotification(sessionID string, n model.Notification) {
	var buf bytes.Buffer
	if err := h.execute(&buf, "notification", n, config.TemplateNotify); err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to render notification")
		return
	}
	metrics.ObserveNotification(string(n.Kind))
	h.clients.Broadcast(sessionID, sse.Event{Name: EventNotification, Data: buf.String()})
}

var funcs = template.FuncMap{
	"imageURL": imageURL,
}

// imageURL lets image data URLs of selected files through to src
// attributes. Anything that is neither an image data URL nor a web or
// site-relative URL is dropped.
func imageURL(s string) template.URL {
	switch {
	case strings.HasPrefix(s, "data:image/"),
		strings.HasPrefix(s, "https://"),
		strings.HasPrefix(s, "http://"),
		strings.HasPrefix(s, "/"):
		return template.URL(s)
	}
	return ""
}

func (h *Handler) parse(files ...string) (*template.Template, error) {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = config.TemplatesLocalDir + "/" + f
	}
	return template.New(files[0]).Funcs(funcs).ParseFS(h.fs, paths...)
}

func (h *Handler) execute(buf *bytes.Buffer, name string, data any, files ...string) error {
	tmpl, err := h.parse(files...)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(buf, name, data)
}

// render executes the named template into a buffer first so a template
// error still produces a clean 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any, files ...string) {
	var buf bytes.Buffer
	if err := h.execute(&buf, name, data, files...); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, config.ErrInternalServerError, http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// renderPage renders a full page: the layout around the given content
// templates.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, data any, files ...string) {
	files = append([]string{config.TemplateLayout, config.TemplateNotify}, files...)
	h.render(w, r, http.StatusOK, config.TemplateLayout, data, files...)
}

func isHtmx(r *http.Request) bool {
	return r.Header.Get(config.HHxRequest) != ""
}

// state returns the author's session. Routes registered with the session
// middleware always have one.
func state(r *http.Request) *session.State {
	s, ok := session.FromContext(r.Context())
	if !ok {
		panic("handler: route registered without session middleware")
	}
	return s
}
