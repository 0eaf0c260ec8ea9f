// Package session identifies an author by cookie and keeps everything the
// admin remembers about them between requests: the notification, the
// listing cursor, the search overlay and open forms.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/debemdeboas/the-archive-admin/internal/cache"
	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/listing"
	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/debemdeboas/the-archive-admin/internal/notify"
	"github.com/debemdeboas/the-archive-admin/internal/postform"
	"github.com/debemdeboas/the-archive-admin/internal/repository/editor"
	"github.com/debemdeboas/the-archive-admin/internal/search"
)

type API interface {
	listing.API
	search.Searcher
	postform.API
}

type Deps struct {
	API          API
	Drafts       editor.Repository
	PageSize     int
	DismissAfter time.Duration
	Limits       postform.Limits
	// OnNotify is called whenever the session's notification changes.
	OnNotify func(session string, n model.Notification)
}

type State struct {
	ID       string
	Notifier *notify.Notifier
	Search   *search.State
	Listing  *listing.Listing

	deps Deps

	mu       sync.Mutex
	forms    map[string]*postform.Flow
	lastSeen time.Time
}

func NewState(id string, deps Deps) *State {
	s := &State{
		ID:       id,
		deps:     deps,
		forms:    make(map[string]*postform.Flow),
		lastSeen: time.Now(),
	}
	s.Notifier = notify.New(deps.DismissAfter, notify.WithOnChange(func(n model.Notification) {
		if deps.OnNotify != nil {
			deps.OnNotify(id, n)
		}
	}))
	s.Search = search.New(deps.API, s.Notifier)
	s.Listing = listing.New(deps.API, s.Notifier, deps.PageSize, s.Search)
	return s
}

func (s *State) FormDeps() postform.Deps {
	return postform.Deps{
		API:      s.deps.API,
		Drafts:   s.deps.Drafts,
		Session:  s.ID,
		Notifier: s.Notifier,
		Limits:   s.deps.Limits,
	}
}

// CreateForm returns the session's create form, building it and resuming
// the draft on first use.
func (s *State) CreateForm() *postform.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fl, ok := s.forms[postform.NewFormKey]; ok {
		return fl
	}
	fl := postform.NewCreateFlow(s.FormDeps())
	s.forms[postform.NewFormKey] = fl
	return fl
}

// OpenEditForm fetches the post and replaces any edit form already open for
// the same slug.
func (s *State) OpenEditForm(ctx context.Context, slug string) (*postform.Flow, error) {
	fl, err := postform.NewEditFlow(ctx, s.FormDeps(), slug)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[fl.Key] = fl
	return fl, nil
}

// Form looks up an open form by key: postform.NewFormKey or a key from
// postform.EditFormKey.
func (s *State) Form(key string) (*postform.Flow, bool) {
	if key == postform.NewFormKey {
		return s.CreateForm(), true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fl, ok := s.forms[key]
	return fl, ok
}

func (s *State) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

func (s *State) idleSince(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(t)
}

func (s *State) Close() {
	s.Listing.Close()
	s.Notifier.Close()
}

type Manager struct {
	sessions *cache.Cache[string, *State]
	deps     Deps
	secure   bool
}

func NewManager(deps Deps, secureCookie bool) *Manager {
	return &Manager{
		sessions: cache.NewCache[string, *State](),
		deps:     deps,
		secure:   secureCookie,
	}
}

// ID returns the session id from the request cookie, issuing a new one when
// the cookie is missing or malformed.
func (m *Manager) ID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(config.CookieSession); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieSession,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (m *Manager) Get(id string) *State {
	s := m.sessions.GetOrSet(id, func() *State { return NewState(id, m.deps) })
	s.touch()
	return s
}

func (m *Manager) Lookup(id string) (*State, bool) {
	return m.sessions.Get(id)
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}

// Sweep drops sessions idle for longer than maxIdle.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	var closed []*State
	n := m.sessions.DeleteFunc(func(_ string, s *State) bool {
		if s.idleSince(cutoff) {
			closed = append(closed, s)
			return true
		}
		return false
	})
	for _, s := range closed {
		s.Close()
	}
	return n
}

type ctxKey struct{}

// Middleware attaches the caller's State to the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.Get(m.ID(w, r))
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), s)))
	})
}

func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*State, bool) {
	s, ok := ctx.Value(ctxKey{}).(*State)
	return s, ok
}
