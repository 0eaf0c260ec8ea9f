package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/debemdeboas/the-archive-admin/internal/apiclient"
	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/debemdeboas/the-archive-admin/internal/postform"
	"github.com/debemdeboas/the-archive-admin/internal/repository/editor"
)

type stubAPI struct{}

func (stubAPI) ListPosts(context.Context, int, int) (*apiclient.PostList, error) {
	return &apiclient.PostList{}, nil
}
func (stubAPI) DeletePost(context.Context, model.PostID) (string, error) { return "", nil }
func (stubAPI) SearchPosts(context.Context, string) ([]model.Post, error) {
	return nil, nil
}
func (stubAPI) UploadImage(context.Context, *model.Upload) (string, error) { return "", nil }
func (stubAPI) GetPost(_ context.Context, slug string) (*model.Post, error) {
	return &model.Post{ID: "1", Slug: slug, Title: "Found"}, nil
}
func (stubAPI) CreatePost(context.Context, apiclient.Multipart) (*model.Post, error) {
	return &model.Post{}, nil
}
func (stubAPI) UpdatePost(context.Context, model.PostID, apiclient.Multipart) (*model.Post, error) {
	return &model.Post{}, nil
}

func testDeps(onNotify func(string, model.Notification)) Deps {
	return Deps{
		API:          stubAPI{},
		Drafts:       editor.NewMemoryRepository(),
		PageSize:     9,
		DismissAfter: time.Minute,
		OnNotify:     onNotify,
	}
}

func TestIDIssuesCookie(t *testing.T) {
	m := NewManager(testDeps(nil), false)

	rec := httptest.NewRecorder()
	id := m.ID(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != config.CookieSession || cookies[0].Value != id {
		t.Fatalf("Expected session cookie with %s, got %v", id, cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("Expected HttpOnly session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	if got := m.ID(rec, req); got != id {
		t.Errorf("Expected existing id %s, got %s", id, got)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("Expected no new cookie for a known session")
	}
}

func TestIDRejectsMalformedCookie(t *testing.T) {
	m := NewManager(testDeps(nil), false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: config.CookieSession, Value: "../../etc"})

	if id := m.ID(httptest.NewRecorder(), req); id == "../../etc" {
		t.Error("Expected malformed session id to be replaced")
	}
}

func TestGetIsPerSession(t *testing.T) {
	m := NewManager(testDeps(nil), false)

	a := m.Get("a")
	if m.Get("a") != a {
		t.Error("Expected the same state for the same id")
	}
	if m.Get("b") == a {
		t.Error("Expected different sessions to have different state")
	}
	if m.Len() != 2 {
		t.Errorf("Expected 2 sessions, got %d", m.Len())
	}
}

func TestNotificationsRoutedToSession(t *testing.T) {
	var gotSession string
	var got model.Notification
	m := NewManager(testDeps(func(id string, n model.Notification) {
		gotSession, got = id, n
	}), false)

	s := m.Get("a")
	s.Notifier.Notify(model.KindSuccess, "saved")
	defer s.Close()

	if gotSession != "a" || got.Message != "saved" {
		t.Errorf("Unexpected notification %s %+v", gotSession, got)
	}
}

func TestForms(t *testing.T) {
	s := NewState("a", testDeps(nil))
	defer s.Close()

	created := s.CreateForm()
	if fl, ok := s.Form("new"); !ok || fl != created {
		t.Error("Expected create form to be reused")
	}

	if _, ok := s.Form("hello"); ok {
		t.Error("Expected no edit form before it is opened")
	}

	fl, err := s.OpenEditForm(context.Background(), "hello")
	if err != nil {
		t.Fatalf("OpenEditForm failed: %v", err)
	}
	if got, ok := s.Form(postform.EditFormKey("hello")); !ok || got != fl {
		t.Error("Expected edit form to be registered under its edit key")
	}
	if fl.Fields().Title != "Found" {
		t.Errorf("Expected form seeded from the post, got %+v", fl.Fields())
	}
}

func TestEditFormForSlugNew(t *testing.T) {
	s := NewState("a", testDeps(nil))
	defer s.Close()

	created := s.CreateForm()
	edit, err := s.OpenEditForm(context.Background(), "new")
	if err != nil {
		t.Fatalf("OpenEditForm failed: %v", err)
	}

	if got, _ := s.Form(postform.NewFormKey); got != created {
		t.Error("Expected create form to stay under its own key")
	}
	if got, ok := s.Form(postform.EditFormKey("new")); !ok || got != edit {
		t.Error("Expected the edit form of post new to be reachable")
	}
}

func TestSweep(t *testing.T) {
	m := NewManager(testDeps(nil), false)
	m.Get("old")

	if n := m.Sweep(time.Hour); n != 0 {
		t.Errorf("Expected fresh session to survive, swept %d", n)
	}

	time.Sleep(5 * time.Millisecond)
	if n := m.Sweep(time.Millisecond); n != 1 {
		t.Errorf("Expected 1 idle session swept, got %d", n)
	}
	if _, ok := m.Lookup("old"); ok {
		t.Error("Expected swept session to be gone")
	}
}

func TestMiddleware(t *testing.T) {
	m := NewManager(testDeps(nil), false)

	var state *State
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, _ = FromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if state == nil {
		t.Fatal("Expected state in request context")
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Error("Expected no state in a bare context")
	}
}
