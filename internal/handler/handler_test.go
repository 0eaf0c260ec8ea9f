package handler

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/the-archive-admin/internal/apiclient"
	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/debemdeboas/the-archive-admin/internal/postform"
	"github.com/debemdeboas/the-archive-admin/internal/repository/editor"
	"github.com/debemdeboas/the-archive-admin/internal/session"
	"github.com/debemdeboas/the-archive-admin/internal/sse"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fakeAPI struct {
	mu sync.Mutex

	posts     []model.Post
	total     int
	listErr   error
	pages     []int
	deleted   []model.PostID
	searchErr error
	getErr    error
	created   int
	updated   []model.PostID
	uploadURL string
}

func (f *fakeAPI) ListPosts(_ context.Context, pageIndex, pageSize int) (*apiclient.PostList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = append(f.pages, pageIndex)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &apiclient.PostList{Posts: f.posts, PostCount: f.total}, nil
}

func (f *fakeAPI) DeletePost(_ context.Context, id model.PostID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return "Post removed successfully!", nil
}

func (f *fakeAPI) SearchPosts(_ context.Context, query string) ([]model.Post, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []model.Post{{ID: "s1", Title: "Found " + query, Slug: "found"}}, nil
}

func (f *fakeAPI) UploadImage(context.Context, *model.Upload) (string, error) {
	return f.uploadURL, nil
}

func (f *fakeAPI) GetPost(_ context.Context, slug string) (*model.Post, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &model.Post{ID: "42", Slug: slug, Title: "Existing", Content: "body", Meta: "meta", Tags: []string{"go"}}, nil
}

func (f *fakeAPI) CreatePost(context.Context, apiclient.Multipart) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return &model.Post{ID: "7", Slug: "hello-world"}, nil
}

func (f *fakeAPI) UpdatePost(_ context.Context, id model.PostID, _ apiclient.Multipart) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, id)
	return &model.Post{ID: id}, nil
}

type testServer struct {
	mux     *http.ServeMux
	api     *fakeAPI
	clients *sse.SSEClients
	handler *Handler
	cookie  *http.Cookie
}

func newTestServer(t *testing.T, api *fakeAPI) *testServer {
	t.Helper()

	clients := sse.NewSSEClients()
	h := New(os.DirFS("../.."), clients)
	sessions := session.NewManager(session.Deps{
		API:          api,
		Drafts:       editor.NewMemoryRepository(),
		PageSize:     9,
		DismissAfter: time.Minute,
		Limits:       postform.Limits{MetaMax: 150, MaxTags: 4},
		OnNotify:     h.PushNotification,
	}, false)

	mux := http.NewServeMux()
	h.Register(mux, sessions)

	return &testServer{mux: mux, api: api, clients: clients, handler: h}
}

// do sends req with the session cookie from earlier responses.
func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	if ts.cookie != nil {
		req.AddCookie(ts.cookie)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.CookieSession {
			ts.cookie = c
		}
	}
	return rec
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (ts *testServer) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(config.HCType, "application/x-www-form-urlencoded")
	req.Header.Set(config.HHxRequest, "true")
	return ts.do(req)
}

func (ts *testServer) postFile(path, field string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile(field, "upload.bin")
	fw.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(config.HCType, mw.FormDataContentType())
	req.Header.Set(config.HHxRequest, "true")
	return ts.do(req)
}

func field(name, value string) url.Values {
	return url.Values{"name": {name}, "value": {value}}
}

func posts(n int) []model.Post {
	out := make([]model.Post, n)
	for i := range out {
		id := string(rune('a' + i))
		out[i] = model.Post{ID: model.PostID(id), Title: "Post " + id, Slug: "post-" + id, Meta: "meta", Tags: []string{"go", "web"}}
	}
	return out
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{posts: posts(2), total: 20})

	rec := ts.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ts.cookie == nil {
		t.Fatal("Expected a session cookie")
	}

	body := rec.Body.String()
	for _, want := range []string{"Post a", "Post b", "/update-post/post-a", "go, web", `hx-get="/partials/posts?page=2"`} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected index to contain %q", want)
		}
	}
}

func TestIndexHidesPaginationForOnePage(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{posts: posts(2), total: 9})

	body := ts.get("/").Body.String()
	if strings.Contains(body, `class="pagination"`) {
		t.Error("Expected no pagination for a single page")
	}
}

func TestIndexListError(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{listErr: errors.New("Network Error")})

	rec := ts.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected page to render, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Network Error") {
		t.Error("Expected the list error as notification")
	}
}

func TestPartialPosts(t *testing.T) {
	api := &fakeAPI{posts: posts(1), total: 30}
	ts := newTestServer(t, api)

	rec := ts.get("/partials/posts?page=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<html") {
		t.Error("Expected a partial, got a full page")
	}
	if got := api.pages[len(api.pages)-1]; got != 2 {
		t.Errorf("Expected page 2 requested, got %d", got)
	}
	if !strings.Contains(rec.Body.String(), `class="current"`) {
		t.Error("Expected current page marked")
	}
}

func TestDeletePost(t *testing.T) {
	api := &fakeAPI{posts: posts(2), total: 2}
	ts := newTestServer(t, api)
	ts.get("/")

	rec := ts.do(httptest.NewRequest(http.MethodDelete, "/posts/a", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(api.deleted) != 0 {
		t.Fatal("Expected no delete without confirmation")
	}

	rec = ts.do(httptest.NewRequest(http.MethodDelete, "/posts/a?confirmed=true", nil))
	if len(api.deleted) != 1 || api.deleted[0] != "a" {
		t.Fatalf("Expected post a deleted, got %v", api.deleted)
	}
	if strings.Contains(rec.Body.String(), "Post a") {
		t.Error("Expected deleted card gone")
	}
	if !strings.Contains(rec.Body.String(), "Post b") {
		t.Error("Expected remaining card kept")
	}
	if len(api.pages) != 1 {
		t.Errorf("Expected no refetch after delete, got %d list calls", len(api.pages))
	}
}

func TestDeletePostConfirmedInBody(t *testing.T) {
	api := &fakeAPI{posts: posts(2), total: 2}
	ts := newTestServer(t, api)
	ts.get("/")

	req := httptest.NewRequest(http.MethodDelete, "/posts/b", strings.NewReader("confirmed=true"))
	req.Header.Set(config.HCType, config.CTypeForm)
	req.Header.Set(config.HHxRequest, "true")
	ts.do(req)

	if len(api.deleted) != 1 || api.deleted[0] != "b" {
		t.Fatalf("Expected post b deleted from a form-encoded body, got %v", api.deleted)
	}
}

func TestDeleteButtonCarriesConfirmation(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{posts: posts(1), total: 1})

	body := ts.get("/").Body.String()
	if !strings.Contains(body, `hx-delete="/posts/a?confirmed=true"`) {
		t.Errorf("Expected delete button to send the confirmation, got %s", body)
	}
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{posts: posts(2), total: 2})
	ts.get("/")

	req := httptest.NewRequest(http.MethodGet, "/search?title=go", nil)
	req.Header.Set(config.HHxRequest, "true")
	body := ts.do(req).Body.String()
	if !strings.Contains(body, "Found go") || strings.Contains(body, "Post a") {
		t.Errorf("Expected search results to replace the page, got %s", body)
	}
	if !strings.Contains(body, "/search/clear") {
		t.Error("Expected clear button while searching")
	}

	body = ts.postForm("/search/clear", nil).Body.String()
	if strings.Contains(body, "Found go") || !strings.Contains(body, "Post a") {
		t.Error("Expected listing back after clearing search")
	}
}

func TestSearchFullPage(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{posts: posts(1), total: 1})

	rec := ts.get("/search?title=go")
	if !strings.Contains(rec.Body.String(), "<html") || !strings.Contains(rec.Body.String(), "Found go") {
		t.Error("Expected a full page with results for a plain request")
	}
}

func TestCreatePostPage(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})

	rec := ts.get("/create-post")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Create New Post", "/form/new/submit", "Select thumbnail", "1280 * 720", "0 / 150", "desktop"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected create page to contain %q", want)
		}
	}
}

func TestFormFieldResumesDraft(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})
	ts.get("/create-post")

	rec := ts.postForm("/form/new/field", field("title", "Draft title"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rec.Code)
	}
	if rec.Header().Get(config.HHxTrigger) != EventPreviewChanged {
		t.Error("Expected preview refresh trigger")
	}

	if !strings.Contains(ts.get("/create-post").Body.String(), `value="Draft title"`) {
		t.Error("Expected title kept in the form")
	}
}

func TestFormFieldMeta(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})
	ts.get("/create-post")

	rec := ts.postForm("/form/new/field", field("meta", strings.Repeat("x", 200)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "150 / 150") {
		t.Errorf("Expected clipped meta counter, got %s", rec.Body.String())
	}
}

func TestFormFieldUnknown(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})

	if rec := ts.postForm("/form/new/field", field("slug", "x")); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestFormNotFound(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})

	if rec := ts.postForm("/form/never-opened/field", field("title", "x")); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestFormTagsWarning(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})
	ts.get("/create-post")
	ts.postForm("/form/new/field", field("tags", "a, b, c, d, e"))

	body := ts.get("/notifications/current").Body.String()
	if !strings.Contains(body, config.WarnTooManyTags) || !strings.Contains(body, model.ColorWarning) {
		t.Errorf("Expected tags warning, got %s", body)
	}
}

func TestFormSubmitValidation(t *testing.T) {
	api := &fakeAPI{}
	ts := newTestServer(t, api)
	ts.get("/create-post")

	rec := ts.postForm("/form/new/submit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), config.ErrTitleRequired) {
		t.Errorf("Expected title error, got %s", rec.Body.String())
	}
	if api.created != 0 {
		t.Error("Expected no create call")
	}
}

func TestFormSubmitCreate(t *testing.T) {
	api := &fakeAPI{}
	ts := newTestServer(t, api)
	ts.get("/create-post")

	for name, value := range map[string]string{
		"title":   "Hello World",
		"content": "# Hello",
		"tags":    "go",
		"meta":    "about",
	} {
		ts.postForm("/form/new/field", field(name, value))
	}

	rec := ts.postForm("/form/new/submit", nil)
	if got := rec.Header().Get(config.HHxRedirect); got != "/update-post/hello-world" {
		t.Errorf("Expected redirect to the new post, got %q", got)
	}
	if api.created != 1 {
		t.Errorf("Expected one create call, got %d", api.created)
	}

	if strings.Contains(ts.get("/create-post").Body.String(), `value="Hello World"`) {
		t.Error("Expected the create form cleared after submit")
	}
}

func TestUpdatePost(t *testing.T) {
	api := &fakeAPI{}
	ts := newTestServer(t, api)

	rec := ts.get("/update-post/existing")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Update Post") || !strings.Contains(body, `value="Existing"`) {
		t.Error("Expected edit form seeded from the post")
	}

	rec = ts.postForm("/form/edit.existing/submit", nil)
	if !strings.Contains(rec.Body.String(), config.MsgPostUpdated) {
		t.Errorf("Expected success notification, got %s", rec.Body.String())
	}
	if len(api.updated) != 1 || api.updated[0] != "42" {
		t.Errorf("Expected update of post 42, got %v", api.updated)
	}
}

func TestUpdatePostWithSlugNew(t *testing.T) {
	api := &fakeAPI{}
	ts := newTestServer(t, api)

	body := ts.get("/update-post/new").Body.String()
	if !strings.Contains(body, `hx-post="/form/edit.new/submit"`) {
		t.Fatalf("Expected edit form addressed apart from the create form, got %s", body)
	}

	ts.postForm("/form/edit.new/submit", nil)
	if len(api.updated) != 1 || api.updated[0] != "42" {
		t.Errorf("Expected update of post 42, got %v", api.updated)
	}
}

func TestUpdatePostMissing(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{getErr: errors.New("Post not found!")})

	rec := ts.get("/update-post/nope")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("Expected redirect home, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if !strings.Contains(ts.get("/notifications/current").Body.String(), "Post not found!") {
		t.Error("Expected error notification kept for the next page")
	}
}

func TestFormReset(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})
	ts.get("/create-post")
	ts.postForm("/form/new/field", field("title", "Draft title"))

	rec := ts.postForm("/form/new/reset", nil)
	if rec.Header().Get(config.HHxRedirect) != "/create-post" {
		t.Errorf("Expected redirect to the create page, got %q", rec.Header().Get(config.HHxRedirect))
	}
	if strings.Contains(ts.get("/create-post").Body.String(), `value="Draft title"`) {
		t.Error("Expected form cleared")
	}
}

func TestFormThumbnail(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})
	ts.get("/create-post")

	rec := ts.postFile("/form/new/thumbnail", "thumbnail", []byte("plain text"))
	if !strings.Contains(rec.Body.String(), "alert(") || !strings.Contains(rec.Body.String(), "Select thumbnail") {
		t.Errorf("Expected alert and unchanged placeholder, got %s", rec.Body.String())
	}

	rec = ts.postFile("/form/new/thumbnail", "thumbnail", pngBytes)
	if !strings.Contains(rec.Body.String(), "data:image/png;base64,") {
		t.Errorf("Expected data URL preview, got %s", rec.Body.String())
	}
}

func TestFormImage(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{uploadURL: "https://cdn.example.com/a.png"})
	ts.get("/create-post")

	rec := ts.postFile("/form/new/image", "image", pngBytes)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "![Add image description](https://cdn.example.com/a.png)") {
		t.Errorf("Expected copy snippet, got %s", rec.Body.String())
	}
}

func TestFormImageNotAnImage(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{uploadURL: "https://cdn.example.com/a.png"})
	ts.get("/create-post")

	rec := ts.postFile("/form/new/image", "image", []byte("plain text"))
	if strings.Contains(rec.Body.String(), "cdn.example.com") {
		t.Error("Expected no upload for a non-image")
	}
	if !strings.Contains(ts.get("/notifications/current").Body.String(), config.ErrNotAnImage) {
		t.Error("Expected not-an-image notification")
	}
}

func TestFormPreview(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})
	ts.get("/create-post")
	ts.postForm("/form/new/field", field("content", "# Heading\n\nSome *text*"))

	body := ts.get("/form/new/preview").Body.String()
	for _, want := range []string{"mobile", "tablet", "desktop", "375px", "<em>text</em>"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected preview to contain %q", want)
		}
	}
}

func TestMarkdownHint(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})

	body := ts.get("/partials/markdown-hint").Body.String()
	for _, want := range []string{"From h1 to h6", "Blockquote", model.MarkdownGuideURL} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected hint to contain %q", want)
		}
	}
}

func TestNotificationDismiss(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})
	ts.get("/create-post")
	ts.postForm("/form/new/submit", nil)

	body := ts.postForm("/notifications/dismiss", nil).Body.String()
	if strings.Contains(body, config.ErrTitleRequired) {
		t.Error("Expected notification dismissed")
	}
}

func TestPushNotification(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})

	client := sse.NewClient("session-1")
	ts.clients.Add(client)
	defer ts.clients.Delete(client)

	ts.handler.PushNotification("session-1", model.Notification{Kind: model.KindSuccess, Message: "Saved"})

	select {
	case ev := <-client.Msg:
		if ev.Name != EventNotification || !strings.Contains(ev.Data, "Saved") || !strings.Contains(ev.Data, model.ColorSuccess) {
			t.Errorf("Unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected a notification event")
	}
}

func TestAmbientRoutes(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})

	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "ok"},
		{"/robots.txt", "User-agent: *"},
		{"/static/app.css", "--accent"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := ts.get(tt.path)
			if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("GET %s = %d %q", tt.path, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestThemeToggle(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})

	rec := ts.postForm("/theme/toggle", nil)
	var themeCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.CookieTheme {
			themeCookie = c
		}
	}
	if themeCookie == nil || themeCookie.Value != config.LightTheme {
		t.Errorf("Expected switch to light theme, got %v", themeCookie)
	}
	if !strings.Contains(rec.Header().Get(config.HHxTrigger), "themeChanged") {
		t.Error("Expected themeChanged trigger")
	}
}

func TestSyntaxThemeSet(t *testing.T) {
	ts := newTestServer(t, &fakeAPI{})

	rec := ts.postForm("/syntax-theme/set", url.Values{"syntax-theme-select": {"monokai"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200 OK, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ".chroma") {
		t.Error("Expected chroma CSS in response")
	}

	rec = ts.postForm("/syntax-theme/set", url.Values{"syntax-theme-select": {"no-such-style"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown style, got %d", rec.Code)
	}
}

func TestImageURL(t *testing.T) {
	tests := map[string]string{
		"data:image/png;base64,AAAA": "data:image/png;base64,AAAA",
		"https://cdn/a.png":          "https://cdn/a.png",
		"/static/blank.jpg":          "/static/blank.jpg",
		"javascript:alert(1)":        "",
		"data:text/html,hi":          "",
	}
	for in, want := range tests {
		if got := string(imageURL(in)); got != want {
			t.Errorf("imageURL(%q) = %q, want %q", in, got, want)
		}
	}
}
