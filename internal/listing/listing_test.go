package listing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/debemdeboas/the-archive-admin/internal/apiclient"
	"github.com/debemdeboas/the-archive-admin/internal/model"
)

type fakeAPI struct {
	mu        sync.Mutex
	lists     map[int]*apiclient.PostList
	listErr   error
	deleteMsg string
	deleteErr error
	deleted   []model.PostID
	block     chan struct{}
	listCalls []int
}

func (f *fakeAPI) ListPosts(_ context.Context, pageIndex, pageSize int) (*apiclient.PostList, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, pageIndex)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.lists[pageIndex], nil
}

func (f *fakeAPI) DeletePost(_ context.Context, id model.PostID) (string, error) {
	f.deleted = append(f.deleted, id)
	return f.deleteMsg, f.deleteErr
}

type recorder struct {
	mu  sync.Mutex
	got []model.Notification
}

func (r *recorder) Notify(kind model.NotificationKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, model.Notification{Kind: kind, Message: message})
}

type removerFunc func(model.PostID)

func (f removerFunc) Remove(id model.PostID) { f(id) }

func posts(ids ...string) []model.Post {
	out := make([]model.Post, len(ids))
	for i, id := range ids {
		out[i] = model.Post{ID: model.PostID(id)}
	}
	return out
}

func TestLoad(t *testing.T) {
	api := &fakeAPI{lists: map[int]*apiclient.PostList{
		0: {Posts: posts("a", "b"), PostCount: 20},
		1: {Posts: posts("c"), PostCount: 20},
	}}
	l := New(api, &recorder{}, 0, nil)

	if err := l.Load(context.Background(), 0); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if l.PageCount() != 3 || l.TotalCount() != 20 {
		t.Errorf("Expected 3 pages of 20 posts, got %d pages %d posts", l.PageCount(), l.TotalCount())
	}

	if err := l.PageSelect(context.Background(), 1); err != nil {
		t.Fatalf("PageSelect failed: %v", err)
	}
	if l.PageIndex() != 1 {
		t.Errorf("Expected page 1, got %d", l.PageIndex())
	}
	if v := l.View(nil); len(v.Posts) != 1 || v.Posts[0].ID != "c" {
		t.Errorf("Unexpected posts %v", v.Posts)
	}
}

func TestLoadErrorKeepsState(t *testing.T) {
	api := &fakeAPI{lists: map[int]*apiclient.PostList{0: {Posts: posts("a"), PostCount: 1}}}
	rec := &recorder{}
	l := New(api, rec, 9, nil)
	l.Load(context.Background(), 0)

	api.listErr = errors.New("Network Error")
	if err := l.Load(context.Background(), 3); err == nil {
		t.Fatal("Expected error")
	}

	if l.PageIndex() != 0 || len(l.View(nil).Posts) != 1 {
		t.Error("Expected previous page to survive a failed load")
	}
	if len(rec.got) != 1 || rec.got[0].Kind != model.KindError || rec.got[0].Message != "Network Error" {
		t.Errorf("Unexpected notifications %v", rec.got)
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{0, 0},
		{1, 1},
		{9, 1},
		{10, 2},
		{18, 2},
		{19, 3},
	}

	for _, tt := range tests {
		l := New(&fakeAPI{}, &recorder{}, 9, nil)
		l.totalCount = tt.total
		if got := l.PageCount(); got != tt.want {
			t.Errorf("PageCount(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestView(t *testing.T) {
	l := New(&fakeAPI{}, &recorder{}, 9, nil)
	l.posts = posts("a", "b")
	l.totalCount = 9

	v := l.View(nil)
	if v.ShowPagination || v.Searching {
		t.Errorf("Expected a single page without pagination, got %+v", v)
	}

	l.totalCount = 27
	l.pageIndex = 1
	v = l.View(nil)
	if !v.ShowPagination || len(v.Pages) != 3 {
		t.Fatalf("Expected 3 pages, got %+v", v)
	}
	if !v.Pages[1].Current || v.Pages[0].Current || v.Pages[1].Number != 2 {
		t.Errorf("Unexpected pages %+v", v.Pages)
	}

	v = l.View(posts("s1"))
	if !v.Searching || v.ShowPagination || len(v.Posts) != 1 || v.Posts[0].ID != "s1" {
		t.Errorf("Expected search results to replace the page, got %+v", v)
	}
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{deleteMsg: "Post removed successfully!"}
	rec := &recorder{}
	var removed []model.PostID
	l := New(api, rec, 9, removerFunc(func(id model.PostID) { removed = append(removed, id) }))
	l.posts = posts("a", "b", "c")
	l.totalCount = 3

	var prompt string
	err := l.Delete(context.Background(), model.Post{ID: "b"}, ConfirmFunc(func(p string) bool {
		prompt = p
		return true
	}))
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if prompt != "Are you sure!" {
		t.Errorf("Unexpected prompt %q", prompt)
	}
	if v := l.View(nil); len(v.Posts) != 2 || v.Posts[0].ID != "a" || v.Posts[1].ID != "c" {
		t.Errorf("Expected b removed in place, got %v", v.Posts)
	}
	if l.TotalCount() != 3 {
		t.Errorf("Expected totalCount untouched, got %d", l.TotalCount())
	}
	if len(api.listCalls) != 0 {
		t.Error("Expected no refetch after delete")
	}
	if len(removed) != 1 || removed[0] != "b" {
		t.Errorf("Expected overlay removal of b, got %v", removed)
	}
	if rec.got[0].Kind != model.KindSuccess || rec.got[0].Message != "Post removed successfully!" {
		t.Errorf("Unexpected notification %v", rec.got)
	}
}

func TestDeleteDeclined(t *testing.T) {
	api := &fakeAPI{}
	l := New(api, &recorder{}, 9, nil)
	l.posts = posts("a")

	l.Delete(context.Background(), model.Post{ID: "a"}, ConfirmFunc(func(string) bool { return false }))
	l.Delete(context.Background(), model.Post{ID: "a"}, nil)

	if len(api.deleted) != 0 {
		t.Errorf("Expected no API call, got %v", api.deleted)
	}
}

func TestDeleteError(t *testing.T) {
	api := &fakeAPI{deleteErr: errors.New("Post not found!")}
	rec := &recorder{}
	l := New(api, rec, 9, nil)
	l.posts = posts("a")

	if err := l.Delete(context.Background(), model.Post{ID: "a"}, ConfirmFunc(func(string) bool { return true })); err == nil {
		t.Fatal("Expected error")
	}
	if len(l.View(nil).Posts) != 1 {
		t.Error("Expected post to stay after a failed delete")
	}
	if rec.got[0].Kind != model.KindError || rec.got[0].Message != "Post not found!" {
		t.Errorf("Unexpected notification %v", rec.got)
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	block := make(chan struct{})
	api := &fakeAPI{
		lists: map[int]*apiclient.PostList{
			0: {Posts: posts("old"), PostCount: 1},
			1: {Posts: posts("new"), PostCount: 1},
		},
		block: block,
	}
	l := New(api, &recorder{}, 9, nil)

	errs := make(chan error, 1)
	go func() { errs <- l.Load(context.Background(), 0) }()

	for {
		api.mu.Lock()
		n := len(api.listCalls)
		api.mu.Unlock()
		if n == 1 {
			break
		}
	}

	api.mu.Lock()
	api.block = nil
	api.mu.Unlock()
	if err := l.Load(context.Background(), 1); err != nil {
		t.Fatalf("Second load failed: %v", err)
	}

	close(block)
	if err := <-errs; !errors.Is(err, ErrStale) {
		t.Errorf("Expected first load to be stale, got %v", err)
	}
	if v := l.View(nil); v.Posts[0].ID != "new" || l.PageIndex() != 1 {
		t.Errorf("Expected newer page to win, got %v page %d", v.Posts, l.PageIndex())
	}
}

func TestClose(t *testing.T) {
	api := &fakeAPI{lists: map[int]*apiclient.PostList{0: {Posts: posts("a"), PostCount: 1}}}
	l := New(api, &recorder{}, 9, nil)
	l.Close()

	if err := l.Load(context.Background(), 0); !errors.Is(err, ErrStale) {
		t.Errorf("Expected ErrStale after Close, got %v", err)
	}
	if len(l.View(nil).Posts) != 0 {
		t.Error("Expected no posts after Close")
	}
}
