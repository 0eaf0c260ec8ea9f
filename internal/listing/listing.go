// Package listing is the paginated post grid of one author session.
package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/debemdeboas/the-archive-admin/internal/apiclient"
	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/model"
)

const DefaultPageSize = 9

// ErrStale is returned by Load when a newer Load or Close overtook it.
var ErrStale = errors.New("listing: stale response discarded")

type API interface {
	ListPosts(ctx context.Context, pageIndex, pageSize int) (*apiclient.PostList, error)
	DeletePost(ctx context.Context, id model.PostID) (string, error)
}

type Notifier interface {
	Notify(kind model.NotificationKind, message string)
}

// Remover drops a deleted post from another view of the posts, such as the
// search overlay.
type Remover interface {
	Remove(id model.PostID)
}

type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

type Listing struct {
	mu         sync.Mutex
	api        API
	notifier   Notifier
	overlay    Remover
	pageIndex  int
	pageSize   int
	totalCount int
	posts      []model.Post
	gen        uint64
	closed     bool
}

func New(api API, notifier Notifier, pageSize int, overlay Remover) *Listing {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Listing{
		api:      api,
		notifier: notifier,
		overlay:  overlay,
		pageSize: pageSize,
	}
}

// Load fetches page pageIndex. A failure is reported to the author and the
// previously shown page stays.
func (l *Listing) Load(ctx context.Context, pageIndex int) error {
	if pageIndex < 0 {
		pageIndex = 0
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrStale
	}
	l.gen++
	gen := l.gen
	pageSize := l.pageSize
	l.mu.Unlock()

	list, err := l.api.ListPosts(ctx, pageIndex, pageSize)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.gen {
		return ErrStale
	}
	if err != nil {
		l.notifier.Notify(model.KindError, err.Error())
		return err
	}

	l.posts = list.Posts
	l.totalCount = list.PostCount
	l.pageIndex = pageIndex
	return nil
}

func (l *Listing) PageSelect(ctx context.Context, index int) error {
	return l.Load(ctx, index)
}

// Delete removes post after the author confirms. The removed card simply
// disappears from the current page; the page is not refetched.
func (l *Listing) Delete(ctx context.Context, post model.Post, confirmer Confirmer) error {
	if confirmer == nil || !confirmer.Confirm(config.MsgConfirmDelete) {
		return nil
	}

	message, err := l.api.DeletePost(ctx, post.ID)
	if err != nil {
		l.notifier.Notify(model.KindError, err.Error())
		return err
	}
	l.notifier.Notify(model.KindSuccess, message)

	l.mu.Lock()
	l.posts = model.Without(l.posts, post.ID)
	l.mu.Unlock()

	if l.overlay != nil {
		l.overlay.Remove(post.ID)
	}
	return nil
}

// PageCount is ceil(totalCount / pageSize).
func (l *Listing) PageCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pageCount()
}

func (l *Listing) pageCount() int {
	if l.totalCount <= 0 {
		return 0
	}
	return (l.totalCount + l.pageSize - 1) / l.pageSize
}

func (l *Listing) PageIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pageIndex
}

func (l *Listing) TotalCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalCount
}

// Close discards any response still in flight.
func (l *Listing) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

type Page struct {
	Index   int
	Number  int
	Current bool
}

type View struct {
	Posts          []model.Post
	Searching      bool
	ShowPagination bool
	Pages          []Page
}

// View decides what the grid shows. Non-empty search results replace the
// page and hide pagination.
func (l *Listing) View(searchResults []model.Post) View {
	if len(searchResults) > 0 {
		return View{Posts: searchResults, Searching: true}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	v := View{Posts: make([]model.Post, len(l.posts))}
	copy(v.Posts, l.posts)

	count := l.pageCount()
	if count > 1 {
		v.ShowPagination = true
		v.Pages = make([]Page, count)
		for i := range v.Pages {
			v.Pages[i] = Page{Index: i, Number: i + 1, Current: i == l.pageIndex}
		}
	}
	return v
}
