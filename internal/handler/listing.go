package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/listing"
	"github.com/debemdeboas/the-archive-admin/internal/model"
	"github.com/debemdeboas/the-archive-admin/internal/session"
)

const maxFormSize = 1 << 20

var postsTemplates = []string{config.TemplatePosts, config.TemplateCard}

type listingData struct {
	*model.PageData
	listing.View
	Query string
}

func newListingData(r *http.Request, s *session.State) listingData {
	return listingData{
		PageData: model.NewPageData(r, s.Notifier.Current()),
		View:     s.Listing.View(s.Search.Results()),
		Query:    s.Search.Query(),
	}
}

// pageParam reads the zero-based page index, falling back to the page the
// session last showed.
func pageParam(r *http.Request, s *session.State) int {
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return s.Listing.PageIndex()
}

// load fetches a page. Backend failures are already shown to the author as
// a notification, so the previous page is rendered as is.
func load(r *http.Request, s *session.State, page int) {
	if err := s.Listing.Load(r.Context(), page); err != nil && !errors.Is(err, listing.ErrStale) {
		handlerLogger.Debug().Err(err).Int("page", page).Msg("Listing load failed")
	}
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	s := state(r)
	load(r, s, pageParam(r, s))
	h.renderPage(w, r, newListingData(r, s), append([]string{config.TemplateIndex}, postsTemplates...)...)
}

func (h *Handler) renderPosts(w http.ResponseWriter, r *http.Request, s *session.State) {
	h.render(w, r, http.StatusOK, "posts", newListingData(r, s), postsTemplates...)
}

func (h *Handler) partialPosts(w http.ResponseWriter, r *http.Request) {
	s := state(r)
	page := pageParam(r, s)
	if err := s.Listing.PageSelect(r.Context(), page); err != nil && !errors.Is(err, listing.ErrStale) {
		handlerLogger.Debug().Err(err).Int("page", page).Msg("Page select failed")
	}
	h.renderPosts(w, r, s)
}

// deletePost removes a post once the browser has confirmed with the author.
// Without confirmed=true nothing is sent to the backend.
func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	s := state(r)
	post := model.Post{ID: model.PostID(r.PathValue("id"))}
	confirm := listing.ConfirmFunc(func(string) bool {
		return deleteConfirmed(w, r)
	})

	if err := s.Listing.Delete(r.Context(), post, confirm); err != nil {
		handlerLogger.Debug().Err(err).Str("id", string(post.ID)).Msg("Delete failed")
	}
	h.renderPosts(w, r, s)
}

// deleteConfirmed looks for confirmed=true in the query and in a form-encoded
// body. ParseForm skips the body of DELETE requests, which is where htmx 1.x
// puts hx-vals.
func deleteConfirmed(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Query().Get("confirmed") == "true" {
		return true
	}
	if r.Body == nil || !strings.HasPrefix(r.Header.Get(config.HCType), config.CTypeForm) {
		return false
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormSize))
	if err != nil {
		return false
	}
	values, err := url.ParseQuery(string(body))
	return err == nil && values.Get("confirmed") == "true"
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	s := state(r)
	if err := s.Search.Search(r.Context(), r.URL.Query().Get("title")); err != nil {
		handlerLogger.Debug().Err(err).Msg("Search failed")
	}

	if isHtmx(r) {
		h.renderPosts(w, r, s)
		return
	}
	load(r, s, s.Listing.PageIndex())
	h.renderPage(w, r, newListingData(r, s), append([]string{config.TemplateIndex}, postsTemplates...)...)
}

func (h *Handler) searchClear(w http.ResponseWriter, r *http.Request) {
	s := state(r)
	s.Search.Clear()
	h.renderPosts(w, r, s)
}
