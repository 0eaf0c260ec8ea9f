// Package search keeps the author's current search overlay for the post
// listing.
package search

import (
	"context"
	"strings"
	"sync"

	"github.com/debemdeboas/the-archive-admin/internal/model"
)

type Searcher interface {
	SearchPosts(ctx context.Context, query string) ([]model.Post, error)
}

type Notifier interface {
	Notify(kind model.NotificationKind, message string)
}

type State struct {
	mu       sync.RWMutex
	api      Searcher
	notifier Notifier
	query    string
	results  []model.Post
}

func New(api Searcher, notifier Notifier) *State {
	return &State{api: api, notifier: notifier}
}

// Search replaces the results with the posts matching query. A blank query
// clears the overlay. On failure the author is notified and the previous
// results stay.
func (s *State) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		s.Clear()
		return nil
	}

	posts, err := s.api.SearchPosts(ctx, query)
	if err != nil {
		s.notifier.Notify(model.KindError, err.Error())
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.results = posts
	return nil
}

func (s *State) Query() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

func (s *State) Results() []model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Post, len(s.results))
	copy(out, s.results)
	return out
}

func (s *State) Remove(id model.PostID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = model.Without(s.results, id)
}

func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ""
	s.results = nil
}
