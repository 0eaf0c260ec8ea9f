// Package model defines core data structures and types for the admin application.
package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/debemdeboas/the-archive-admin/internal/config"
)

type PostID string

// Post is a blog post as exchanged with the backend.
type Post struct {
	ID        PostID    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Content   string    `json:"content"`
	Meta      string    `json:"meta"`
	Tags      []string  `json:"tags"`
	Featured  bool      `json:"featured"`
	CreatedAt time.Time `json:"createdAt"`
}

const cardMetaLength = 80

func (p Post) ThumbnailOrBlank() string {
	if p.Thumbnail == "" {
		return config.BlankThumbnail
	}
	return p.Thumbnail
}

// ShortMeta is the card excerpt: the first 80 characters followed by "...".
func (p Post) ShortMeta() string {
	meta := p.Meta
	if utf8.RuneCountInString(meta) > cardMetaLength {
		meta = string([]rune(meta)[:cardMetaLength])
	}
	return meta + "..."
}

func (p Post) CreatedDate() string {
	if p.CreatedAt.IsZero() {
		return ""
	}
	return p.CreatedAt.Format("Jan 2, 2006")
}

func (p Post) TagList() string {
	return strings.Join(p.Tags, ", ")
}

// Without returns posts minus the one with the given id, preserving order.
func Without(posts []Post, id PostID) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
