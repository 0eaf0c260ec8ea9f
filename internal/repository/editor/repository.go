// Package editor stores per-session authoring drafts.
package editor

import (
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/the-archive-admin/internal/config"
	"github.com/debemdeboas/the-archive-admin/internal/db"
	"github.com/debemdeboas/the-archive-admin/internal/util/compression"
	"github.com/rs/zerolog"
)

// BlogPostKey is the slot the post form autosaves into.
const BlogPostKey = "blogPost"

var ErrDraftNotFound = errors.New("draft not found")

// DraftID addresses one draft slot of one author session.
type DraftID struct {
	Session string
	Key     string
}

func BlogPostDraft(session string) DraftID {
	return DraftID{Session: session, Key: BlogPostKey}
}

func (id DraftID) String() string {
	return id.Session + "/" + id.Key
}

type Draft struct {
	ID         DraftID
	Content    []byte
	ModifiedAt time.Time
}

type Repository interface {
	SaveDraft(id DraftID, content []byte) error
	GetDraft(id DraftID) (*Draft, error)
	DeleteDraft(id DraftID) error
}

// Pruner drops drafts last written before a cutoff and reports how many.
type Pruner interface {
	Prune(before time.Time) (int, error)
}

var editorLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

// New builds the draft store selected by cfg.Backend. The returned close
// function releases backend resources and is never nil.
func New(cfg config.DraftsConfig) (Repository, func() error, error) {
	noop := func() error { return nil }

	compressor, err := compression.New(cfg.Compression)
	if err != nil {
		return nil, noop, err
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryRepository(), noop, nil
	case "sqlite":
		conn := db.NewSQLite(cfg.Path)
		if err := conn.InitDB(); err != nil {
			conn.Close()
			return nil, noop, fmt.Errorf(config.ErrInitializeDatabaseFmt, err)
		}
		return NewDBRepository(conn, compressor), conn.Close, nil
	case "fs":
		repo, err := NewFSRepository(cfg.Path, compressor)
		if err != nil {
			return nil, noop, err
		}
		return repo, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown draft backend %q", cfg.Backend)
	}
}
