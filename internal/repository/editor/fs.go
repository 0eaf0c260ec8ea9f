package editor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/debemdeboas/the-archive-admin/internal/util"
	"github.com/debemdeboas/the-archive-admin/internal/util/compression"
)

// FSRepository keeps one compressed file per draft under dir.
type FSRepository struct {
	dir        string
	compressor compression.Compressor
}

func NewFSRepository(dir string, compressor compression.Compressor) (*FSRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating draft directory %s: %w", dir, err)
	}
	if compressor == nil {
		compressor = compression.NoopCompressor{}
	}
	return &FSRepository{dir: dir, compressor: compressor}, nil
}

// Session ids come from a cookie, so they are hashed before touching the
// filesystem.
func (r *FSRepository) path(id DraftID) string {
	return filepath.Join(r.dir, util.ContentHashString(id.Session)+"-"+id.Key+".draft")
}

func (r *FSRepository) SaveDraft(id DraftID, content []byte) error {
	compressed, err := r.compressor.Compress(content)
	if err != nil {
		return fmt.Errorf("error compressing draft: %w", err)
	}

	tmp := r.path(id) + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o600); err != nil {
		return fmt.Errorf("error writing draft %s: %w", id, err)
	}
	return os.Rename(tmp, r.path(id))
}

func (r *FSRepository) GetDraft(id DraftID) (*Draft, error) {
	p := r.path(id)
	compressed, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading draft %s: %w", id, err)
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing draft %s: %w", id, err)
	}

	draft := &Draft{ID: id, Content: content}
	if info, err := os.Stat(p); err == nil {
		draft.ModifiedAt = info.ModTime()
	}
	return draft, nil
}

func (r *FSRepository) DeleteDraft(id DraftID) error {
	err := os.Remove(r.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error deleting draft %s: %w", id, err)
	}
	return nil
}

func (r *FSRepository) Prune(before time.Time) (int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0, fmt.Errorf("error listing drafts: %w", err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".draft" {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(before) {
			continue
		}
		if err := os.Remove(filepath.Join(r.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return n, fmt.Errorf("error pruning %s: %w", e.Name(), err)
		}
		n++
	}
	return n, nil
}
