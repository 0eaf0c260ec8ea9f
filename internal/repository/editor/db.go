package editor

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/the-archive-admin/internal/db"
	"github.com/debemdeboas/the-archive-admin/internal/util/compression"
)

type DBRepository struct {
	db         db.DB
	compressor compression.Compressor
}

func NewDBRepository(conn db.DB, compressor compression.Compressor) *DBRepository {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}
	return &DBRepository{
		db:         conn,
		compressor: compressor,
	}
}

func (r *DBRepository) SaveDraft(id DraftID, content []byte) error {
	compressed, err := r.compressor.Compress(content)
	if err != nil {
		return fmt.Errorf("error compressing draft: %w", err)
	}

	_, err = r.db.Exec(`
INSERT INTO drafts (session_id, key, content, modified_at) VALUES (?, ?, ?, ?)
ON CONFLICT(session_id, key) DO UPDATE SET content = excluded.content, modified_at = excluded.modified_at`,
		id.Session, id.Key, compressed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("error saving draft %s: %w", id, err)
	}

	editorLogger.Debug().Str("draft", id.String()).Int("size", len(compressed)).Msg("Draft saved")
	return nil
}

func (r *DBRepository) GetDraft(id DraftID) (*Draft, error) {
	var compressed []byte
	var modified time.Time

	err := r.db.QueryRow(`SELECT content, modified_at FROM drafts WHERE session_id = ? AND key = ?`, id.Session, id.Key).
		Scan(&compressed, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading draft %s: %w", id, err)
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing draft %s: %w", id, err)
	}

	return &Draft{ID: id, Content: content, ModifiedAt: modified}, nil
}

func (r *DBRepository) DeleteDraft(id DraftID) error {
	if _, err := r.db.Exec(`DELETE FROM drafts WHERE session_id = ? AND key = ?`, id.Session, id.Key); err != nil {
		return fmt.Errorf("error deleting draft %s: %w", id, err)
	}
	return nil
}

func (r *DBRepository) Prune(before time.Time) (int, error) {
	res, err := r.db.Exec(`DELETE FROM drafts WHERE modified_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("error pruning drafts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	editorLogger.Debug().Int64("count", n).Time("before", before).Msg("Drafts pruned")
	return int(n), nil
}
