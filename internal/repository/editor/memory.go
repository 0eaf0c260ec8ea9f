package editor

import (
	"sync"
	"time"
)

type MemoryRepository struct {
	drafts sync.Map
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) SaveDraft(id DraftID, content []byte) error {
	buf := make([]byte, len(content))
	copy(buf, content)

	m.drafts.Store(id, &Draft{
		ID:         id,
		Content:    buf,
		ModifiedAt: time.Now(),
	})
	return nil
}

func (m *MemoryRepository) GetDraft(id DraftID) (*Draft, error) {
	if draft, ok := m.drafts.Load(id); ok {
		return draft.(*Draft), nil
	}
	return nil, ErrDraftNotFound
}

func (m *MemoryRepository) DeleteDraft(id DraftID) error {
	m.drafts.Delete(id)
	return nil
}

func (m *MemoryRepository) Prune(before time.Time) (int, error) {
	n := 0
	m.drafts.Range(func(key, value any) bool {
		if value.(*Draft).ModifiedAt.Before(before) {
			m.drafts.Delete(key)
			n++
		}
		return true
	})
	return n, nil
}
