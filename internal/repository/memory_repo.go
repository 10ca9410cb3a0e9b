package repository

import (
	"encoding/json"
	"sync"
	"time"

	"go-product-admin/internal/model"

	"github.com/google/uuid"
)

// memoryDraftRepo stores serialized sessions so callers never share slices
// or maps with the stored copy. Staged files sit beside the serialized state
// and share their bytes, which never change once staged.
type memoryDraftRepo struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]memoryEntry
}

type memoryEntry struct {
	state     []byte
	files     []model.StagedFile
	updatedAt time.Time
}

func NewMemoryDraftRepo() DraftRepository {
	return &memoryDraftRepo{drafts: make(map[uuid.UUID]memoryEntry)}
}

func (r *memoryDraftRepo) Save(s *model.DraftSession) error {
	withoutFiles := *s
	withoutFiles.Files = nil
	state, err := json.Marshal(&withoutFiles)
	if err != nil {
		return err
	}
	files := append([]model.StagedFile{}, s.Files...)
	r.mu.Lock()
	r.drafts[s.ID] = memoryEntry{state: state, files: files, updatedAt: s.UpdatedAt}
	r.mu.Unlock()
	return nil
}

func (r *memoryDraftRepo) FindByID(id uuid.UUID) (*model.DraftSession, error) {
	r.mu.RLock()
	e, ok := r.drafts[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	var s model.DraftSession
	if err := json.Unmarshal(e.state, &s); err != nil {
		return nil, err
	}
	s.Files = append([]model.StagedFile{}, e.files...)
	return &s, nil
}

func (r *memoryDraftRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	delete(r.drafts, id)
	r.mu.Unlock()
	return nil
}

func (r *memoryDraftRepo) PurgeOlderThan(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, e := range r.drafts {
		if e.updatedAt.Before(cutoff) {
			delete(r.drafts, id)
			n++
		}
	}
	return n, nil
}
