package repository

import (
	"encoding/json"
	"errors"
	"time"

	"go-product-admin/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDraftNotFound = errors.New("draft not found")

// DraftRepository keeps draft sessions between requests. FindByID returns a
// copy; callers Save to persist changes.
type DraftRepository interface {
	Save(s *model.DraftSession) error
	FindByID(id uuid.UUID) (*model.DraftSession, error)
	Delete(id uuid.UUID) error
	PurgeOlderThan(cutoff time.Time) (int64, error)
}

type draftRepo struct {
	db *gorm.DB
}

func NewDraftRepo(db *gorm.DB) DraftRepository {
	return &draftRepo{db}
}

func (r *draftRepo) Save(s *model.DraftSession) error {
	state, err := json.Marshal(s)
	if err != nil {
		return err
	}
	rec := model.DraftRecord{
		BaseModel: model.BaseModel{
			ID:        s.ID,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
			CreatedBy: s.CreatedBy,
			UpdatedBy: s.CreatedBy,
		},
		ProductID:  s.ProductID,
		Submitting: s.Submitting,
		State:      datatypes.JSON(state),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"product_id", "submitting", "state", "updated_at", "updated_by"}),
	}).Create(&rec).Error
}

func (r *draftRepo) FindByID(id uuid.UUID) (*model.DraftSession, error) {
	var rec model.DraftRecord
	err := r.db.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	var s model.DraftSession
	if err := json.Unmarshal(rec.State, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *draftRepo) Delete(id uuid.UUID) error {
	return r.db.Unscoped().Delete(&model.DraftRecord{}, "id = ?", id).Error
}

// PurgeOlderThan hard-deletes drafts untouched since cutoff and reports how
// many went.
func (r *draftRepo) PurgeOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Unscoped().Where("updated_at < ?", cutoff).Delete(&model.DraftRecord{})
	return res.RowsAffected, res.Error
}
