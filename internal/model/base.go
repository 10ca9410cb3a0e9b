package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BaseModel handles the UUID key and audit columns.
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	CreatedBy string `json:"created_by"`
	UpdatedBy string `json:"updated_by"`
}

// BeforeCreate keeps a caller-assigned id and only fills a missing one.
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
	return
}

// DraftRecord stores a whole DraftSession as JSON for the gorm-backed store.
type DraftRecord struct {
	BaseModel
	ProductID  string         `gorm:"type:varchar(64);index" json:"product_id"`
	Submitting bool           `gorm:"default:false" json:"submitting"`
	State      datatypes.JSON `gorm:"type:jsonb;not null" json:"state"`
}

func (DraftRecord) TableName() string {
	return "product_drafts"
}
