package model

// Candidate is a selectable reference entity (category or vendor).
type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type References struct {
	Categories []Candidate `json:"categories"`
	Vendors    []Candidate `json:"vendors"`
	Tags       []string    `json:"tags"`
}

type NewCategory struct {
	Name           string      `json:"name" validate:"required,notblank"`
	ParentCategory string      `json:"parentCategory,omitempty" validate:"omitempty,numeric"`
	UserID         string      `json:"userId" validate:"required"`
	Image          *StagedFile `json:"-"`
}
