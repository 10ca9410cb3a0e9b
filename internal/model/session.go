package model

import (
	"time"

	"github.com/google/uuid"
)

// StagedFile is an image added during the session and not yet uploaded.
type StagedFile struct {
	Handle      string `json:"handle"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// DraftSession is everything the form owns between opening and submitting:
// the draft plus the staging metadata that travels with it on submit.
type DraftSession struct {
	ID        uuid.UUID    `json:"id"`
	ProductID string       `json:"productId,omitempty"`
	Draft     ProductDraft `json:"draft"`

	Files     []StagedFile `json:"files"`
	Deletions []string     `json:"deletions"`
	// OriginalImages maps persisted image id -> remote URL as fetched.
	OriginalImages map[string]string `json:"originalImages,omitempty"`

	Touched    []string `json:"touched,omitempty"`
	Submitting bool     `json:"submitting"`

	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *DraftSession) IsUpdate() bool { return s.ProductID != "" }

func (s *DraftSession) File(handle string) (StagedFile, bool) {
	for _, f := range s.Files {
		if f.Handle == handle {
			return f, true
		}
	}
	return StagedFile{}, false
}
