package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-product-admin/internal/client"
	"go-product-admin/internal/form"
	"go-product-admin/internal/model"
	"go-product-admin/internal/payload"
	"go-product-admin/internal/repository"
	"go-product-admin/internal/ws"
	"go-product-admin/pkg/apperr"

	"github.com/google/uuid"
)

// PendingImagePath is where the API serves a draft's staged image bytes.
const PendingImagePath = "/api/v1/drafts/%s/images/pending"

// Broadcaster receives lifecycle events. *ws.Hub satisfies it.
type Broadcaster interface {
	Publish(e ws.Event)
}

// DraftView is what the API returns for a draft: the draft itself plus the
// derived image previews and the touched-field errors.
type DraftView struct {
	ID         uuid.UUID          `json:"id"`
	ProductID  string             `json:"productId,omitempty"`
	Draft      model.ProductDraft `json:"draft"`
	Images     []form.Preview     `json:"images"`
	Errors     map[string]string  `json:"errors"`
	Deletions  []string           `json:"deletions"`
	Submitting bool               `json:"submitting"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

type DraftService interface {
	Open(ctx context.Context, productID, userID string) (*DraftView, error)
	Get(id uuid.UUID, userID string) (*DraftView, error)
	Patch(id uuid.UUID, userID string, patch []byte) (*DraftView, error)
	Discard(id uuid.UUID, userID string) error
	Validate(id uuid.UUID, userID string, all bool) (map[string]string, error)
	GenerateVariants(id uuid.UUID, userID string, preserve bool) (*DraftView, error)
	UpdateVariant(id uuid.UUID, userID string, index int, patch []byte) (*DraftView, error)
	AddImages(id uuid.UUID, userID string, files []model.StagedFile) (*DraftView, error)
	RemoveImage(id uuid.UUID, userID string, index int) (*DraftView, error)
	SetPrimaryImage(id uuid.UUID, userID string, index int) (*DraftView, error)
	SetImageAlt(id uuid.UUID, userID string, index int, alt string) (*DraftView, error)
	PendingImage(id uuid.UUID, userID, handle string) (*model.StagedFile, error)
	Submit(ctx context.Context, id uuid.UUID, userID, userName string) (*model.Product, error)
	PurgeStale(maxAge time.Duration) (int64, error)
}

type draftService struct {
	mu          sync.Mutex
	repo        repository.DraftRepository
	products    client.ProductAPI
	events      Broadcaster
	mediaBase   string
	maxVariants int
}

// NewDraftService wires the draft operations. maxVariants caps one variant
// generation; <= 0 means form.DefaultMaxVariants.
func NewDraftService(repo repository.DraftRepository, products client.ProductAPI, events Broadcaster, mediaBase string, maxVariants int) DraftService {
	return &draftService{
		repo:        repo,
		products:    products,
		events:      events,
		mediaBase:   mediaBase,
		maxVariants: maxVariants,
	}
}

// Open starts a draft: empty for a new product, or hydrated from the backend
// when productID is set.
func (s *draftService) Open(ctx context.Context, productID, userID string) (*DraftView, error) {
	var sess *model.DraftSession
	if productID == "" {
		sess = form.Open(nil, "", nil)
	} else {
		p, err := s.products.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		d, originals := payload.ToDraft(*p)
		sess = form.Open(&d, productID, originals)
	}
	sess.CreatedBy = userID

	if err := s.repo.Save(sess); err != nil {
		return nil, apperr.Wrap(err)
	}
	slog.Info("draft opened", "draft_id", sess.ID, "product_id", productID, "user_id", userID)
	s.events.Publish(ws.Event{Type: ws.EventDraftOpened, DraftID: sess.ID.String(), ProductID: productID})
	return s.view(sess), nil
}

func (s *draftService) Get(id uuid.UUID, userID string) (*DraftView, error) {
	sess, err := s.load(id, userID)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *draftService) Patch(id uuid.UUID, userID string, patch []byte) (*DraftView, error) {
	return s.mutate(id, userID, func(f *form.Form) error {
		return f.Apply(patch)
	})
}

func (s *draftService) Discard(id uuid.UUID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.load(id, userID)
	if err != nil {
		return err
	}
	if sess.Submitting {
		return apperr.ConflictErr("This product is being saved. Please wait.")
	}
	if err := s.repo.Delete(id); err != nil {
		return apperr.Wrap(err)
	}
	return nil
}

// Validate returns field errors for touched fields, or for every field when
// all is set.
func (s *draftService) Validate(id uuid.UUID, userID string, all bool) (map[string]string, error) {
	sess, err := s.load(id, userID)
	if err != nil {
		return nil, err
	}
	f := form.New(sess)
	if !all {
		return f.ValidateTouched(), nil
	}
	if err := f.Validate(); err != nil {
		if ae, ok := apperr.As(err); ok && ae.Kind == apperr.Invalid {
			return ae.Fields, nil
		}
		return nil, err
	}
	return map[string]string{}, nil
}

func (s *draftService) GenerateVariants(id uuid.UUID, userID string, preserve bool) (*DraftView, error) {
	var n int
	v, err := s.mutate(id, userID, func(f *form.Form) error {
		var err error
		n, err = f.GenerateVariants(preserve, s.maxVariants)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(ws.Event{
		Type:      ws.EventVariantsGenerated,
		DraftID:   id.String(),
		ProductID: v.ProductID,
		Data:      map[string]interface{}{"count": n, "preserve": preserve},
	})
	return v, nil
}

func (s *draftService) UpdateVariant(id uuid.UUID, userID string, index int, patch []byte) (*DraftView, error) {
	return s.mutate(id, userID, func(f *form.Form) error {
		return f.UpdateVariant(index, patch)
	})
}

func (s *draftService) AddImages(id uuid.UUID, userID string, files []model.StagedFile) (*DraftView, error) {
	if len(files) == 0 {
		return nil, apperr.InvalidErr("No images were uploaded", nil)
	}
	return s.mutate(id, userID, func(f *form.Form) error {
		f.AddImages(files...)
		return nil
	})
}

func (s *draftService) RemoveImage(id uuid.UUID, userID string, index int) (*DraftView, error) {
	return s.mutate(id, userID, func(f *form.Form) error {
		return f.RemoveImage(index)
	})
}

func (s *draftService) SetPrimaryImage(id uuid.UUID, userID string, index int) (*DraftView, error) {
	return s.mutate(id, userID, func(f *form.Form) error {
		return f.SetPrimary(index)
	})
}

func (s *draftService) SetImageAlt(id uuid.UUID, userID string, index int, alt string) (*DraftView, error) {
	return s.mutate(id, userID, func(f *form.Form) error {
		return f.SetImageAlt(index, alt)
	})
}

func (s *draftService) PendingImage(id uuid.UUID, userID, handle string) (*model.StagedFile, error) {
	sess, err := s.load(id, userID)
	if err != nil {
		return nil, err
	}
	file, ok := sess.File(handle)
	if !ok {
		return nil, apperr.NotFoundErr("Image not found")
	}
	return &file, nil
}

// Submit validates the draft, sends it to the backend and removes it on
// success. Nothing is sent if validation fails. On a backend failure the
// draft is kept as it was so the user can retry.
func (s *draftService) Submit(ctx context.Context, id uuid.UUID, userID, userName string) (*model.Product, error) {
	sub, err := s.beginSubmit(id, userID)
	if err != nil {
		return nil, err
	}

	var product *model.Product
	if sub.IsUpdate() {
		product, err = s.products.UpdateProduct(ctx, sub.ProductID, sub.Payload, sub.Files, sub.Deletions)
	} else {
		product, err = s.products.CreateProduct(ctx, sub.Payload, sub.Files)
	}
	if err != nil {
		s.abortSubmit(id, err)
		return nil, err
	}

	s.mu.Lock()
	delErr := s.repo.Delete(id)
	s.mu.Unlock()
	if delErr != nil {
		slog.Error("submit: drop draft", "draft_id", id, "err", delErr)
	}

	evt := ws.EventProductCreated
	if sub.IsUpdate() {
		evt = ws.EventProductUpdated
	}
	slog.Info("product saved", "action", evt, "draft_id", id, "product_id", product.ID, "user_id", userID)
	s.events.Publish(ws.Event{
		Type:      evt,
		DraftID:   id.String(),
		ProductID: product.ID.String(),
		Data: map[string]interface{}{
			"name":    product.Name,
			"message": fmt.Sprintf("%s saved product '%s'", userName, product.Name),
		},
	})
	return product, nil
}

func (s *draftService) beginSubmit(id uuid.UUID, userID string) (payload.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(id, userID)
	if err != nil {
		return payload.Submission{}, err
	}
	if sess.Submitting {
		return payload.Submission{}, apperr.ConflictErr("This product is already being saved")
	}
	if err := form.New(sess).Validate(); err != nil {
		return payload.Submission{}, err
	}
	sub, err := payload.Build(sess)
	if err != nil {
		return payload.Submission{}, err
	}

	// Submitting counts as activity, so the purge keeps the draft.
	sess.Submitting = true
	sess.UpdatedAt = time.Now()
	if err := s.repo.Save(sess); err != nil {
		return payload.Submission{}, apperr.Wrap(err)
	}
	return sub, nil
}

func (s *draftService) abortSubmit(id uuid.UUID, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slog.Warn("submit failed", "draft_id", id, "err", cause)
	sess, err := s.find(id)
	if err != nil {
		slog.Error("submit: reload draft", "draft_id", id, "err", err)
		return
	}
	sess.Submitting = false
	if err := s.repo.Save(sess); err != nil {
		slog.Error("submit: release draft", "draft_id", id, "err", err)
	}
	s.events.Publish(ws.Event{
		Type:      ws.EventSubmitFailed,
		DraftID:   id.String(),
		ProductID: sess.ProductID,
		Data:      map[string]interface{}{"error": apperr.PublicMessage(cause)},
	})
}

func (s *draftService) PurgeStale(maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.PurgeOlderThan(time.Now().Add(-maxAge))
}

// mutate loads the draft, applies fn through a Form and saves the result.
// A failing fn leaves the stored draft untouched.
func (s *draftService) mutate(id uuid.UUID, userID string, fn func(f *form.Form) error) (*DraftView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.load(id, userID)
	if err != nil {
		return nil, err
	}
	if sess.Submitting {
		return nil, apperr.ConflictErr("This product is being saved. Please wait.")
	}
	if err := fn(form.New(sess)); err != nil {
		return nil, err
	}
	if err := s.repo.Save(sess); err != nil {
		return nil, apperr.Wrap(err)
	}
	return s.view(sess), nil
}

// load returns the draft only to the user who opened it. Anyone else gets
// the same NotFound as for a missing draft.
func (s *draftService) load(id uuid.UUID, userID string) (*model.DraftSession, error) {
	sess, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if sess.CreatedBy == "" || sess.CreatedBy != userID {
		return nil, apperr.NotFoundErr("Draft not found")
	}
	return sess, nil
}

func (s *draftService) find(id uuid.UUID) (*model.DraftSession, error) {
	sess, err := s.repo.FindByID(id)
	if errors.Is(err, repository.ErrDraftNotFound) {
		return nil, apperr.NotFoundErr("Draft not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return sess, nil
}

func (s *draftService) view(sess *model.DraftSession) *DraftView {
	f := form.New(sess)
	return &DraftView{
		ID:         sess.ID,
		ProductID:  sess.ProductID,
		Draft:      sess.Draft,
		Images:     f.Previews(s.mediaBase, fmt.Sprintf(PendingImagePath, sess.ID)),
		Errors:     f.ValidateTouched(),
		Deletions:  sess.Deletions,
		Submitting: sess.Submitting,
		UpdatedAt:  sess.UpdatedAt,
	}
}
