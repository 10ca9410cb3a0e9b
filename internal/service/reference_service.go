package service

import (
	"context"
	"log/slog"
	"time"

	"go-product-admin/internal/cache"
	"go-product-admin/internal/client"
	"go-product-admin/internal/model"
	"go-product-admin/pkg/apperr"
	"go-product-admin/pkg/validator"

	"golang.org/x/sync/errgroup"
)

type ReferenceService interface {
	All(ctx context.Context) (*model.References, error)
	Categories(ctx context.Context) ([]model.Candidate, error)
	Vendors(ctx context.Context) ([]model.Candidate, error)
	Tags() []string
	CreateCategory(ctx context.Context, nc model.NewCategory) (*model.Candidate, error)
	Refresh(ctx context.Context) error
}

type referenceService struct {
	api   client.ReferenceAPI
	cache cache.Cache
	ttl   time.Duration
	tags  []string
}

func NewReferenceService(api client.ReferenceAPI, c cache.Cache, ttl time.Duration, tags []string) ReferenceService {
	if c == nil {
		c = cache.Nop{}
	}
	return &referenceService{api: api, cache: c, ttl: ttl, tags: tags}
}

// All fetches categories and vendors concurrently; either failing fails the
// whole call.
func (s *referenceService) All(ctx context.Context) (*model.References, error) {
	refs := &model.References{Tags: s.Tags()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		refs.Categories, err = s.Categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		refs.Vendors, err = s.Vendors(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

func (s *referenceService) Categories(ctx context.Context) ([]model.Candidate, error) {
	return s.cached(ctx, cache.CategoriesKey, s.api.ListCategories)
}

func (s *referenceService) Vendors(ctx context.Context) ([]model.Candidate, error) {
	return s.cached(ctx, cache.VendorsKey, s.api.ListVendors)
}

func (s *referenceService) Tags() []string {
	return append([]string{}, s.tags...)
}

func (s *referenceService) CreateCategory(ctx context.Context, nc model.NewCategory) (*model.Candidate, error) {
	if errs := validator.ValidateStruct(&nc); len(errs) > 0 {
		return nil, apperr.InvalidErr(errs[0].Message, validator.FieldMessages(errs))
	}
	cand, err := s.api.CreateCategory(ctx, nc)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Delete(ctx, cache.CategoriesKey); err != nil {
		slog.Warn("reference cache: invalidate", "key", cache.CategoriesKey, "err", err)
	}
	slog.Info("category created", "category_id", cand.ID, "user_id", nc.UserID)
	return cand, nil
}

// Refresh drops every cached reference list so the next read goes to the
// backend.
func (s *referenceService) Refresh(ctx context.Context) error {
	if err := s.cache.DeleteByPattern(ctx, cache.RefsPattern); err != nil {
		return apperr.Wrap(err)
	}
	slog.Info("reference cache cleared")
	return nil
}

// cached serves key from the cache, falling back to fetch on a miss. Cache
// failures are logged and otherwise ignored.
func (s *referenceService) cached(ctx context.Context, key string, fetch func(context.Context) ([]model.Candidate, error)) ([]model.Candidate, error) {
	var out []model.Candidate
	hit, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		slog.Warn("reference cache: get", "key", key, "err", err)
	}
	if hit {
		return out, nil
	}

	out, err = fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
		slog.Warn("reference cache: set", "key", key, "err", err)
	}
	return out, nil
}
