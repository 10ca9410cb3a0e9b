package service

import (
	"context"
	"log/slog"

	"go-product-admin/internal/client"
	"go-product-admin/internal/model"
	"go-product-admin/internal/ws"
	"go-product-admin/pkg/apperr"
	"go-product-admin/pkg/validator"
)

// ProductService passes listing, deletion and stock changes through to the
// backend.
type ProductService interface {
	List(ctx context.Context) ([]model.Product, error)
	Delete(ctx context.Context, id, userID string) error
	UpdateStock(ctx context.Context, id string, u model.StockUpdate, userID string) (*model.Product, error)
}

type productService struct {
	api    client.ProductAPI
	events Broadcaster
}

func NewProductService(api client.ProductAPI, events Broadcaster) ProductService {
	return &productService{api: api, events: events}
}

func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.api.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) Delete(ctx context.Context, id, userID string) error {
	if err := s.api.DeleteProduct(ctx, id); err != nil {
		return err
	}
	slog.Info("product deleted", "product_id", id, "user_id", userID)
	s.events.Publish(ws.Event{Type: ws.EventProductDeleted, ProductID: id})
	return nil
}

func (s *productService) UpdateStock(ctx context.Context, id string, u model.StockUpdate, userID string) (*model.Product, error) {
	if errs := validator.ValidateStruct(&u); len(errs) > 0 {
		return nil, apperr.InvalidErr(errs[0].Message, validator.FieldMessages(errs))
	}
	p, err := s.api.UpdateStock(ctx, id, u)
	if err != nil {
		return nil, err
	}
	slog.Info("stock updated", "product_id", id, "quantity", u.Quantity, "user_id", userID)
	s.events.Publish(ws.Event{
		Type:      ws.EventProductUpdated,
		ProductID: id,
		Data:      map[string]interface{}{"quantity": u.Quantity},
	})
	return p, nil
}
