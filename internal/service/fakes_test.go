package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go-product-admin/internal/model"
	"go-product-admin/internal/ws"
)

type fakeProducts struct {
	mu        sync.Mutex
	product   *model.Product
	err       error
	created   []model.ProductPayload
	updated   []model.ProductPayload
	files     []model.StagedFile
	deletions []string
	calls     int
	block     chan struct{} // when set, create/update wait on it
}

func (f *fakeProducts) record(p model.ProductPayload, files []model.StagedFile, update bool) (*model.Product, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.files = files
	if update {
		f.updated = append(f.updated, p)
	} else {
		f.created = append(f.created, p)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.Product{ID: "42", Name: p.Name}, nil
}

func (f *fakeProducts) CreateProduct(_ context.Context, p model.ProductPayload, files []model.StagedFile) (*model.Product, error) {
	return f.record(p, files, false)
}

func (f *fakeProducts) UpdateProduct(_ context.Context, _ string, p model.ProductPayload, files []model.StagedFile, deletions []string) (*model.Product, error) {
	f.mu.Lock()
	f.deletions = deletions
	f.mu.Unlock()
	return f.record(p, files, true)
}

func (f *fakeProducts) GetProduct(context.Context, string) (*model.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.product, nil
}

func (f *fakeProducts) ListProducts(context.Context) ([]model.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return nil, nil
}

func (f *fakeProducts) DeleteProduct(context.Context, string) error { return f.err }

func (f *fakeProducts) UpdateStock(_ context.Context, id string, u model.StockUpdate) (*model.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Product{ID: model.RefID(id), Inventory: model.InventoryPayload{Quantity: u.Quantity}}, nil
}

func (f *fakeProducts) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRefs struct {
	mu         sync.Mutex
	categories []model.Candidate
	vendors    []model.Candidate
	err        error
	listCalls  int
}

func (f *fakeRefs) ListCategories(context.Context) ([]model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.categories, f.err
}

func (f *fakeRefs) ListVendors(context.Context) ([]model.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.vendors, f.err
}

func (f *fakeRefs) CreateCategory(_ context.Context, nc model.NewCategory) (*model.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Candidate{ID: "99", Name: nc.Name}, nil
}

type recorder struct {
	mu     sync.Mutex
	events []ws.Event
}

func (r *recorder) Publish(e ws.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *mapCache) Set(_ context.Context, key string, data interface{}, _ time.Duration) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = b
	c.mu.Unlock()
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
	return nil
}

func (c *mapCache) DeleteByPattern(context.Context, string) error {
	c.mu.Lock()
	c.data = map[string][]byte{}
	c.mu.Unlock()
	return nil
}
