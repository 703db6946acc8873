// Package memory provides in-process implementations of the repository
// interfaces for tests and local runs without MongoDB.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

// Store holds every collection behind one lock.
type Store struct {
	mu         sync.RWMutex
	products   map[primitive.ObjectID]models.Product
	categories map[primitive.ObjectID]models.Category
	carts      map[primitive.ObjectID]models.Cart
	orders     map[primitive.ObjectID]models.Order
	users      map[primitive.ObjectID]models.User
	tokens     map[primitive.ObjectID]models.RefreshToken
}

func New() *Store {
	return &Store{
		products:   make(map[primitive.ObjectID]models.Product),
		categories: make(map[primitive.ObjectID]models.Category),
		carts:      make(map[primitive.ObjectID]models.Cart),
		orders:     make(map[primitive.ObjectID]models.Order),
		users:      make(map[primitive.ObjectID]models.User),
		tokens:     make(map[primitive.ObjectID]models.RefreshToken),
	}
}

func (s *Store) Products() *ProductStore           { return &ProductStore{s} }
func (s *Store) Categories() *CategoryStore        { return &CategoryStore{s} }
func (s *Store) Carts() *CartStore                 { return &CartStore{s} }
func (s *Store) Orders() *OrderStore               { return &OrderStore{s} }
func (s *Store) Users() *UserStore                 { return &UserStore{s} }
func (s *Store) RefreshTokens() *RefreshTokenStore { return &RefreshTokenStore{s} }

// Transactor runs fn directly; the memory store has no rollback.
type Transactor struct{}

// Enabled is false so callers fall back to compensating actions.
func (Transactor) Enabled() bool { return false }

func (Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type ProductStore struct{ s *Store }

func cloneProduct(p models.Product) models.Product {
	p.Images = append(models.StringList{}, p.Images...)
	p.Normalize()
	return p
}

func (r *ProductStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	product, ok := r.s.products[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "product %s not found", id.Hex())
	}
	product = cloneProduct(product)
	return &product, nil
}

func (r *ProductStore) Insert(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	r.s.products[product.ID] = cloneProduct(*product)
	return nil
}

func (r *ProductStore) Update(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[product.ID]; !ok {
		return apperr.E(apperr.NotFound, "product %s not found", product.ID.Hex())
	}
	r.s.products[product.ID] = cloneProduct(*product)
	return nil
}

func (r *ProductStore) SoftDelete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	product, ok := r.s.products[id]
	if !ok || product.IsDeleted {
		return apperr.E(apperr.NotFound, "product %s not found", id.Hex())
	}
	now := time.Now()
	product.IsDeleted = true
	product.IsActive = false
	product.DeletedAt = &now
	product.UpdatedAt = now
	r.s.products[id] = product
	return nil
}

func (r *ProductStore) adjust(id primitive.ObjectID, fn func(stock int) int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	product, ok := r.s.products[id]
	if !ok {
		return apperr.E(apperr.NotFound, "product %s not found", id.Hex())
	}
	product.Stock = fn(product.Stock)
	product.UpdatedAt = time.Now()
	r.s.products[id] = product
	return nil
}

func (r *ProductStore) DecrementStock(_ context.Context, id primitive.ObjectID, quantity int) error {
	return r.adjust(id, func(stock int) int {
		return max(0, stock-quantity)
	})
}

func (r *ProductStore) IncrementStock(_ context.Context, id primitive.ObjectID, quantity int) error {
	return r.adjust(id, func(stock int) int {
		return stock + quantity
	})
}

func (r *ProductStore) SetStock(_ context.Context, id primitive.ObjectID, stock int) error {
	return r.adjust(id, func(int) int {
		return stock
	})
}

func (r *ProductStore) List(_ context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]models.Product, 0)
	for _, p := range r.s.products {
		switch {
		case !filter.WithDeleted && p.IsDeleted:
			continue
		case filter.Category != nil && p.Category != *filter.Category:
			continue
		case filter.Featured != nil && p.Featured != *filter.Featured:
			continue
		case filter.IsActive != nil && p.IsActive != *filter.IsActive:
			continue
		case filter.MinPrice != nil && p.Price < *filter.MinPrice:
			continue
		case filter.MaxPrice != nil && p.Price > *filter.MaxPrice:
			continue
		case search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search):
			continue
		}
		matched = append(matched, cloneProduct(p))
	}

	sort.SliceStable(matched, productLess(matched, filter.Sort))
	total := int64(len(matched))
	return paginate(matched, filter.Page), total, nil
}

func productLess(products []models.Product, key string) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := products[i], products[j]
		switch key {
		case "price-asc":
			return a.Price < b.Price
		case "price-desc":
			return a.Price > b.Price
		case "oldest":
			return a.CreatedAt.Before(b.CreatedAt)
		case "name-asc":
			return a.Name < b.Name
		case "name-desc":
			return a.Name > b.Name
		case "stock-asc":
			return a.Stock < b.Stock
		case "stock-desc":
			return a.Stock > b.Stock
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
}

func (r *ProductStore) CountByCategory(_ context.Context, category primitive.ObjectID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	for _, p := range r.s.products {
		if p.Category == category && !p.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (r *ProductStore) Stats(_ context.Context) (models.ProductStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := models.ProductStats{ByCategory: make([]models.CategoryCount, 0)}
	perCategory := make(map[primitive.ObjectID]int64)
	for _, p := range r.s.products {
		if p.IsDeleted {
			continue
		}
		stats.Total++
		if p.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		switch {
		case p.Stock == 0:
			stats.OutOfStock++
		case p.Stock < models.LowStockThreshold:
			stats.LowStock++
		}
		if p.Featured {
			stats.Featured++
		}
		perCategory[p.Category]++
	}

	for id, count := range perCategory {
		name := "Uncategorized"
		if c, ok := r.s.categories[id]; ok {
			name = c.Name
		}
		stats.ByCategory = append(stats.ByCategory, models.CategoryCount{CategoryID: id, Name: name, Count: count})
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		return stats.ByCategory[i].Count > stats.ByCategory[j].Count
	})
	return stats, nil
}

func paginate[T any](items []T, page repository.Page) []T {
	if page.Limit <= 0 {
		return items
	}
	start := page.Skip()
	if start >= int64(len(items)) {
		return []T{}
	}
	end := min(start+page.Limit, int64(len(items)))
	return items[start:end]
}

var (
	_ repository.Products      = (*ProductStore)(nil)
	_ repository.Categories    = (*CategoryStore)(nil)
	_ repository.Carts         = (*CartStore)(nil)
	_ repository.Orders        = (*OrderStore)(nil)
	_ repository.Users         = (*UserStore)(nil)
	_ repository.RefreshTokens = (*RefreshTokenStore)(nil)
	_ repository.Transactor    = Transactor{}
)
