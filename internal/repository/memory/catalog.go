package memory

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

type CategoryStore struct{ s *Store }

func (r *CategoryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	category, ok := r.s.categories[id]
	if !ok {
		return nil, apperr.E(apperr.NotFound, "category %s not found", id.Hex())
	}
	return &category, nil
}

func (r *CategoryStore) ExistsByName(_ context.Context, name string, exclude *primitive.ObjectID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.nameTaken(name, exclude), nil
}

func (r *CategoryStore) nameTaken(name string, exclude *primitive.ObjectID) bool {
	for id, c := range r.s.categories {
		if exclude != nil && id == *exclude {
			continue
		}
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (r *CategoryStore) Insert(_ context.Context, category *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(category.Name, nil) {
		return apperr.E(apperr.Conflict, "category name already exists")
	}
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	r.s.categories[category.ID] = *category
	return nil
}

func (r *CategoryStore) Update(_ context.Context, category *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[category.ID]; !ok {
		return apperr.E(apperr.NotFound, "category %s not found", category.ID.Hex())
	}
	if r.nameTaken(category.Name, &category.ID) {
		return apperr.E(apperr.Conflict, "category name already exists")
	}
	r.s.categories[category.ID] = *category
	return nil
}

func (r *CategoryStore) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return apperr.E(apperr.NotFound, "category %s not found", id.Hex())
	}
	delete(r.s.categories, id)
	return nil
}

func (r *CategoryStore) CountChildren(_ context.Context, id primitive.ObjectID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var count int64
	for _, c := range r.s.categories {
		if c.ParentCategory != nil && *c.ParentCategory == id {
			count++
		}
	}
	return count, nil
}

func (r *CategoryStore) List(_ context.Context, filter repository.CategoryFilter) ([]models.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	categories := make([]models.Category, 0)
	for _, c := range r.s.categories {
		switch {
		case filter.IsActive != nil && c.IsActive != *filter.IsActive:
			continue
		case filter.Parent != nil && (c.ParentCategory == nil || *c.ParentCategory != *filter.Parent):
			continue
		case filter.Parent == nil && filter.RootOnly && c.ParentCategory != nil:
			continue
		case search != "" && !strings.Contains(strings.ToLower(c.Name), search):
			continue
		}
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}
