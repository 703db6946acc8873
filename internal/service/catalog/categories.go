package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mukeshkumar44/e-commerce-backend/internal/apperr"
	"github.com/mukeshkumar44/e-commerce-backend/internal/models"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository"
)

type CategoryInput struct {
	Name        *string
	Description *string
	Image       *string
	IsActive    *bool
	Parent      *primitive.ObjectID
	// ClearParent turns the category into a root.
	ClearParent bool
}

type CategoryService struct {
	categories repository.Categories
	products   repository.Products
	logger     *slog.Logger
}

func NewCategoryService(categories repository.Categories, products repository.Products, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		products:   products,
		logger:     logger.With("component", "categories"),
	}
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := ""
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
	}
	if name == "" {
		return nil, apperr.E(apperr.Required, "name required")
	}
	if err := s.ensureUniqueName(ctx, name, nil); err != nil {
		return nil, err
	}
	if in.Parent != nil {
		if err := s.ensureParent(ctx, *in.Parent); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	category := &models.Category{
		Name:           name,
		IsActive:       true,
		ParentCategory: in.Parent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.Description != nil {
		category.Description = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		category.Image = strings.TrimSpace(*in.Image)
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}

	if err := s.categories.Insert(ctx, category); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "category created", "categoryId", category.ID.Hex(), "name", name)
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id primitive.ObjectID, in CategoryInput) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.E(apperr.Required, "name cannot be empty")
		}
		if err := s.ensureUniqueName(ctx, name, &id); err != nil {
			return nil, err
		}
		category.Name = name
	}
	if in.Description != nil {
		category.Description = strings.TrimSpace(*in.Description)
	}
	if in.Image != nil {
		category.Image = strings.TrimSpace(*in.Image)
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}

	switch {
	case in.ClearParent:
		category.ParentCategory = nil
	case in.Parent != nil:
		if *in.Parent == id {
			return nil, apperr.E(apperr.Invalid, "category cannot be its own parent")
		}
		if err := s.ensureParent(ctx, *in.Parent); err != nil {
			return nil, err
		}
		if err := s.ensureNoCycle(ctx, id, *in.Parent); err != nil {
			return nil, err
		}
		category.ParentCategory = in.Parent
	}

	category.UpdatedAt = time.Now()
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "category updated", "categoryId", id.Hex())
	return category, nil
}

// Delete refuses while child categories or products still point at the category.
func (s *CategoryService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		return err
	}

	children, err := s.categories.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return apperr.E(apperr.InvalidState, "category has %d subcategories", children)
	}

	products, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 {
		return apperr.E(apperr.InvalidState, "category has %d products", products)
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "category deleted", "categoryId", id.Hex())
	return nil
}

func (s *CategoryService) Get(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *CategoryService) List(ctx context.Context, filter repository.CategoryFilter) ([]models.Category, error) {
	return s.categories.List(ctx, filter)
}

// Tree returns the active categories as a forest. Categories whose parent is
// missing or inactive are promoted to roots.
func (s *CategoryService) Tree(ctx context.Context) ([]*models.CategoryNode, error) {
	active := true
	categories, err := s.categories.List(ctx, repository.CategoryFilter{IsActive: &active})
	if err != nil {
		return nil, err
	}
	return BuildTree(categories), nil
}

// BuildTree assembles the forest breadth first from a parent to children index.
// Input order is kept among siblings.
func BuildTree(categories []models.Category) []*models.CategoryNode {
	known := make(map[primitive.ObjectID]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}

	children := make(map[primitive.ObjectID][]models.Category)
	var roots []models.Category
	for _, c := range categories {
		if c.ParentCategory == nil || !known[*c.ParentCategory] || *c.ParentCategory == c.ID {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentCategory] = append(children[*c.ParentCategory], c)
	}

	forest := make([]*models.CategoryNode, 0, len(roots))
	queue := make([]*models.CategoryNode, 0, len(categories))
	for _, c := range roots {
		node := &models.CategoryNode{Category: c, Children: []*models.CategoryNode{}}
		forest = append(forest, node)
		queue = append(queue, node)
	}

	visited := make(map[primitive.ObjectID]bool, len(categories))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if visited[node.ID] {
			continue
		}
		visited[node.ID] = true

		for _, c := range children[node.ID] {
			child := &models.CategoryNode{Category: c, Children: []*models.CategoryNode{}}
			node.Children = append(node.Children, child)
			queue = append(queue, child)
		}
	}
	return forest
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, name string, exclude *primitive.ObjectID) error {
	exists, err := s.categories.ExistsByName(ctx, name, exclude)
	if err != nil {
		return err
	}
	if exists {
		return apperr.E(apperr.Conflict, "category %q already exists", name)
	}
	return nil
}

func (s *CategoryService) ensureParent(ctx context.Context, parent primitive.ObjectID) error {
	if _, err := s.categories.FindByID(ctx, parent); err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return apperr.E(apperr.Invalid, "parent category %s not found", parent.Hex())
		}
		return err
	}
	return nil
}

// ensureNoCycle walks up from parent and fails if it reaches id.
func (s *CategoryService) ensureNoCycle(ctx context.Context, id, parent primitive.ObjectID) error {
	seen := map[primitive.ObjectID]bool{}
	current := &parent
	for current != nil && !seen[*current] {
		if *current == id {
			return apperr.E(apperr.Invalid, "parent category would create a cycle")
		}
		seen[*current] = true

		category, err := s.categories.FindByID(ctx, *current)
		if apperr.IsKind(err, apperr.NotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		current = category.ParentCategory
	}
	return nil
}
