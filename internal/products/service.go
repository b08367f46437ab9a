package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stagepass/stagepass-backend/pkg/db/models"
	"github.com/stagepass/stagepass-backend/pkg/enums"
	pkgerrors "github.com/stagepass/stagepass-backend/pkg/errors"
)

// Service defines artist-facing operations on the native catalog.
type Service interface {
	Create(ctx context.Context, artistID uuid.UUID, input CreateProductInput) (*models.Product, error)
	Update(ctx context.Context, artistID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	Delete(ctx context.Context, artistID, productID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]models.Product, error)
	RecordView(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// CreateProductInput captures the data a new catalog entry requires.
type CreateProductInput struct {
	Title       string                `json:"title" validate:"required,max=200"`
	Description *string               `json:"description"`
	Category    enums.ProductCategory `json:"category" validate:"required"`
	Price       decimal.Decimal       `json:"price"`
	FileKey     *string               `json:"file_key"`
	ExternalURL *string               `json:"external_url"`
}

// UpdateProductInput carries partial updates; nil fields are left untouched.
type UpdateProductInput struct {
	Title       *string                `json:"title" validate:"omitempty,max=200"`
	Description *string                `json:"description"`
	Category    *enums.ProductCategory `json:"category"`
	Price       *decimal.Decimal       `json:"price"`
	Status      *enums.ProductStatus   `json:"status"`
	FileKey     *string                `json:"file_key"`
	ExternalURL *string                `json:"external_url"`
}

// NewService wires a product service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, artistID uuid.UUID, input CreateProductInput) (*models.Product, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "artist identity missing")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	product := &models.Product{
		ArtistID:    artistID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price.Round(2),
		Status:      enums.ProductStatusDraft,
		FileKey:     input.FileKey,
		ExternalURL: input.ExternalURL,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, artistID, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	product, err := s.ownedProduct(ctx, artistID, productID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must not be empty")
		}
		product.Title = *input.Title
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product category")
		}
		product.Category = *input.Category
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		product.Price = input.Price.Round(2)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
		}
		product.Status = *input.Status
	}
	if input.FileKey != nil {
		product.FileKey = input.FileKey
	}
	if input.ExternalURL != nil {
		product.ExternalURL = input.ExternalURL
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) Delete(ctx context.Context, artistID, productID uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, artistID, productID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, artistID uuid.UUID, filters ListFilters) ([]models.Product, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artist id required")
	}
	list, err := s.repo.ListByArtist(ctx, artistID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) RecordView(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if err := s.repo.IncrementViewCount(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record product view")
	}
	return nil
}

func (s *service) ownedProduct(ctx context.Context, artistID, productID uuid.UUID) (*models.Product, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "artist identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.ArtistID != artistID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product does not belong to artist")
	}
	return product, nil
}
