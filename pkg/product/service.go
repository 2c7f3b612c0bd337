package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"gorm.io/gorm"
)

// Service manages the per-tenant product catalog
type Service struct {
	db *gorm.DB
}

// NewService creates a new product service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateProduct creates a catalog product
func (s *Service) CreateProduct(ctx context.Context, tenantID uint, req models.CreateProductRequest) (*models.Product, error) {
	if err := validatePercent(req.CommissionPercent); err != nil {
		return nil, err
	}
	if req.Price < 0 {
		return nil, domain.NewValidationError("product price must not be negative")
	}

	p := &models.Product{
		TenantID:          tenantID,
		Name:              req.Name,
		SKU:               req.SKU,
		Price:             req.Price,
		CommissionPercent: req.CommissionPercent,
		Active:            true,
	}

	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// GetProduct loads one product scoped to the tenant
func (s *Service) GetProduct(ctx context.Context, tenantID, productID uint) (*models.Product, error) {
	var p models.Product
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("product")
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// ListProducts returns the tenant's products. activeOnly filters out retired
// catalog entries.
func (s *Service) ListProducts(ctx context.Context, tenantID uint, activeOnly bool) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var out []models.Product
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return out, nil
}

// UpdateProduct partially updates a product
func (s *Service) UpdateProduct(ctx context.Context, tenantID, productID uint, req models.UpdateProductRequest) (*models.Product, error) {
	p, err := s.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, domain.NewValidationError("product price must not be negative")
		}
		p.Price = *req.Price
	}
	if req.CommissionPercent != nil {
		if err := validatePercent(*req.CommissionPercent); err != nil {
			return nil, err
		}
		p.CommissionPercent = *req.CommissionPercent
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// DeleteProduct removes a product from the catalog
func (s *Service) DeleteProduct(ctx context.Context, tenantID, productID uint) error {
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, productID).
		Delete(&models.Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("product")
	}
	return nil
}

func validatePercent(p float64) error {
	if p < 0 || p > 100 {
		return domain.NewValidationError("commission percent must be between 0 and 100")
	}
	return nil
}
