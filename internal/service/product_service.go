package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

// ProductService manages a user's fridge inventory.
type ProductService struct {
	products domain.ProductRepository
	points   domain.PointsRepository
}

func NewProductService(products domain.ProductRepository, points domain.PointsRepository) *ProductService {
	return &ProductService{products: products, points: points}
}

type ProductCreateInput struct {
	Name       string
	Category   string
	Quantity   float64
	Unit       string
	ExpiryDate time.Time
}

func (s *ProductService) Create(ctx context.Context, userID int64, in ProductCreateInput) (*domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrInvalidInput)
	}
	if !domain.ValidCategory(in.Category) {
		return nil, fmt.Errorf("unknown category %q: %w", in.Category, domain.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	if in.Unit == "" {
		in.Unit = "pcs"
	}

	p := &domain.Product{
		UserID:     userID,
		Name:       name,
		Category:   in.Category,
		Quantity:   in.Quantity,
		Unit:       in.Unit,
		ExpiryDate: in.ExpiryDate,
		Status:     domain.ProductStored,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) ListForUser(ctx context.Context, userID int64) ([]*domain.Product, error) {
	return s.products.ListForUser(ctx, userID)
}

// getOwned loads a product and masks both "missing" and "not yours" as
// not-found.
func (s *ProductService) getOwned(ctx context.Context, productID, userID int64) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

type ProductUpdateInput struct {
	Name       *string
	Category   *string
	Quantity   *float64
	Unit       *string
	ExpiryDate *time.Time
	Status     *string
}

var productStatuses = map[string]struct{}{
	domain.ProductStored:    {},
	domain.ProductConsumed:  {},
	domain.ProductListed:    {},
	domain.ProductDiscarded: {},
}

func (s *ProductService) Update(ctx context.Context, userID, productID int64, in ProductUpdateInput) (*domain.Product, error) {
	p, err := s.getOwned(ctx, productID, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", domain.ErrInvalidInput)
		}
		p.Name = name
	}
	if in.Category != nil {
		if !domain.ValidCategory(*in.Category) {
			return nil, fmt.Errorf("unknown category %q: %w", *in.Category, domain.ErrInvalidInput)
		}
		p.Category = *in.Category
	}
	if in.Quantity != nil {
		p.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		p.Unit = *in.Unit
	}
	if in.ExpiryDate != nil {
		p.ExpiryDate = *in.ExpiryDate
	}

	consumedNow := false
	if in.Status != nil {
		if _, ok := productStatuses[*in.Status]; !ok {
			return nil, fmt.Errorf("unknown status %q: %w", *in.Status, domain.ErrInvalidInput)
		}
		consumedNow = *in.Status == domain.ProductConsumed && p.Status != domain.ProductConsumed
		p.Status = *in.Status
	}

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}

	// Award is best-effort; the status change itself already committed.
	if consumedNow {
		if err := s.points.Award(ctx, userID, pointsProductConsumed, reasonProductConsumed); err != nil {
			log.Printf("products: award for user %d: %v", userID, err)
		}
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, userID, productID int64) error {
	if _, err := s.getOwned(ctx, productID, userID); err != nil {
		return err
	}
	return s.products.Delete(ctx, productID)
}
