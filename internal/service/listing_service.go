package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/YongHui-X/ecoplate/internal/domain"
)

// ListingService manages marketplace listings.
type ListingService struct {
	listings domain.ListingRepository
	points   domain.PointsRepository
}

func NewListingService(listings domain.ListingRepository, points domain.PointsRepository) *ListingService {
	return &ListingService{listings: listings, points: points}
}

type ListingCreateInput struct {
	Title         string
	Description   string
	Category      string
	OriginalPrice float64
	Price         float64
	Quantity      float64
	Unit          string
	ExpiryDate    time.Time
	ImageURL      *string
}

func (s *ListingService) Create(ctx context.Context, sellerID int64, in ListingCreateInput) (*domain.Listing, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if !domain.ValidCategory(in.Category) {
		return nil, fmt.Errorf("unknown category %q: %w", in.Category, domain.ErrInvalidInput)
	}
	if in.Price < 0 || in.OriginalPrice < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", domain.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	if in.Unit == "" {
		in.Unit = "pcs"
	}

	l := &domain.Listing{
		SellerID:      sellerID,
		Title:         title,
		Description:   in.Description,
		Category:      in.Category,
		OriginalPrice: in.OriginalPrice,
		Price:         in.Price,
		Quantity:      in.Quantity,
		Unit:          in.Unit,
		ExpiryDate:    in.ExpiryDate,
		ImageURL:      in.ImageURL,
		Status:        domain.ListingAvailable,
	}
	if err := s.listings.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListingService) Get(ctx context.Context, id int64) (*domain.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

func (s *ListingService) List(ctx context.Context, f domain.ListingFilter) ([]*domain.Listing, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	return s.listings.List(ctx, f)
}

var listingStatuses = map[string]struct{}{
	domain.ListingAvailable: {},
	domain.ListingReserved:  {},
	domain.ListingCompleted: {},
	domain.ListingCancelled: {},
}

type ListingUpdateInput struct {
	Title         *string
	Description   *string
	Category      *string
	OriginalPrice *float64
	Price         *float64
	Quantity      *float64
	Unit          *string
	ExpiryDate    *time.Time
	ImageURL      *string
	Status        *string
	// BuyerID identifies the counterparty when the seller completes the
	// listing, so both sides receive the completion award.
	BuyerID *int64
}

// Update applies a seller-only patch. A non-seller caller gets the same
// not-found as a nonexistent id.
func (s *ListingService) Update(ctx context.Context, sellerID, listingID int64, in ListingUpdateInput) (*domain.Listing, error) {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l == nil || l.SellerID != sellerID {
		return nil, domain.ErrNotFound
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("title cannot be empty: %w", domain.ErrInvalidInput)
		}
		l.Title = title
	}
	if in.Description != nil {
		l.Description = *in.Description
	}
	if in.Category != nil {
		if !domain.ValidCategory(*in.Category) {
			return nil, fmt.Errorf("unknown category %q: %w", *in.Category, domain.ErrInvalidInput)
		}
		l.Category = *in.Category
	}
	if in.OriginalPrice != nil {
		l.OriginalPrice = *in.OriginalPrice
	}
	if in.Price != nil {
		l.Price = *in.Price
	}
	if in.Quantity != nil {
		l.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		l.Unit = *in.Unit
	}
	if in.ExpiryDate != nil {
		l.ExpiryDate = *in.ExpiryDate
	}
	if in.ImageURL != nil {
		l.ImageURL = in.ImageURL
	}

	completedNow := false
	if in.Status != nil {
		if _, ok := listingStatuses[*in.Status]; !ok {
			return nil, fmt.Errorf("unknown status %q: %w", *in.Status, domain.ErrInvalidInput)
		}
		completedNow = *in.Status == domain.ListingCompleted && l.Status != domain.ListingCompleted
		l.Status = *in.Status
	}

	if err := s.listings.Update(ctx, l); err != nil {
		return nil, err
	}

	// Completion awards are best-effort; the status change already committed.
	if completedNow {
		if err := s.points.Award(ctx, sellerID, pointsListingComplete, reasonListingComplete); err != nil {
			log.Printf("listings: award for seller %d: %v", sellerID, err)
		}
		if in.BuyerID != nil && *in.BuyerID != sellerID {
			if err := s.points.Award(ctx, *in.BuyerID, pointsListingComplete, reasonListingComplete); err != nil {
				log.Printf("listings: award for buyer %d: %v", *in.BuyerID, err)
			}
		}
	}
	return l, nil
}

// Delete soft-cancels the listing; the row and its conversations stay.
func (s *ListingService) Delete(ctx context.Context, sellerID, listingID int64) error {
	l, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if l == nil || l.SellerID != sellerID {
		return domain.ErrNotFound
	}
	l.Status = domain.ListingCancelled
	return s.listings.Update(ctx, l)
}
