package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YongHui-X/ecoplate/internal/domain"
	"github.com/YongHui-X/ecoplate/internal/service"
)

type listingCreateRequest struct {
	Title         string    `json:"title" validate:"required,max=150"`
	Description   string    `json:"description" validate:"max=2000"`
	Category      string    `json:"category" validate:"required"`
	OriginalPrice float64   `json:"originalPrice" validate:"gte=0"`
	Price         float64   `json:"price" validate:"gte=0"`
	Quantity      float64   `json:"quantity" validate:"omitempty,gt=0"`
	Unit          string    `json:"unit" validate:"omitempty,max=20"`
	ExpiryDate    time.Time `json:"expiryDate" validate:"required"`
	ImageURL      *string   `json:"imageUrl" validate:"omitempty,max=500"`
}

type listingUpdateRequest struct {
	Title         *string    `json:"title" validate:"omitempty,max=150"`
	Description   *string    `json:"description" validate:"omitempty,max=2000"`
	Category      *string    `json:"category"`
	OriginalPrice *float64   `json:"originalPrice" validate:"omitempty,gte=0"`
	Price         *float64   `json:"price" validate:"omitempty,gte=0"`
	Quantity      *float64   `json:"quantity" validate:"omitempty,gt=0"`
	Unit          *string    `json:"unit" validate:"omitempty,max=20"`
	ExpiryDate    *time.Time `json:"expiryDate"`
	ImageURL      *string    `json:"imageUrl" validate:"omitempty,max=500"`
	Status        *string    `json:"status"`
	BuyerID       *int64     `json:"buyerId" validate:"omitempty,gt=0"`
}

func handleCreateListing(listingSvc *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req listingCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if fields := validateStruct(req); fields != nil {
			writeFieldErrors(w, fields)
			return
		}

		l, err := listingSvc.Create(r.Context(), user.ID, service.ListingCreateInput{
			Title:         req.Title,
			Description:   req.Description,
			Category:      req.Category,
			OriginalPrice: req.OriginalPrice,
			Price:         req.Price,
			Quantity:      req.Quantity,
			Unit:          req.Unit,
			ExpiryDate:    req.ExpiryDate,
			ImageURL:      req.ImageURL,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

func handleListListings(listingSvc *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := domain.ListingFilter{
			Status:   q.Get("status"),
			Category: q.Get("category"),
		}
		if s := q.Get("sellerId"); s != "" {
			if id, err := strconv.ParseInt(s, 10, 64); err == nil {
				f.SellerID = id
			}
		}
		if s := q.Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				f.Limit = n
			}
		}
		if s := q.Get("offset"); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				f.Offset = n
			}
		}

		listings, err := listingSvc.List(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, listings)
	}
}

func handleGetListing(listingSvc *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "listingID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing id"})
			return
		}
		l, err := listingSvc.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func handleUpdateListing(listingSvc *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "listingID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing id"})
			return
		}
		var req listingUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if fields := validateStruct(req); fields != nil {
			writeFieldErrors(w, fields)
			return
		}

		l, err := listingSvc.Update(r.Context(), user.ID, id, service.ListingUpdateInput{
			Title:         req.Title,
			Description:   req.Description,
			Category:      req.Category,
			OriginalPrice: req.OriginalPrice,
			Price:         req.Price,
			Quantity:      req.Quantity,
			Unit:          req.Unit,
			ExpiryDate:    req.ExpiryDate,
			ImageURL:      req.ImageURL,
			Status:        req.Status,
			BuyerID:       req.BuyerID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func handleDeleteListing(listingSvc *service.ListingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "listingID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing id"})
			return
		}
		if err := listingSvc.Delete(r.Context(), user.ID, id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
