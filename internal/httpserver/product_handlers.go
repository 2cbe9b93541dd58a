package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YongHui-X/ecoplate/internal/service"
)

type productCreateRequest struct {
	Name       string    `json:"name" validate:"required,max=100"`
	Category   string    `json:"category" validate:"required"`
	Quantity   float64   `json:"quantity" validate:"omitempty,gt=0"`
	Unit       string    `json:"unit" validate:"omitempty,max=20"`
	ExpiryDate time.Time `json:"expiryDate" validate:"required"`
}

type productUpdateRequest struct {
	Name       *string    `json:"name" validate:"omitempty,max=100"`
	Category   *string    `json:"category"`
	Quantity   *float64   `json:"quantity" validate:"omitempty,gt=0"`
	Unit       *string    `json:"unit" validate:"omitempty,max=20"`
	ExpiryDate *time.Time `json:"expiryDate"`
	Status     *string    `json:"status"`
}

func handleCreateProduct(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		var req productCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if fields := validateStruct(req); fields != nil {
			writeFieldErrors(w, fields)
			return
		}

		p, err := productSvc.Create(r.Context(), user.ID, service.ProductCreateInput{
			Name:       req.Name,
			Category:   req.Category,
			Quantity:   req.Quantity,
			Unit:       req.Unit,
			ExpiryDate: req.ExpiryDate,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func handleListProducts(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		products, err := productSvc.ListForUser(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, products)
	}
}

func handleUpdateProduct(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
			return
		}
		var req productUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if fields := validateStruct(req); fields != nil {
			writeFieldErrors(w, fields)
			return
		}

		p, err := productSvc.Update(r.Context(), user.ID, id, service.ProductUpdateInput{
			Name:       req.Name,
			Category:   req.Category,
			Quantity:   req.Quantity,
			Unit:       req.Unit,
			ExpiryDate: req.ExpiryDate,
			Status:     req.Status,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func handleDeleteProduct(productSvc *service.ProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product id"})
			return
		}
		if err := productSvc.Delete(r.Context(), user.ID, id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
