package store

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"vet-clinic-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/store/products", func(pr chi.Router) {
		pr.Get("/", listProductsHandler(svc))
		pr.Get("/{productID}", getProductHandler(svc))

		pr.Post("/", createProductHandler(svc))
		pr.Patch("/{productID}", updateProductHandler(svc))
		pr.Delete("/{productID}", deleteProductHandler(svc))
	})

	r.Route("/store/cart", func(cr chi.Router) {
		cr.Get("/", getCartHandler(svc))
		cr.Delete("/", clearCartHandler(svc))
		cr.Post("/items", addItemHandler(svc))
		cr.Put("/items/{itemID}", setItemQuantityHandler(svc))
		cr.Delete("/items/{itemID}", removeItemHandler(svc))
	})
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int    `json:"stock"`
	Category    string `json:"category"`
	ImageURL    string `json:"image_url"`
}

type productUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Stock       *int    `json:"stock"`
	Category    *string `json:"category"`
	ImageURL    *string `json:"image_url"`
	Active      *bool   `json:"active"`
}

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type cartItemResponse struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Quantity      int    `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	Subtotal      string `json:"subtotal"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

type cartResponse struct {
	ID         string             `json:"id"`
	Items      []cartItemResponse `json:"items"`
	Total      string             `json:"total"`
	TotalCents int64              `json:"total_cents"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func staffOnlyStore(claims middleware.RequestClaims) bool {
	return claims.Role == "admin" || claims.Role == "staff"
}

func listProductsHandler(svc *Service) http.HandlerFunc {
	// El catálogo público solo muestra productos activos; staff y admin
	// ven todo con ?all=true.
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.GetClaims(r.Context())

		filter := ProductFilter{
			Category:   strings.TrimSpace(r.URL.Query().Get("category")),
			Query:      strings.TrimSpace(r.URL.Query().Get("q")),
			OnlyActive: true,
		}
		if r.URL.Query().Get("all") == "true" && staffOnlyStore(claims) {
			filter.OnlyActive = false
		}

		items, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]productResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toProductResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.GetProduct(r.Context(), chi.URLParam(r, "productID"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		claims, _ := middleware.GetClaims(r.Context())
		if !p.Active && !staffOnlyStore(claims) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toProductResponse(p))
	}
}

func createProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !staffOnlyStore(claims) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req productRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.CreateProduct(r.Context(), ProductInput{
			Name:        req.Name,
			Description: req.Description,
			PriceCents:  req.PriceCents,
			Stock:       req.Stock,
			Category:    req.Category,
			ImageURL:    req.ImageURL,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProductResponse(p))
	}
}

func updateProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !staffOnlyStore(claims) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req productUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.UpdateProduct(r.Context(), chi.URLParam(r, "productID"), ProductUpdate{
			Name:        req.Name,
			Description: req.Description,
			PriceCents:  req.PriceCents,
			Stock:       req.Stock,
			Category:    req.Category,
			ImageURL:    req.ImageURL,
			Active:      req.Active,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProductResponse(p))
	}
}

func deleteProductHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !staffOnlyStore(claims) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		if err := svc.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getCartHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		view, err := svc.GetCart(r.Context(), claims.UserID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartResponse(view))
	}
}

func addItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}

		view, err := svc.AddItem(r.Context(), claims.UserID, req.ProductID, req.Quantity)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartResponse(view))
	}
}

func setItemQuantityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req struct {
			Quantity int `json:"quantity"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		view, err := svc.SetItemQuantity(r.Context(), claims.UserID, chi.URLParam(r, "itemID"), req.Quantity)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartResponse(view))
	}
}

func removeItemHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		view, err := svc.RemoveItem(r.Context(), claims.UserID, chi.URLParam(r, "itemID"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartResponse(view))
	}
}

func clearCartHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		view, err := svc.ClearCart(r.Context(), claims.UserID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCartResponse(view))
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrProductNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
	case errors.Is(err, ErrItemNotFound):
		http.Error(w, "cart item not found", http.StatusNotFound)
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrProductUnavailable):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toProductResponse(p Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Price:       FormatCents(p.PriceCents),
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toCartResponse(v CartView) cartResponse {
	items := make([]cartItemResponse, 0, len(v.Items))
	for _, iv := range v.Items {
		items = append(items, cartItemResponse{
			ID:            iv.Item.ID,
			ProductID:     iv.Item.ProductID,
			ProductName:   iv.Product.Name,
			Quantity:      iv.Item.Quantity,
			UnitPrice:     FormatCents(iv.Item.PriceCents),
			Subtotal:      FormatCents(iv.Item.SubtotalCents()),
			SubtotalCents: iv.Item.SubtotalCents(),
		})
	}
	return cartResponse{
		ID:         v.Cart.ID,
		Items:      items,
		Total:      FormatCents(v.TotalCents),
		TotalCents: v.TotalCents,
		UpdatedAt:  v.Cart.UpdatedAt,
	}
}

// writeJSON duplicado a propósito por módulo (ver nota en users/handler.go).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
