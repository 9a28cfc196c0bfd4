package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/buttoners/staffroom/internal/auth"
	"github.com/buttoners/staffroom/internal/model"
	"github.com/buttoners/staffroom/internal/store"
	"github.com/buttoners/staffroom/internal/websocket"
)

type ProductHandler struct {
	productStore *store.ProductStore
	userStore    *store.UserStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewProductHandler(ps *store.ProductStore, us *store.UserStore, hub *websocket.Hub, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{productStore: ps, userStore: us, hub: hub, logger: logger}
}

func (h *ProductHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type productRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int    `json:"price"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and name are required"})
		return
	}
	if req.Price < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be >= 0"})
		return
	}

	product, err := h.productStore.Create(req.ID, req.Name, req.Category, req.Price)
	if err != nil {
		h.logger.Error("create product", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create product"})
		return
	}

	h.broadcast(websocket.NewMessage("product", "created", product.ID, nil))
	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list products"})
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.productStore.GetByID(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get product"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name required and price must be >= 0"})
		return
	}

	product, err := h.productStore.Update(id, req.Name, req.Category, req.Price)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update product"})
		return
	}

	h.broadcast(websocket.NewMessage("product", "updated", id, nil))
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.productStore.Delete(id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete product"})
		return
	}
	h.broadcast(websocket.NewMessage("product", "deleted", id, nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type optionRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

func (h *ProductHandler) CreateOption(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")

	product, err := h.productStore.GetByID(productID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get product"})
		return
	}
	if product == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}

	var req optionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" || req.Price < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and name required, price must be >= 0"})
		return
	}

	option, err := h.productStore.CreateOption(req.ID, productID, req.Name, req.Price)
	if err != nil {
		h.logger.Error("create option", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create option"})
		return
	}

	h.broadcast(websocket.NewMessage("product", "updated", productID, nil))
	writeJSON(w, http.StatusCreated, option)
}

func (h *ProductHandler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	optionID := r.PathValue("optionId")
	if err := h.productStore.DeleteOption(optionID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete option"})
		return
	}
	h.broadcast(websocket.NewMessage("product", "updated", r.PathValue("id"), nil))
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ProductHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	uid := auth.UID(r.Context())
	ids, err := h.userStore.ListFavorites(uid)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list favorites"})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *ProductHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	uid := auth.UID(r.Context())
	productID := r.PathValue("id")

	product, err := h.productStore.GetByID(productID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get product"})
		return
	}
	if product == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}

	if err := h.userStore.AddFavorite(uid, productID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add favorite"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (h *ProductHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	uid := auth.UID(r.Context())
	if err := h.userStore.RemoveFavorite(uid, r.PathValue("id")); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove favorite"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
