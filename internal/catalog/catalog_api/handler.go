package catalog_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"cafe-reservation/internal/catalog"
	"cafe-reservation/internal/logger"
	"cafe-reservation/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Catalog *catalog.DB
	Logger  *logger.Logger
}

func NewHandler(db *catalog.DB) *Handler {
	return &Handler{
		Catalog: db,
		Logger:  logger.NewLogger(),
	}
}

func (h *Handler) ListMenus(w http.ResponseWriter, r *http.Request) {
	categoryID := r.URL.Query().Get("category_id")
	h.Logger.Info("API", fmt.Sprintf("ListMenus: category_id=%q", categoryID))

	menus, err := h.Catalog.ListMenus(r.Context(), categoryID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListMenus: query failed: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve menus", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Menus retrieved successfully", menus))
}

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	menuID := chi.URLParam(r, "menuId")
	h.Logger.Info("API", fmt.Sprintf("GetMenu: menuId=%s", menuID))

	menu, err := h.Catalog.GetMenu(r.Context(), menuID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetMenu: query failed: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve menu", err.Error()))
		return
	}
	if menu == nil {
		writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Menu not found", "no menu with id "+menuID))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Menu retrieved successfully", menu))
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "ListCategories: received request")

	categories, err := h.Catalog.ListCategories(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListCategories: query failed: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve categories", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Categories retrieved successfully", categories))
}

func writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
