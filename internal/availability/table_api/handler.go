package table_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"cafe-reservation/internal/availability"
	"cafe-reservation/internal/logger"
	"cafe-reservation/internal/models"
	"cafe-reservation/internal/utils"
)

// TableLister is the extra read surface beyond the availability checker:
// the raw floor-plan listing.
type TableLister interface {
	ListTables(ctx context.Context, floor int) ([]*models.Table, error)
}

type Handler struct {
	Checker *availability.Service
	Tables  TableLister
	Logger  *logger.Logger
}

func NewHandler(checker *availability.Service, tables TableLister) *Handler {
	return &Handler{
		Checker: checker,
		Tables:  tables,
		Logger:  logger.NewLogger(),
	}
}

// ListTables returns the floor plan, optionally filtered by ?floor=N.
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	floor := 0
	if raw := r.URL.Query().Get("floor"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid floor parameter", err.Error()))
			return
		}
		floor = parsed
	}
	h.Logger.Info("API", fmt.Sprintf("ListTables: floor=%d", floor))

	tables, err := h.Tables.ListTables(r.Context(), floor)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTables: query failed: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve tables", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Tables retrieved successfully", tables))
}

// CheckAvailability answers whether one table can host the requested window.
// An unavailable slot is a 200 with available=false and the conflict detail.
func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req models.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckAvailability: failed to decode request body: %v", err))
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CheckAvailability: table=%s date=%s time=%s", req.TableID, req.ReservationDate, req.ReservationTime))

	result, err := h.Checker.CheckTable(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckAvailability: %v", err))
		writeCheckError(w, err)
		return
	}

	message := "Table is available"
	if !result.Available {
		message = "Table is not available"
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse(message, result))
}

// AvailabilityStatus runs the check across every active table so the floor
// plan can be rendered with live availability.
func (h *Handler) AvailabilityStatus(w http.ResponseWriter, r *http.Request) {
	var req models.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("AvailabilityStatus: failed to decode request body: %v", err))
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("AvailabilityStatus: date=%s time=%s duration=%.1f", req.ReservationDate, req.ReservationTime, req.DurationHours))

	tables, err := h.Checker.ListTablesWithAvailability(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AvailabilityStatus: %v", err))
		writeCheckError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Availability status retrieved successfully", tables))
}

func writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeCheckError(w http.ResponseWriter, err error) {
	if ve, ok := models.AsValidation(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, utils.ValidationResponse("Validation failed", ve.Fields))
		return
	}
	if _, ok := models.AsNotFound(err); ok {
		writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Not found", err.Error()))
		return
	}
	writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error", err.Error()))
}
