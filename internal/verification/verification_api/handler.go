package verification_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"cafe-reservation/internal/auth"
	"cafe-reservation/internal/logger"
	"cafe-reservation/internal/models"
	"cafe-reservation/internal/reservation/db"
	"cafe-reservation/internal/utils"
	"cafe-reservation/internal/verification"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *verification.Service
	Logger  *logger.Logger
}

func NewHandler(service *verification.Service) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger.NewLogger(),
	}
}

// ListReservations is the admin index with ?status=&date=&search=&limit=&offset=.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.Actor(r.Context())
	q := r.URL.Query()

	filter := db.ReservationFilter{
		Status: q.Get("status"),
		Date:   q.Get("date"),
		Search: q.Get("search"),
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Offset = n
		}
	}
	h.Logger.Info("API", fmt.Sprintf("ListReservations: status=%q date=%q search=%q", filter.Status, filter.Date, filter.Search))

	reservations, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListReservations: %v", err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Reservations retrieved successfully", reservations))
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.Actor(r.Context())
	reservationID := chi.URLParam(r, "reservationId")
	h.Logger.Info("API", fmt.Sprintf("GetReservation: reservationId=%s", reservationID))

	res, err := h.Service.Get(r.Context(), actor, reservationID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetReservation: %v", err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Reservation retrieved successfully", res))
}

// VerifyPayment confirms a pending reservation and marks its payment paid.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.Actor(r.Context())
	reservationID := chi.URLParam(r, "reservationId")
	h.Logger.Info("API", fmt.Sprintf("VerifyPayment: reservationId=%s by %s", reservationID, actor.UserID))

	res, err := h.Service.Verify(r.Context(), actor, reservationID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("VerifyPayment: %v", err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Payment verified successfully", res))
}

// RejectPayment declines a pending reservation with a mandatory reason.
func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.Actor(r.Context())
	reservationID := chi.URLParam(r, "reservationId")

	var body struct {
		RejectionReason string `json:"rejection_reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RejectPayment: failed to decode request body: %v", err))
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("RejectPayment: reservationId=%s by %s", reservationID, actor.UserID))

	res, err := h.Service.Reject(r.Context(), actor, reservationID, body.RejectionReason)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RejectPayment: %v", err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Payment rejected", res))
}

func (h *Handler) CompleteReservation(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.Actor(r.Context())
	reservationID := chi.URLParam(r, "reservationId")
	h.Logger.Info("API", fmt.Sprintf("CompleteReservation: reservationId=%s by %s", reservationID, actor.UserID))

	res, err := h.Service.Complete(r.Context(), actor, reservationID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CompleteReservation: %v", err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Reservation completed", res))
}

func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.Actor(r.Context())
	reservationID := chi.URLParam(r, "reservationId")
	h.Logger.Info("API", fmt.Sprintf("CancelReservation: reservationId=%s by %s", reservationID, actor.UserID))

	res, err := h.Service.Cancel(r.Context(), actor, reservationID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelReservation: %v", err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Reservation cancelled", res))
}

func writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	if ve, ok := models.AsValidation(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, utils.ValidationResponse("Validation failed", ve.Fields))
		return
	}
	if _, ok := models.AsAuthorization(err); ok {
		writeJSON(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", err.Error()))
		return
	}
	if _, ok := models.AsNotFound(err); ok {
		writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Not found", err.Error()))
		return
	}
	if _, ok := models.AsInvalidTransition(err); ok {
		writeJSON(w, http.StatusConflict, utils.ErrorResponse("Invalid reservation state", err.Error()))
		return
	}
	writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error", err.Error()))
}
