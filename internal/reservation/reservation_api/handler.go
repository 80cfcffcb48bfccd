package reservation_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"cafe-reservation/internal/logger"
	"cafe-reservation/internal/models"
	"cafe-reservation/internal/reservation"
	"cafe-reservation/internal/utils"

	"github.com/go-chi/chi/v5"
)

const maxProofSize = 5 << 20 // 5 MB

type Handler struct {
	Service *reservation.Service
	Logger  *logger.Logger
}

func NewHandler(service *reservation.Service) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger.NewLogger(),
	}
}

// CreateReservation books a table and its pre-order in one shot. The whole
// aggregate is transactional: a conflict or pricing failure leaves nothing
// behind.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "CreateReservation: received request")

	var req models.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateReservation: failed to decode request body: %v", err))
		writeJSONStatus(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	res, err := h.Service.CreateReservation(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateReservation: %v", err))
		writeError(w, err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreateReservation: created %s", res.BookingCode))
	writeJSONStatus(w, http.StatusCreated, utils.SuccessResponse("Reservation created successfully", res))
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "bookingCode")
	h.Logger.Info("API", fmt.Sprintf("GetReservation: bookingCode=%s", code))

	res, err := h.Service.GetByBookingCode(r.Context(), code)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetReservation: %v", err))
		writeError(w, err)
		return
	}

	writeJSON(w, utils.SuccessResponse("Reservation retrieved successfully", res))
}

// UploadPaymentProof accepts a multipart form with a "payment_proof" file and
// stores it on the asset host, replacing any earlier upload.
func (h *Handler) UploadPaymentProof(w http.ResponseWriter, r *http.Request) {
	reservationID := chi.URLParam(r, "reservationId")
	h.Logger.Info("API", fmt.Sprintf("UploadPaymentProof: reservationId=%s", reservationID))

	if err := r.ParseMultipartForm(maxProofSize); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UploadPaymentProof: failed to parse form: %v", err))
		writeJSONStatus(w, http.StatusBadRequest, utils.ErrorResponse("Invalid multipart form", err.Error()))
		return
	}

	file, header, err := r.FormFile("payment_proof")
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UploadPaymentProof: missing file: %v", err))
		writeJSONStatus(w, http.StatusBadRequest, utils.ErrorResponse("payment_proof file is required", err.Error()))
		return
	}
	defer file.Close()

	payment, err := h.Service.AttachPaymentProof(r.Context(), reservationID, header.Filename, file)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UploadPaymentProof: %v", err))
		writeError(w, err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("UploadPaymentProof: proof stored for %s", reservationID))
	writeJSON(w, utils.SuccessResponse("Payment proof uploaded successfully", payment))
}

func writeJSON(w http.ResponseWriter, body utils.APIResponse) {
	writeJSONStatus(w, http.StatusOK, body)
}

func writeJSONStatus(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the service's typed errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	if ve, ok := models.AsValidation(err); ok {
		resp := utils.ValidationResponse("Validation failed", ve.Fields)
		writeJSONStatus(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if ce, ok := models.AsConflict(err); ok {
		resp := utils.ErrorResponse("Table is already booked for the selected time slot", ce.Error())
		resp.Data = ce.Conflict
		writeJSONStatus(w, http.StatusConflict, resp)
		return
	}
	if _, ok := models.AsNotFound(err); ok {
		writeJSONStatus(w, http.StatusNotFound, utils.ErrorResponse("Not found", err.Error()))
		return
	}
	if _, ok := models.AsInvalidTransition(err); ok {
		writeJSONStatus(w, http.StatusConflict, utils.ErrorResponse("Invalid reservation state", err.Error()))
		return
	}
	if _, ok := models.AsAuthorization(err); ok {
		writeJSONStatus(w, http.StatusForbidden, utils.ErrorResponse("Forbidden", err.Error()))
		return
	}
	writeJSONStatus(w, http.StatusInternalServerError, utils.ErrorResponse("Internal server error", err.Error()))
}
