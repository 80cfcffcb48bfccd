package verification_api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cafe-reservation/internal/auth"
	"cafe-reservation/internal/logger"
	"cafe-reservation/internal/models"
	"cafe-reservation/internal/reservation/db"
	"cafe-reservation/internal/utils"
	"cafe-reservation/internal/verification"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifyDB struct {
	reservations map[string]*models.Reservation
	lastFilter   db.ReservationFilter
}

func (s *stubVerifyDB) GetReservationByID(_ context.Context, id string) (*models.Reservation, error) {
	return s.reservations[id], nil
}

func (s *stubVerifyDB) ListReservations(_ context.Context, filter db.ReservationFilter) ([]*models.Reservation, error) {
	s.lastFilter = filter
	var out []*models.Reservation
	for _, res := range s.reservations {
		out = append(out, res)
	}
	return out, nil
}

func (s *stubVerifyDB) ListConfirmedReservations(_ context.Context) ([]*models.Reservation, error) {
	return nil, nil
}

func (s *stubVerifyDB) UpdateVerification(_ context.Context, res *models.Reservation, _ *models.Payment) error {
	s.reservations[res.ID] = res
	return nil
}

func (s *stubVerifyDB) UpdateReservationStatus(_ context.Context, id string, from, to models.ReservationStatus) (bool, error) {
	res, ok := s.reservations[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	return true, nil
}

func newTestRouter(t *testing.T, dbl *stubVerifyDB, actor auth.Context) *chi.Mux {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	svc := verification.NewService(dbl, nil, logger.NewLogger(), loc)
	handler := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithActor(req.Context(), actor)))
		})
	})
	r.Route("/admin/reservations", func(r chi.Router) {
		r.Get("/", handler.ListReservations)
		r.Get("/{reservationId}", handler.GetReservation)
		r.Post("/{reservationId}/verify", handler.VerifyPayment)
		r.Post("/{reservationId}/reject", handler.RejectPayment)
		r.Patch("/{reservationId}/complete", handler.CompleteReservation)
		r.Delete("/{reservationId}", handler.CancelReservation)
	})
	return r
}

func adminActor() auth.Context {
	return auth.Context{UserID: "admin-1", Name: "Admin", Role: "admin"}
}

func pendingFixture() *stubVerifyDB {
	return &stubVerifyDB{reservations: map[string]*models.Reservation{
		"res-1": {
			ID:          "res-1",
			BookingCode: "RSV-20250601-ABC123",
			Status:      models.StatusPendingVerification,
			Payment: &models.Payment{
				ID:            "pay-1",
				ReservationID: "res-1",
				PaymentStatus: models.PaymentUnpaid,
			},
		},
	}}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var body utils.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestVerifyPaymentEndpoint(t *testing.T) {
	dbl := pendingFixture()
	router := newTestRouter(t, dbl, adminActor())

	req := httptest.NewRequest(http.MethodPost, "/admin/reservations/res-1/verify", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.True(t, body.Success)
	assert.Equal(t, models.StatusConfirmed, dbl.reservations["res-1"].Status)
}

func TestVerifyPaymentForbiddenForNonAdmin(t *testing.T) {
	dbl := pendingFixture()
	router := newTestRouter(t, dbl, auth.Context{UserID: "user-1", Role: "customer"})

	req := httptest.NewRequest(http.MethodPost, "/admin/reservations/res-1/verify", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, models.StatusPendingVerification, dbl.reservations["res-1"].Status)
}

func TestVerifyPaymentUnknownReservation(t *testing.T) {
	router := newTestRouter(t, pendingFixture(), adminActor())

	req := httptest.NewRequest(http.MethodPost, "/admin/reservations/res-ghost/verify", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyPaymentConflictWhenAlreadyConfirmed(t *testing.T) {
	dbl := pendingFixture()
	dbl.reservations["res-1"].Status = models.StatusConfirmed
	router := newTestRouter(t, dbl, adminActor())

	req := httptest.NewRequest(http.MethodPost, "/admin/reservations/res-1/verify", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRejectPaymentEndpoint(t *testing.T) {
	dbl := pendingFixture()
	router := newTestRouter(t, dbl, adminActor())

	payload, _ := json.Marshal(map[string]string{
		"rejection_reason": "Transfer amount does not match",
	})
	req := httptest.NewRequest(http.MethodPost, "/admin/reservations/res-1/reject", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusRejected, dbl.reservations["res-1"].Status)
	assert.Equal(t, "Transfer amount does not match", dbl.reservations["res-1"].RejectionReason)
}

func TestRejectPaymentShortReason(t *testing.T) {
	router := newTestRouter(t, pendingFixture(), adminActor())

	payload, _ := json.Marshal(map[string]string{"rejection_reason": "nope"})
	req := httptest.NewRequest(http.MethodPost, "/admin/reservations/res-1/reject", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeResponse(t, rec)
	assert.Contains(t, body.Fields, "rejection_reason")
}

func TestCompleteEndpointRequiresConfirmed(t *testing.T) {
	router := newTestRouter(t, pendingFixture(), adminActor())

	req := httptest.NewRequest(http.MethodPatch, "/admin/reservations/res-1/complete", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelEndpoint(t *testing.T) {
	dbl := pendingFixture()
	router := newTestRouter(t, dbl, adminActor())

	req := httptest.NewRequest(http.MethodDelete, "/admin/reservations/res-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusCancelled, dbl.reservations["res-1"].Status)
}

func TestListReservationsEndpoint(t *testing.T) {
	router := newTestRouter(t, pendingFixture(), adminActor())

	req := httptest.NewRequest(http.MethodGet, "/admin/reservations/?status=pending_verification", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.True(t, body.Success)
	assert.NotNil(t, body.Data)
}

func TestListReservationsPassesQueryFilters(t *testing.T) {
	dbl := pendingFixture()
	router := newTestRouter(t, dbl, adminActor())

	req := httptest.NewRequest(http.MethodGet, "/admin/reservations/?status=confirmed&date=2025-06-01&search=Siti&limit=10&offset=20", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, db.ReservationFilter{
		Status: "confirmed",
		Date:   "2025-06-01",
		Search: "Siti",
		Limit:  10,
		Offset: 20,
	}, dbl.lastFilter)
}
