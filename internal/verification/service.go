package verification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cafe-reservation/internal/auth"
	"cafe-reservation/internal/availability"
	"cafe-reservation/internal/logger"
	"cafe-reservation/internal/models"
	"cafe-reservation/internal/reservation/db"

	qrcode "github.com/skip2/go-qrcode"
)

// DBLayer is the storage surface the state machine drives.
type DBLayer interface {
	GetReservationByID(ctx context.Context, id string) (*models.Reservation, error)
	ListReservations(ctx context.Context, filter db.ReservationFilter) ([]*models.Reservation, error)
	ListConfirmedReservations(ctx context.Context) ([]*models.Reservation, error)
	// UpdateVerification writes the reservation and payment rows together.
	UpdateVerification(ctx context.Context, res *models.Reservation, payment *models.Payment) error
	// UpdateReservationStatus writes the status only when the row is still in
	// the expected prior status; returns false when the guard missed.
	UpdateReservationStatus(ctx context.Context, id string, from, to models.ReservationStatus) (bool, error)
}

// EventPublisher streams status-change events for downstream notification.
type EventPublisher interface {
	PublishReservationStatusChanged(res *models.Reservation) error
}

// Service guards every reservation status mutation. All transitions, whether
// triggered by an admin or by the sweep timer, go through these methods.
type Service struct {
	DB       DBLayer
	Events   EventPublisher
	Logger   *logger.Logger
	Location *time.Location

	// Clock is a seam for sweep tests.
	Clock func() time.Time
}

func NewService(dbLayer DBLayer, events EventPublisher, log *logger.Logger, loc *time.Location) *Service {
	return &Service{
		DB:       dbLayer,
		Events:   events,
		Logger:   log,
		Location: loc,
		Clock:    time.Now,
	}
}

// Verify approves a pending reservation's payment: payment goes to paid,
// the reservation to confirmed, and a booking-code QR is issued. Both rows
// change together or not at all.
func (s *Service) Verify(ctx context.Context, actor auth.Context, reservationID string) (*models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, &models.AuthorizationError{UserID: actor.UserID, Role: actor.Role}
	}

	res, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != models.StatusPendingVerification {
		return nil, &models.InvalidTransitionError{From: res.Status, Action: "verify"}
	}
	if res.Payment == nil {
		return nil, &models.NotFoundError{Resource: "payment", ID: reservationID}
	}

	now := s.Clock()
	res.Status = models.StatusConfirmed
	res.VerifiedBy = actor.UserID
	res.VerifiedAt = &now
	res.Payment.PaymentStatus = models.PaymentPaid
	res.Payment.VerifiedBy = actor.UserID
	res.Payment.VerifiedAt = &now
	res.Payment.PaidAt = &now

	qr, err := qrcode.Encode(res.BookingCode, qrcode.Medium, 256)
	if err != nil {
		s.Logger.Warn("VERIFY", fmt.Sprintf("failed to generate booking QR for %s: %v", res.BookingCode, err))
	} else {
		res.BookingQR = qr
	}

	if err := s.DB.UpdateVerification(ctx, res, res.Payment); err != nil {
		return nil, &models.PersistenceError{Op: "verify reservation", Err: err}
	}

	s.Logger.LogReservation("VERIFY", res.BookingCode, fmt.Sprintf("confirmed by %s", actor.UserID))
	s.publish(res)
	return res, nil
}

// Reject declines a pending reservation's payment, recording the reason.
func (s *Service) Reject(ctx context.Context, actor auth.Context, reservationID, reason string) (*models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, &models.AuthorizationError{UserID: actor.UserID, Role: actor.Role}
	}
	if len(strings.TrimSpace(reason)) < 10 {
		return nil, models.NewValidationError("rejection_reason", "must be at least 10 characters")
	}

	res, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != models.StatusPendingVerification {
		return nil, &models.InvalidTransitionError{From: res.Status, Action: "reject"}
	}
	if res.Payment == nil {
		return nil, &models.NotFoundError{Resource: "payment", ID: reservationID}
	}

	now := s.Clock()
	res.Status = models.StatusRejected
	res.RejectionReason = reason
	res.VerifiedBy = actor.UserID
	res.VerifiedAt = &now
	res.Payment.PaymentStatus = models.PaymentUnpaid
	res.Payment.VerifiedBy = actor.UserID
	res.Payment.VerifiedAt = &now

	if err := s.DB.UpdateVerification(ctx, res, res.Payment); err != nil {
		return nil, &models.PersistenceError{Op: "reject reservation", Err: err}
	}

	s.Logger.LogReservation("REJECT", res.BookingCode, fmt.Sprintf("rejected by %s: %s", actor.UserID, reason))
	s.publish(res)
	return res, nil
}

// Complete marks a confirmed reservation as completed (manual admin action).
func (s *Service) Complete(ctx context.Context, actor auth.Context, reservationID string) (*models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, &models.AuthorizationError{UserID: actor.UserID, Role: actor.Role}
	}

	res, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status != models.StatusConfirmed {
		return nil, &models.InvalidTransitionError{From: res.Status, Action: "complete"}
	}

	ok, err := s.DB.UpdateReservationStatus(ctx, reservationID, models.StatusConfirmed, models.StatusCompleted)
	if err != nil {
		return nil, &models.PersistenceError{Op: "complete reservation", Err: err}
	}
	if !ok {
		// Someone else transitioned it between our read and write.
		return nil, &models.InvalidTransitionError{From: res.Status, Action: "complete"}
	}

	res.Status = models.StatusCompleted
	s.Logger.LogReservation("COMPLETE", res.BookingCode, "marked completed")
	s.publish(res)
	return res, nil
}

// Cancel aborts a reservation unless it is already completed or cancelled.
// Refund handling is out of scope.
func (s *Service) Cancel(ctx context.Context, actor auth.Context, reservationID string) (*models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, &models.AuthorizationError{UserID: actor.UserID, Role: actor.Role}
	}

	res, err := s.load(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Status == models.StatusCompleted || res.Status == models.StatusCancelled {
		return nil, &models.InvalidTransitionError{From: res.Status, Action: "cancel"}
	}

	ok, err := s.DB.UpdateReservationStatus(ctx, reservationID, res.Status, models.StatusCancelled)
	if err != nil {
		return nil, &models.PersistenceError{Op: "cancel reservation", Err: err}
	}
	if !ok {
		return nil, &models.InvalidTransitionError{From: res.Status, Action: "cancel"}
	}

	res.Status = models.StatusCancelled
	s.Logger.LogReservation("CANCEL", res.BookingCode, fmt.Sprintf("cancelled by %s", actor.UserID))
	s.publish(res)
	return res, nil
}

// List is the admin reservation index with status/date/search filters.
func (s *Service) List(ctx context.Context, actor auth.Context, filter db.ReservationFilter) ([]*models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, &models.AuthorizationError{UserID: actor.UserID, Role: actor.Role}
	}
	reservations, err := s.DB.ListReservations(ctx, filter)
	if err != nil {
		return nil, &models.PersistenceError{Op: "list reservations", Err: err}
	}
	return reservations, nil
}

// Get is the admin reservation detail view.
func (s *Service) Get(ctx context.Context, actor auth.Context, reservationID string) (*models.Reservation, error) {
	if !actor.IsAdmin() {
		return nil, &models.AuthorizationError{UserID: actor.UserID, Role: actor.Role}
	}
	return s.load(ctx, reservationID)
}

// Sweep auto-completes every confirmed reservation whose window has elapsed.
// It reuses the same guarded status write as the interactive transition, so
// a second pass over the same reservation is a no-op.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	now := s.Clock().In(s.Location)

	confirmed, err := s.DB.ListConfirmedReservations(ctx)
	if err != nil {
		return 0, &models.PersistenceError{Op: "list confirmed reservations", Err: err}
	}

	completed := 0
	for _, res := range confirmed {
		window, err := availability.ComputeWindow(res.ReservationDate, res.ReservationTime, res.DurationHours, s.Location)
		if err != nil {
			s.Logger.Warn("SWEEP", fmt.Sprintf("reservation %s has malformed schedule: %v", res.ID, err))
			continue
		}
		if !now.After(window.End) {
			continue
		}

		ok, err := s.DB.UpdateReservationStatus(ctx, res.ID, models.StatusConfirmed, models.StatusCompleted)
		if err != nil {
			s.Logger.Error("SWEEP", fmt.Sprintf("failed to complete reservation %s: %v", res.ID, err))
			continue
		}
		if ok {
			completed++
			res.Status = models.StatusCompleted
			s.publish(res)
		}
	}

	return completed, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Reservation, error) {
	res, err := s.DB.GetReservationByID(ctx, id)
	if err != nil {
		return nil, &models.PersistenceError{Op: "load reservation", Err: err}
	}
	if res == nil {
		return nil, &models.NotFoundError{Resource: "reservation", ID: id}
	}
	return res, nil
}

func (s *Service) publish(res *models.Reservation) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishReservationStatusChanged(res); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("failed to publish status change for %s: %v", res.BookingCode, err))
	}
}
