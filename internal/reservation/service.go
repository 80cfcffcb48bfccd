package reservation

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cafe-reservation/internal/availability"
	"cafe-reservation/internal/logger"
	"cafe-reservation/internal/models"

	"github.com/google/uuid"
)

// DBLayer is the storage surface the orchestrator writes through.
type DBLayer interface {
	GetMenu(ctx context.Context, id string) (*models.Menu, error)
	// CreateReservationAggregate persists the reservation, its items and its
	// payment inside one transaction. ensureAvailable is invoked inside that
	// transaction with the table's active reservations for the date, after
	// they have been locked, closing the race between the pre-flight check
	// and the insert.
	CreateReservationAggregate(ctx context.Context, res *models.Reservation, items []*models.ReservationItem, payment *models.Payment, ensureAvailable func(existing []*models.Reservation) error) error
	GetReservationByBookingCode(ctx context.Context, code string) (*models.Reservation, error)
	GetReservationByID(ctx context.Context, id string) (*models.Reservation, error)
	UpdatePaymentProof(ctx context.Context, reservationID, proofURL string) (*models.Payment, error)
	IsUniqueViolation(err error) bool
}

// SlotLocker guards a (table, date) slot while a booking is being written.
type SlotLocker interface {
	LockSlot(ctx context.Context, tableID, date, ownerID string) (bool, error)
	UnlockSlot(ctx context.Context, tableID, date, ownerID string) error
}

// EventPublisher streams reservation lifecycle events.
type EventPublisher interface {
	PublishReservationCreated(res *models.Reservation) error
}

// ProofStore is the external asset host holding payment proof images.
type ProofStore interface {
	Upload(ctx context.Context, name string, content io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

type Service struct {
	DB          DBLayer
	Locks       SlotLocker
	Events      EventPublisher
	Proofs      ProofStore
	Checker     *availability.Service
	Logger      *logger.Logger
	Location    *time.Location
	CodeRetries int
}

func NewService(db DBLayer, locks SlotLocker, events EventPublisher, proofs ProofStore, checker *availability.Service, log *logger.Logger, loc *time.Location, codeRetries int) *Service {
	return &Service{
		DB:          db,
		Locks:       locks,
		Events:      events,
		Proofs:      proofs,
		Checker:     checker,
		Logger:      log,
		Location:    loc,
		CodeRetries: codeRetries,
	}
}

// CreateReservation is the core write path: availability pre-check, slot lock,
// pricing, then one transaction inserting reservation + items + payment with
// the availability re-check inside it. On any failure nothing persists.
func (s *Service) CreateReservation(ctx context.Context, req models.ReservationRequest) (*models.Reservation, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	check, err := s.Checker.CheckTable(ctx, models.AvailabilityRequest{
		TableID:         req.TableID,
		ReservationDate: req.ReservationDate,
		ReservationTime: req.ReservationTime,
		DurationHours:   req.DurationHours,
	})
	if err != nil {
		return nil, err
	}
	if !check.Available {
		return nil, &models.ConflictError{TableID: req.TableID, Conflict: check.Conflict}
	}

	reservationID := uuid.New().String()

	// Short-lived Redis gate in front of the transaction so concurrent
	// requests for the same table/date mostly fail fast instead of
	// contending on row locks.
	if s.Locks != nil {
		ok, err := s.Locks.LockSlot(ctx, req.TableID, req.ReservationDate, reservationID)
		if err != nil {
			return nil, &models.PersistenceError{Op: "slot lock", Err: err}
		}
		if !ok {
			return nil, &models.ConflictError{TableID: req.TableID}
		}
		defer func() {
			if err := s.Locks.UnlockSlot(context.Background(), req.TableID, req.ReservationDate, reservationID); err != nil {
				s.Logger.Warn("RESERVATION", fmt.Sprintf("failed to release slot lock for table %s: %v", req.TableID, err))
			}
		}()
	}

	items, total, err := s.priceOrder(ctx, reservationID, req.OrderItems)
	if err != nil {
		return nil, err
	}

	candidate, err := availability.ComputeWindow(req.ReservationDate, req.ReservationTime, req.DurationHours, s.Location)
	if err != nil {
		return nil, models.NewValidationError("reservation_time", err.Error())
	}

	payment := &models.Payment{
		ID:              uuid.New().String(),
		ReservationID:   reservationID,
		Amount:          total,
		PaymentMethod:   models.MethodBankTransfer,
		PaymentProofURL: req.PaymentProofURL,
		PaymentStatus:   models.PaymentUnpaid,
		CreatedAt:       time.Now(),
	}

	ensureAvailable := func(existing []*models.Reservation) error {
		for _, other := range existing {
			window, err := availability.ComputeWindow(other.ReservationDate, other.ReservationTime, other.DurationHours, s.Location)
			if err != nil {
				return fmt.Errorf("reservation %s has malformed schedule: %w", other.ID, err)
			}
			if availability.Overlaps(candidate, window, s.Checker.BufferMinutes) {
				return &models.ConflictError{TableID: req.TableID, Conflict: &models.ConflictDetail{
					ExistingTime:          other.ReservationTime,
					ExistingDuration:      other.DurationHours,
					ExistingEndWithBuffer: window.End.Add(time.Duration(s.Checker.BufferMinutes) * time.Minute).Format("15:04"),
				}}
			}
		}
		return nil
	}

	// Booking codes are random; a unique-constraint hit means regenerate
	// and retry the whole transaction, a bounded number of times.
	var res *models.Reservation
	for attempt := 0; ; attempt++ {
		res = &models.Reservation{
			ID:              reservationID,
			BookingCode:     GenerateBookingCode(time.Now().In(s.Location)),
			CustomerName:    req.CustomerName,
			CustomerEmail:   req.CustomerEmail,
			CustomerPhone:   req.CustomerPhone,
			TableID:         req.TableID,
			ReservationDate: req.ReservationDate,
			ReservationTime: req.ReservationTime,
			NumberOfPeople:  req.NumberOfPeople,
			DurationHours:   req.DurationHours,
			TotalAmount:     total,
			Status:          models.StatusPendingVerification,
			SpecialNotes:    req.SpecialNotes,
			CreatedAt:       time.Now(),
		}

		err = s.DB.CreateReservationAggregate(ctx, res, items, payment, ensureAvailable)
		if err == nil {
			break
		}
		if s.DB.IsUniqueViolation(err) && attempt < s.CodeRetries {
			s.Logger.Warn("RESERVATION", fmt.Sprintf("booking code collision on %s, regenerating (attempt %d)", res.BookingCode, attempt+1))
			continue
		}
		if _, ok := models.AsConflict(err); ok {
			return nil, err
		}
		if _, ok := models.AsValidation(err); ok {
			return nil, err
		}
		return nil, &models.PersistenceError{Op: "create reservation", Err: err}
	}

	s.Logger.LogReservation("CREATE", res.BookingCode, fmt.Sprintf("table %s on %s %s, total %.2f", req.TableID, req.ReservationDate, req.ReservationTime, total))

	if s.Events != nil {
		if err := s.Events.PublishReservationCreated(res); err != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("failed to publish reservation created event: %v", err))
		}
	}

	return s.GetByBookingCode(ctx, res.BookingCode)
}

// GetByBookingCode returns the assembled aggregate: reservation with its
// items (and their menus), table and payment.
func (s *Service) GetByBookingCode(ctx context.Context, code string) (*models.Reservation, error) {
	res, err := s.DB.GetReservationByBookingCode(ctx, code)
	if err != nil {
		return nil, &models.PersistenceError{Op: "load reservation", Err: err}
	}
	if res == nil {
		return nil, &models.NotFoundError{Resource: "reservation", ID: code}
	}
	return res, nil
}

// AttachPaymentProof uploads a proof image and records its URL on the
// reservation's single payment row. A previously uploaded proof is deleted
// from the asset host best-effort; deletion failures never abort the update.
func (s *Service) AttachPaymentProof(ctx context.Context, reservationID, fileName string, content io.Reader) (*models.Payment, error) {
	res, err := s.DB.GetReservationByID(ctx, reservationID)
	if err != nil {
		return nil, &models.PersistenceError{Op: "load reservation", Err: err}
	}
	if res == nil {
		return nil, &models.NotFoundError{Resource: "reservation", ID: reservationID}
	}
	if res.Payment == nil {
		return nil, &models.NotFoundError{Resource: "payment", ID: reservationID}
	}

	name := fmt.Sprintf("payment-%s-%d", res.BookingCode, time.Now().Unix())
	url, err := s.Proofs.Upload(ctx, name, content)
	if err != nil {
		return nil, fmt.Errorf("failed to upload payment proof: %w", err)
	}

	if old := res.Payment.PaymentProofURL; old != "" {
		if err := s.Proofs.Delete(ctx, old); err != nil {
			s.Logger.Warn("ASSETS", fmt.Sprintf("failed to delete superseded proof %s: %v", old, err))
		}
	}

	payment, err := s.DB.UpdatePaymentProof(ctx, reservationID, url)
	if err != nil {
		return nil, &models.PersistenceError{Op: "update payment proof", Err: err}
	}

	s.Logger.LogReservation("PROOF", res.BookingCode, "payment proof attached")
	return payment, nil
}

func (s *Service) priceOrder(ctx context.Context, reservationID string, lines []models.OrderLine) ([]*models.ReservationItem, float64, error) {
	items := make([]*models.ReservationItem, 0, len(lines))
	var total float64

	for _, line := range lines {
		menu, err := s.DB.GetMenu(ctx, line.MenuID)
		if err != nil {
			return nil, 0, &models.PersistenceError{Op: "load menu", Err: err}
		}
		if menu == nil {
			return nil, 0, models.NewValidationError("order_items", fmt.Sprintf("menu %s does not exist", line.MenuID))
		}
		if !menu.IsAvailable {
			return nil, 0, models.NewValidationError("order_items", fmt.Sprintf("menu %s is not available", menu.MenuName))
		}

		price, err := PriceLine(menu, line.OptionIDs, line.Quantity)
		if err != nil {
			return nil, 0, err
		}
		variations, err := SerializeSelections(price.Selections)
		if err != nil {
			return nil, 0, err
		}

		items = append(items, &models.ReservationItem{
			ID:            uuid.New().String(),
			ReservationID: reservationID,
			MenuID:        menu.ID,
			Quantity:      line.Quantity,
			PriceAtOrder:  price.UnitPrice,
			Variations:    variations,
			Subtotal:      price.Subtotal,
		})
		total += price.Subtotal
	}

	return items, round2(total), nil
}

func (s *Service) validateRequest(req models.ReservationRequest) error {
	fields := map[string]string{}

	if len(strings.TrimSpace(req.CustomerName)) < 2 {
		fields["customer_name"] = "must be at least 2 characters"
	}
	if !strings.Contains(req.CustomerEmail, "@") {
		fields["customer_email"] = "must be a valid email address"
	}
	if strings.TrimSpace(req.CustomerPhone) == "" {
		fields["customer_phone"] = "is required"
	}
	if req.TableID == "" {
		fields["table_id"] = "is required"
	}
	if req.NumberOfPeople < 1 || req.NumberOfPeople > 20 {
		fields["number_of_people"] = "must be between 1 and 20"
	}
	if len(req.OrderItems) == 0 {
		fields["order_items"] = "at least one order item is required"
	}
	for _, line := range req.OrderItems {
		if line.Quantity < 1 {
			fields["order_items"] = "quantities must be at least 1"
		}
	}

	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}
	return nil
}
