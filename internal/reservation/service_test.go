package reservation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"cafe-reservation/internal/availability"
	"cafe-reservation/internal/logger"
	"cafe-reservation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations for testing

type mockDBLayer struct {
	menus        map[string]*models.Menu
	existing     []*models.Reservation
	saved        *models.Reservation
	savedItems   []*models.ReservationItem
	savedPayment *models.Payment
	savedCodes   []string
	failCreates  int
	createErr    error
}

func newMockDBLayer() *mockDBLayer {
	return &mockDBLayer{menus: map[string]*models.Menu{}}
}

func (m *mockDBLayer) GetMenu(_ context.Context, id string) (*models.Menu, error) {
	return m.menus[id], nil
}

func (m *mockDBLayer) CreateReservationAggregate(_ context.Context, res *models.Reservation, items []*models.ReservationItem, payment *models.Payment, ensureAvailable func([]*models.Reservation) error) error {
	m.savedCodes = append(m.savedCodes, res.BookingCode)
	if err := ensureAvailable(m.existing); err != nil {
		return err
	}
	if m.failCreates > 0 {
		m.failCreates--
		return m.createErr
	}
	m.saved = res
	m.savedItems = items
	m.savedPayment = payment
	return nil
}

func (m *mockDBLayer) GetReservationByBookingCode(_ context.Context, code string) (*models.Reservation, error) {
	if m.saved != nil && m.saved.BookingCode == code {
		return m.saved, nil
	}
	return nil, nil
}

func (m *mockDBLayer) GetReservationByID(_ context.Context, id string) (*models.Reservation, error) {
	if m.saved != nil && m.saved.ID == id {
		return m.saved, nil
	}
	return nil, nil
}

func (m *mockDBLayer) UpdatePaymentProof(_ context.Context, reservationID, proofURL string) (*models.Payment, error) {
	if m.savedPayment == nil || m.savedPayment.ReservationID != reservationID {
		return nil, errors.New("payment not found")
	}
	m.savedPayment.PaymentProofURL = proofURL
	return m.savedPayment, nil
}

func (m *mockDBLayer) IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unique")
}

type mockSlotLocker struct {
	locked   map[string]string
	unlocked []string
	denyLock bool
}

func newMockSlotLocker() *mockSlotLocker {
	return &mockSlotLocker{locked: map[string]string{}}
}

func (m *mockSlotLocker) LockSlot(_ context.Context, tableID, date, ownerID string) (bool, error) {
	if m.denyLock {
		return false, nil
	}
	m.locked[tableID+":"+date] = ownerID
	return true, nil
}

func (m *mockSlotLocker) UnlockSlot(_ context.Context, tableID, date, _ string) error {
	m.unlocked = append(m.unlocked, tableID+":"+date)
	return nil
}

type mockPublisher struct {
	published []*models.Reservation
	err       error
}

func (m *mockPublisher) PublishReservationCreated(res *models.Reservation) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, res)
	return nil
}

type mockProofStore struct {
	uploads []string
	deletes []string
	url     string
}

func (m *mockProofStore) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	m.uploads = append(m.uploads, name)
	return m.url, nil
}

func (m *mockProofStore) Delete(_ context.Context, url string) error {
	m.deletes = append(m.deletes, url)
	return nil
}

type stubTableStore struct {
	table *models.Table
}

func (s *stubTableStore) GetTable(_ context.Context, _ string) (*models.Table, error) {
	return s.table, nil
}

func (s *stubTableStore) ListTablesByStatus(_ context.Context, _ models.TableStatus) ([]*models.Table, error) {
	return []*models.Table{s.table}, nil
}

type stubReservationStore struct {
	db *mockDBLayer
}

func (s *stubReservationStore) ActiveReservationsForTable(_ context.Context, _, _ string) ([]*models.Reservation, error) {
	return s.db.existing, nil
}

func futureDate() string {
	return time.Now().AddDate(0, 0, 7).Format("2006-01-02")
}

func validRequest() models.ReservationRequest {
	return models.ReservationRequest{
		CustomerName:    "Budi Santoso",
		CustomerEmail:   "budi@example.com",
		CustomerPhone:   "+62812345678",
		TableID:         "tbl-01",
		ReservationDate: futureDate(),
		ReservationTime: "19:00",
		NumberOfPeople:  2,
		DurationHours:   2,
		OrderItems: []models.OrderLine{
			{MenuID: "menu-latte", Quantity: 2, OptionIDs: []string{"vo-size-lg"}},
		},
	}
}

func newTestService(t *testing.T, dbl *mockDBLayer, locks *mockSlotLocker, events *mockPublisher, proofs *mockProofStore) *Service {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	dbl.menus["menu-latte"] = latteMenu()
	checker := availability.NewService(
		&stubTableStore{table: &models.Table{ID: "tbl-01", Status: models.TableAvailable}},
		&stubReservationStore{db: dbl},
		30, loc,
	)
	return NewService(dbl, locks, events, proofs, checker, logger.NewLogger(), loc, 3)
}

func TestCreateReservationPersistsAggregate(t *testing.T) {
	dbl := newMockDBLayer()
	locks := newMockSlotLocker()
	events := &mockPublisher{}
	svc := newTestService(t, dbl, locks, events, &mockProofStore{})

	res, err := svc.CreateReservation(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPendingVerification, res.Status)
	assert.Regexp(t, `^RSV-\d{8}-[A-Z0-9]{6}$`, res.BookingCode)
	assert.Equal(t, 58000.0, res.TotalAmount)

	require.Len(t, dbl.savedItems, 1)
	assert.Equal(t, 29000.0, dbl.savedItems[0].PriceAtOrder)
	assert.Equal(t, 58000.0, dbl.savedItems[0].Subtotal)
	assert.Contains(t, dbl.savedItems[0].Variations, "Large")

	require.NotNil(t, dbl.savedPayment)
	assert.Equal(t, models.PaymentUnpaid, dbl.savedPayment.PaymentStatus)
	assert.Equal(t, 58000.0, dbl.savedPayment.Amount)
	assert.Equal(t, models.MethodBankTransfer, dbl.savedPayment.PaymentMethod)

	require.Len(t, events.published, 1)
	assert.Len(t, locks.unlocked, 1, "slot lock must be released")
}

func TestCreateReservationRejectsInvalidInput(t *testing.T) {
	dbl := newMockDBLayer()
	svc := newTestService(t, dbl, newMockSlotLocker(), &mockPublisher{}, &mockProofStore{})

	req := validRequest()
	req.CustomerName = "B"
	req.CustomerEmail = "not-an-email"
	req.NumberOfPeople = 0
	req.OrderItems = nil

	_, err := svc.CreateReservation(context.Background(), req)
	ve, ok := models.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "customer_name")
	assert.Contains(t, ve.Fields, "customer_email")
	assert.Contains(t, ve.Fields, "number_of_people")
	assert.Contains(t, ve.Fields, "order_items")
	assert.Nil(t, dbl.saved, "nothing should persist on validation failure")
}

func TestCreateReservationConflictAborts(t *testing.T) {
	dbl := newMockDBLayer()
	dbl.existing = []*models.Reservation{{
		ID:              "existing",
		TableID:         "tbl-01",
		ReservationDate: futureDate(),
		ReservationTime: "18:00",
		DurationHours:   2,
		Status:          models.StatusConfirmed,
	}}
	svc := newTestService(t, dbl, newMockSlotLocker(), &mockPublisher{}, &mockProofStore{})

	req := validRequest()
	req.ReservationTime = "19:30" // inside 18:00-20:00 plus 30min buffer

	_, err := svc.CreateReservation(context.Background(), req)
	ce, ok := models.AsConflict(err)
	require.True(t, ok)
	assert.Equal(t, "tbl-01", ce.TableID)
	require.NotNil(t, ce.Conflict)
	assert.Equal(t, "20:30", ce.Conflict.ExistingEndWithBuffer)
	assert.Nil(t, dbl.saved)
}

func TestCreateReservationAllowedAfterBuffer(t *testing.T) {
	dbl := newMockDBLayer()
	dbl.existing = []*models.Reservation{{
		ID:              "existing",
		TableID:         "tbl-01",
		ReservationDate: futureDate(),
		ReservationTime: "16:00",
		DurationHours:   2,
		Status:          models.StatusConfirmed,
	}}
	svc := newTestService(t, dbl, newMockSlotLocker(), &mockPublisher{}, &mockProofStore{})

	req := validRequest()
	req.ReservationTime = "18:30" // exactly at end-with-buffer

	_, err := svc.CreateReservation(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, dbl.saved)
}

func TestCreateReservationFailsFastOnLockedSlot(t *testing.T) {
	dbl := newMockDBLayer()
	locks := newMockSlotLocker()
	locks.denyLock = true
	svc := newTestService(t, dbl, locks, &mockPublisher{}, &mockProofStore{})

	_, err := svc.CreateReservation(context.Background(), validRequest())
	_, ok := models.AsConflict(err)
	require.True(t, ok)
	assert.Empty(t, dbl.savedCodes, "transaction must not start when the slot is locked")
}

func TestCreateReservationRetriesCodeCollision(t *testing.T) {
	dbl := newMockDBLayer()
	dbl.failCreates = 2
	dbl.createErr = fmt.Errorf("pq: duplicate key value violates unique constraint %q", "reservations_booking_code_key")
	svc := newTestService(t, dbl, newMockSlotLocker(), &mockPublisher{}, &mockProofStore{})

	res, err := svc.CreateReservation(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, dbl.savedCodes, 3)
	assert.Equal(t, res.BookingCode, dbl.savedCodes[2])
	assert.NotEqual(t, dbl.savedCodes[0], dbl.savedCodes[2], "a fresh code must be generated per attempt")
}

func TestCreateReservationGivesUpAfterRetryBudget(t *testing.T) {
	dbl := newMockDBLayer()
	dbl.failCreates = 10
	dbl.createErr = errors.New("unique constraint violated")
	svc := newTestService(t, dbl, newMockSlotLocker(), &mockPublisher{}, &mockProofStore{})

	_, err := svc.CreateReservation(context.Background(), validRequest())
	require.Error(t, err)
	assert.Len(t, dbl.savedCodes, 4) // initial attempt + 3 retries
}

func TestCreateReservationRejectsUnknownMenu(t *testing.T) {
	dbl := newMockDBLayer()
	svc := newTestService(t, dbl, newMockSlotLocker(), &mockPublisher{}, &mockProofStore{})

	req := validRequest()
	req.OrderItems = []models.OrderLine{{MenuID: "menu-ghost", Quantity: 1}}

	_, err := svc.CreateReservation(context.Background(), req)
	ve, ok := models.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields["order_items"], "does not exist")
}

func TestCreateReservationRejectsUnavailableMenu(t *testing.T) {
	dbl := newMockDBLayer()
	svc := newTestService(t, dbl, newMockSlotLocker(), &mockPublisher{}, &mockProofStore{})
	dbl.menus["menu-latte"].IsAvailable = false

	_, err := svc.CreateReservation(context.Background(), validRequest())
	ve, ok := models.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields["order_items"], "not available")
}

func TestCreateReservationSurvivesPublishFailure(t *testing.T) {
	dbl := newMockDBLayer()
	events := &mockPublisher{err: errors.New("broker down")}
	svc := newTestService(t, dbl, newMockSlotLocker(), events, &mockProofStore{})

	res, err := svc.CreateReservation(context.Background(), validRequest())
	require.NoError(t, err, "event publishing is best-effort")
	assert.NotNil(t, res)
}

func TestAttachPaymentProofReplacesOldUpload(t *testing.T) {
	dbl := newMockDBLayer()
	proofs := &mockProofStore{url: "https://assets.example/new-proof.jpg"}
	svc := newTestService(t, dbl, newMockSlotLocker(), &mockPublisher{}, proofs)

	res, err := svc.CreateReservation(context.Background(), validRequest())
	require.NoError(t, err)
	res.Payment = dbl.savedPayment
	res.Payment.PaymentProofURL = "https://assets.example/old-proof.jpg"

	payment, err := svc.AttachPaymentProof(context.Background(), res.ID, "proof.jpg", strings.NewReader("img"))
	require.NoError(t, err)

	assert.Equal(t, "https://assets.example/new-proof.jpg", payment.PaymentProofURL)
	require.Len(t, proofs.deletes, 1)
	assert.Equal(t, "https://assets.example/old-proof.jpg", proofs.deletes[0])
}

func TestAttachPaymentProofUnknownReservation(t *testing.T) {
	dbl := newMockDBLayer()
	svc := newTestService(t, dbl, newMockSlotLocker(), &mockPublisher{}, &mockProofStore{})

	_, err := svc.AttachPaymentProof(context.Background(), "missing", "proof.jpg", strings.NewReader("img"))
	_, ok := models.AsNotFound(err)
	assert.True(t, ok)
}
