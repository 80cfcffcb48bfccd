package availability

import (
	"context"
	"fmt"
	"time"

	"cafe-reservation/internal/models"
)

// TableStore is the read surface the checker needs for tables.
type TableStore interface {
	GetTable(ctx context.Context, id string) (*models.Table, error)
	ListTablesByStatus(ctx context.Context, status models.TableStatus) ([]*models.Table, error)
}

// ReservationStore yields the reservations that can block a slot: same table,
// same date, status in {pending_verification, confirmed}.
type ReservationStore interface {
	ActiveReservationsForTable(ctx context.Context, tableID, date string) ([]*models.Reservation, error)
}

type Service struct {
	Tables        TableStore
	Reservations  ReservationStore
	BufferMinutes int
	Location      *time.Location
}

func NewService(tables TableStore, reservations ReservationStore, bufferMinutes int, loc *time.Location) *Service {
	return &Service{
		Tables:        tables,
		Reservations:  reservations,
		BufferMinutes: bufferMinutes,
		Location:      loc,
	}
}

// ValidateRequest checks the shared date/time/duration inputs at the boundary.
func (s *Service) ValidateRequest(req models.AvailabilityRequest) error {
	fields := map[string]string{}

	if _, err := time.ParseInLocation("2006-01-02", req.ReservationDate, s.Location); err != nil {
		fields["reservation_date"] = "must be a valid date in YYYY-MM-DD format"
	} else {
		today := time.Now().In(s.Location).Format("2006-01-02")
		if req.ReservationDate < today {
			fields["reservation_date"] = "must be today or a future date"
		}
	}
	if _, err := time.Parse("15:04", req.ReservationTime); err != nil {
		fields["reservation_time"] = "must be a valid time in HH:MM format"
	}
	if req.DurationHours < 0.5 || req.DurationHours > 8.0 {
		fields["duration_hours"] = "must be between 0.5 and 8"
	}

	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}
	return nil
}

// CheckTable decides whether one table can host the candidate window.
// Read-only; an unavailable slot is an expected outcome, not an error.
func (s *Service) CheckTable(ctx context.Context, req models.AvailabilityRequest) (*models.AvailabilityResult, error) {
	if err := s.ValidateRequest(req); err != nil {
		return nil, err
	}

	table, err := s.Tables.GetTable(ctx, req.TableID)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, &models.NotFoundError{Resource: "table", ID: req.TableID}
	}

	if table.Status != models.TableAvailable {
		return &models.AvailabilityResult{
			Available: false,
			Table:     table,
			Reason:    fmt.Sprintf("Table status is %s", table.Status),
		}, nil
	}

	candidate, err := ComputeWindow(req.ReservationDate, req.ReservationTime, req.DurationHours, s.Location)
	if err != nil {
		return nil, models.NewValidationError("reservation_time", err.Error())
	}

	conflict, err := s.findConflict(ctx, table.ID, req.ReservationDate, candidate)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return &models.AvailabilityResult{Available: false, Table: table, Conflict: conflict}, nil
	}

	return &models.AvailabilityResult{Available: true, Table: table}, nil
}

// ListTablesWithAvailability applies the per-table check across every
// available-status table, for rendering a floor plan with live availability.
func (s *Service) ListTablesWithAvailability(ctx context.Context, req models.AvailabilityRequest) ([]models.TableAvailability, error) {
	if err := s.ValidateRequest(req); err != nil {
		return nil, err
	}

	candidate, err := ComputeWindow(req.ReservationDate, req.ReservationTime, req.DurationHours, s.Location)
	if err != nil {
		return nil, models.NewValidationError("reservation_time", err.Error())
	}

	tables, err := s.Tables.ListTablesByStatus(ctx, models.TableAvailable)
	if err != nil {
		return nil, err
	}

	result := make([]models.TableAvailability, 0, len(tables))
	for _, table := range tables {
		conflict, err := s.findConflict(ctx, table.ID, req.ReservationDate, candidate)
		if err != nil {
			return nil, err
		}
		result = append(result, models.TableAvailability{
			Table:                 *table,
			IsAvailableForBooking: conflict == nil,
		})
	}
	return result, nil
}

// findConflict returns the first blocking reservation's summary, or nil when
// the slot is free. Any conflict disqualifies the slot; no tie-break needed.
func (s *Service) findConflict(ctx context.Context, tableID, date string, candidate Window) (*models.ConflictDetail, error) {
	existing, err := s.Reservations.ActiveReservationsForTable(ctx, tableID, date)
	if err != nil {
		return nil, err
	}

	for _, res := range existing {
		window, err := ComputeWindow(res.ReservationDate, res.ReservationTime, res.DurationHours, s.Location)
		if err != nil {
			return nil, fmt.Errorf("reservation %s has malformed schedule: %w", res.ID, err)
		}
		if Overlaps(candidate, window, s.BufferMinutes) {
			endWithBuffer := window.End.Add(time.Duration(s.BufferMinutes) * time.Minute)
			return &models.ConflictDetail{
				ExistingTime:          res.ReservationTime,
				ExistingDuration:      res.DurationHours,
				ExistingEndWithBuffer: endWithBuffer.Format("15:04"),
			}, nil
		}
	}
	return nil, nil
}
