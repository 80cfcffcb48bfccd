package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"cafe-reservation/internal/models"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

type DB struct {
	Bun *bun.DB
}

// ---------------- TABLES ----------------

func (d *DB) GetTable(ctx context.Context, id string) (*models.Table, error) {
	var table models.Table
	err := d.Bun.NewSelect().
		Model(&table).
		Relation("TableType").
		Where("\"table\".id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (d *DB) ListTablesByStatus(ctx context.Context, status models.TableStatus) ([]*models.Table, error) {
	var tables []*models.Table
	err := d.Bun.NewSelect().
		Model(&tables).
		Relation("TableType").
		Where("\"table\".status = ?", status).
		Order("table_number").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (d *DB) ListTables(ctx context.Context, floor int) ([]*models.Table, error) {
	var tables []*models.Table
	q := d.Bun.NewSelect().
		Model(&tables).
		Relation("TableType").
		Order("table_number")
	if floor > 0 {
		q = q.Where("floor = ?", floor)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return tables, nil
}

// ---------------- CATALOG ----------------

// GetMenu loads one menu with its variation groups and their options, as the
// pricing calculator needs them.
func (d *DB) GetMenu(ctx context.Context, id string) (*models.Menu, error) {
	var menu models.Menu
	err := d.Bun.NewSelect().
		Model(&menu).
		Relation("Category").
		Relation("VariationGroups").
		Relation("VariationGroups.Options", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("sort_order")
		}).
		Where("menu.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

// ---------------- RESERVATIONS ----------------

// ActiveReservationsForTable returns the reservations that can block a slot:
// same table, same date, status pending_verification or confirmed.
func (d *DB) ActiveReservationsForTable(ctx context.Context, tableID, date string) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := d.Bun.NewSelect().
		Model(&reservations).
		Where("table_id = ?", tableID).
		Where("reservation_date = ?", date).
		Where("status IN (?)", bun.In([]models.ReservationStatus{
			models.StatusPendingVerification,
			models.StatusConfirmed,
		})).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// CreateReservationAggregate writes the reservation, its items and its
// payment as one transaction. The table's active reservations for the date
// are re-read inside the transaction (with row locks on postgres) and passed
// to ensureAvailable before anything is inserted; any error rolls the whole
// unit back.
func (d *DB) CreateReservationAggregate(ctx context.Context, res *models.Reservation, items []*models.ReservationItem, payment *models.Payment, ensureAvailable func(existing []*models.Reservation) error) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx bun.Tx) error {
		var existing []*models.Reservation
		q := tx.NewSelect().
			Model(&existing).
			Where("table_id = ?", res.TableID).
			Where("reservation_date = ?", res.ReservationDate).
			Where("status IN (?)", bun.In([]models.ReservationStatus{
				models.StatusPendingVerification,
				models.StatusConfirmed,
			}))
		if d.Bun.Dialect().Name() == dialect.PG {
			q = q.For("UPDATE")
		}
		if err := q.Scan(ctx); err != nil {
			return err
		}

		if err := ensureAvailable(existing); err != nil {
			return err
		}

		if _, err := tx.NewInsert().Model(res).Exec(ctx); err != nil {
			return err
		}
		if len(items) > 0 {
			if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
				return err
			}
		}
		if _, err := tx.NewInsert().Model(payment).Exec(ctx); err != nil {
			return err
		}
		return nil
	})
}

// GetReservationByBookingCode assembles the full aggregate for one booking.
func (d *DB) GetReservationByBookingCode(ctx context.Context, code string) (*models.Reservation, error) {
	var res models.Reservation
	err := d.Bun.NewSelect().
		Model(&res).
		Relation("Table").
		Relation("Table.TableType").
		Relation("Items").
		Relation("Items.Menu").
		Relation("Payment").
		Where("booking_code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (d *DB) GetReservationByID(ctx context.Context, id string) (*models.Reservation, error) {
	var res models.Reservation
	err := d.Bun.NewSelect().
		Model(&res).
		Relation("Table").
		Relation("Table.TableType").
		Relation("Items").
		Relation("Items.Menu").
		Relation("Payment").
		Where("reservation.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ReservationFilter narrows the admin reservation list.
type ReservationFilter struct {
	Status string
	Date   string
	Search string
	Limit  int
	Offset int
}

func (d *DB) ListReservations(ctx context.Context, filter ReservationFilter) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	q := d.Bun.NewSelect().
		Model(&reservations).
		Relation("Table").
		Relation("Items").
		Relation("Items.Menu").
		Relation("Payment").
		Order("reservation.created_at DESC")

	if filter.Status != "" && filter.Status != "all" {
		// Qualified: the joined tables relation carries a status column too.
		q = q.Where("reservation.status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("reservation_date = ?", filter.Date)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("booking_code LIKE ?", pattern).
				WhereOr("customer_name LIKE ?", pattern)
		})
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return reservations, nil
}

// ListConfirmedReservations feeds the auto-complete sweep.
func (d *DB) ListConfirmedReservations(ctx context.Context) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := d.Bun.NewSelect().
		Model(&reservations).
		Where("status = ?", models.StatusConfirmed).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

// ---------------- STATUS TRANSITIONS ----------------

// UpdateVerification applies a verify/reject decision: both the reservation
// and its payment row change together or not at all.
func (d *DB) UpdateVerification(ctx context.Context, res *models.Reservation, payment *models.Payment) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model(res).
			Column("status", "verified_by", "verified_at", "rejection_reason", "booking_qr").
			Where("id = ?", res.ID).
			Exec(ctx)
		if err != nil {
			return err
		}
		_, err = tx.NewUpdate().
			Model(payment).
			Column("payment_status", "verified_by", "verified_at", "paid_at").
			Where("id = ?", payment.ID).
			Exec(ctx)
		return err
	})
}

// UpdateReservationStatus performs a guarded status write: the row only
// changes when it is still in the expected prior status, so concurrent
// transitions cannot silently overwrite each other. Returns false when the
// guard did not match.
func (d *DB) UpdateReservationStatus(ctx context.Context, id string, from, to models.ReservationStatus) (bool, error) {
	result, err := d.Bun.NewUpdate().
		Model((*models.Reservation)(nil)).
		Set("status = ?", to).
		Where("id = ?", id).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ---------------- PAYMENTS ----------------

// UpdatePaymentProof records the proof URL on the reservation's single
// payment row. Both upload paths (at creation and later) converge here;
// a second payment row is never created.
func (d *DB) UpdatePaymentProof(ctx context.Context, reservationID, proofURL string) (*models.Payment, error) {
	_, err := d.Bun.NewUpdate().
		Model((*models.Payment)(nil)).
		Set("payment_proof_url = ?", proofURL).
		Where("reservation_id = ?", reservationID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	var payment models.Payment
	err = d.Bun.NewSelect().
		Model(&payment).
		Where("reservation_id = ?", reservationID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// IsUniqueViolation reports whether err is a unique-constraint failure
// (booking code collision on insert). Retryable by regenerating the code.
func (d *DB) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// sqlite (tests) reports unique failures by message only.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
