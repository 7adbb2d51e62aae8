package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tablebook/internal/models"
)

const reservationColumns = `id, first_name, last_name, mobile_number,
                 reservation_date, reservation_time, people, status,
                 created_at, updated_at`

func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	query := `INSERT INTO reservations (
				first_name, last_name, mobile_number, reservation_date,
				reservation_time, people, status, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		r.FirstName,
		r.LastName,
		r.MobileNumber,
		r.Date,
		r.Time,
		r.People,
		r.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now

	return nil
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	var r models.Reservation
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.FirstName, &r.LastName, &r.MobileNumber,
		&r.Date, &r.Time, &r.People, &r.Status,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &r, nil
}

// UpdateReservation replaces the detail fields of an existing reservation.
// Status is not touched here; transitions go through UpdateReservationStatus.
func (db *DB) UpdateReservation(ctx context.Context, id int64, r *models.Reservation) error {
	query := `UPDATE reservations
	          SET first_name = ?, last_name = ?, mobile_number = ?,
	              reservation_date = ?, reservation_time = ?, people = ?, updated_at = ?
	          WHERE id = ?`
	result, err := db.ExecContext(ctx, query,
		r.FirstName, r.LastName, r.MobileNumber,
		r.Date, r.Time, r.People, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (db *DB) UpdateReservationStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// GetReservationsByDate returns the dashboard listing for one day: finished
// reservations drop out, the rest sort by time.
func (db *DB) GetReservationsByDate(ctx context.Context, date string) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
	          FROM reservations
	          WHERE reservation_date = ? AND status != ?
	          ORDER BY reservation_time ASC`
	rows, err := db.QueryContext(ctx, query, date, models.StatusFinished)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by date: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// SearchReservationsByMobile matches on digits only: punctuation is stripped
// from both the stored number and the query before the LIKE comparison, so
// "5551234567" finds "(555) 123-4567".
func (db *DB) SearchReservationsByMobile(ctx context.Context, mobile string) ([]models.Reservation, error) {
	digits := digitsOnly(mobile)
	query := `SELECT ` + reservationColumns + `
	          FROM reservations
	          WHERE replace(replace(replace(replace(mobile_number, '(', ''), ')', ''), '-', ''), ' ', '') LIKE ?
	          ORDER BY reservation_date ASC`
	rows, err := db.QueryContext(ctx, query, "%"+digits+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search reservations: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

func (db *DB) GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
	          FROM reservations
	          WHERE reservation_date >= ? AND reservation_date <= ?
	          ORDER BY reservation_date ASC, reservation_time ASC`
	rows, err := db.QueryContext(ctx, query, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by date range: %w", err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

func scanReservations(rows *sql.Rows) ([]models.Reservation, error) {
	var reservations []models.Reservation
	for rows.Next() {
		var r models.Reservation
		err := rows.Scan(
			&r.ID, &r.FirstName, &r.LastName, &r.MobileNumber,
			&r.Date, &r.Time, &r.People, &r.Status,
			&r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
