package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tablebook/internal/models"
)

const tableColumns = `id, table_name, capacity, occupied, reservation_id,
                 created_at, updated_at`

func (db *DB) CreateTable(ctx context.Context, t *models.Table) error {
	query := `INSERT INTO tables (table_name, capacity, occupied, reservation_id, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		t.Name, t.Capacity, t.Occupied, t.ReservationID, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now

	return nil
}

func (db *DB) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	var t models.Table
	query := `SELECT ` + tableColumns + ` FROM tables WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Capacity, &t.Occupied, &t.ReservationID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}
	return &t, nil
}

func (db *DB) GetTables(ctx context.Context) ([]models.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables ORDER BY table_name ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		var t models.Table
		err := rows.Scan(
			&t.ID, &t.Name, &t.Capacity, &t.Occupied, &t.ReservationID,
			&t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}

// SeatReservation marks the table occupied and the reservation seated in a
// single transaction. Both rows change together or not at all; the guarded
// UPDATEs re-check occupancy and status inside the transaction so a racing
// request cannot double-seat.
func (db *DB) SeatReservation(ctx context.Context, tableID, reservationID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()

	result, err := tx.ExecContext(ctx,
		`UPDATE tables SET reservation_id = ?, occupied = 1, updated_at = ? WHERE id = ? AND occupied = 0`,
		reservationID, now, tableID,
	)
	if err != nil {
		return fmt.Errorf("failed to seat table in tx: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM tables WHERE id = ?`, tableID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTableNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read table in tx: %w", err)
		}
		return ErrTableOccupied
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status != ?`,
		models.StatusSeated, now, reservationID, models.StatusSeated,
	)
	if err != nil {
		return fmt.Errorf("failed to update reservation status in tx: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, reservationID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReservationNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read reservation in tx: %w", err)
		}
		return ErrReservationSeated
	}

	return tx.Commit()
}

// FinishTable releases the table and closes out its reservation in a single
// transaction.
func (db *DB) FinishTable(ctx context.Context, tableID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var reservationID sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT reservation_id FROM tables WHERE id = ?`, tableID).Scan(&reservationID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTableNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read table in tx: %w", err)
	}

	now := time.Now()

	_, err = tx.ExecContext(ctx,
		`UPDATE tables SET reservation_id = NULL, occupied = 0, updated_at = ? WHERE id = ?`,
		now, tableID,
	)
	if err != nil {
		return fmt.Errorf("failed to release table in tx: %w", err)
	}

	if reservationID.Valid {
		_, err = tx.ExecContext(ctx,
			`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
			models.StatusFinished, now, reservationID.Int64,
		)
		if err != nil {
			return fmt.Errorf("failed to finish reservation in tx: %w", err)
		}
	}

	return tx.Commit()
}
