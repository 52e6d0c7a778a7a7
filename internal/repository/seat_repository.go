package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions
	"fmt"          // fmt builds seat codes like "A1"
)

// Seat statuses. A seat is 'booked' exactly while an active ticket
// references it; booking and cancellation flip both facts in one
// transaction.
const (
	SeatAvailable = "available"
	SeatBooked    = "booked"
)

// Seat is the projection returned to clients: position and availability.
type Seat struct {
	SeatCode string `json:"seat_code"` // e.g. A1 .. E8
	Status   string `json:"status"`   // available | booked
}

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// CountByShowtimeTx returns the number of seat rows a showtime has,
// inside the caller's transaction.
func (r *SeatRepo) CountByShowtimeTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM seats WHERE showtime_id = ?", showtimeID).Scan(&n)
	return n, err
}

// CreateGridTx bulk-inserts the rows x cols seat grid for a showtime in a
// single statement: rows are lettered A, B, C, ... and columns numbered
// from 1, so a 5x8 grid spans A1 through E8. All seats start available.
// The caller must treat a duplicate-key error as "already provisioned".
func (r *SeatRepo) CreateGridTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	query := `INSERT INTO seats (showtime_id, seat_code, status) VALUES `
	args := make([]interface{}, 0, rows*cols*3)
	for ri := 0; ri < rows; ri++ {
		for ci := 1; ci <= cols; ci++ {
			if len(args) > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			code := fmt.Sprintf("%c%d", 'A'+ri, ci)
			args = append(args, showtimeID, code, SeatAvailable)
		}
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetStatusForUpdateTx reads a seat's status while taking an exclusive
// row lock. Concurrent bookers of the same seat serialize here: the
// second transaction blocks until the first commits, then observes the
// committed status. Returns ErrSeatNotFound for unknown seats.
func (r *SeatRepo) GetStatusForUpdateTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatCode string) (string, error) {
	var status string
	err := tx.QueryRowContext(ctx,
		"SELECT status FROM seats WHERE showtime_id = ? AND seat_code = ? FOR UPDATE",
		showtimeID, seatCode).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSeatNotFound
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// MarkBookedTx flips a seat to booked and records who booked it and when.
func (r *SeatRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatCode string, userID uint64, bookedAt string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE seats SET status = ?, booked_by = ?, booked_at = ? WHERE showtime_id = ? AND seat_code = ?",
		SeatBooked, userID, bookedAt, showtimeID, seatCode)
	return err
}

// MarkAvailableTx returns a seat to the pool, clearing the booking marks.
func (r *SeatRepo) MarkAvailableTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatCode string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE seats SET status = ?, booked_by = NULL, booked_at = NULL WHERE showtime_id = ? AND seat_code = ?",
		SeatAvailable, showtimeID, seatCode)
	return err
}

// ListByShowtime returns the seat grid of a showtime ordered by seat code.
func (r *SeatRepo) ListByShowtime(ctx context.Context, showtimeID uint64) ([]Seat, error) {
	const q = `SELECT seat_code, status FROM seats WHERE showtime_id = ? ORDER BY seat_code`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Seat, 0)
	for rows.Next() {
		var s Seat
		if err := rows.Scan(&s.SeatCode, &s.Status); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
