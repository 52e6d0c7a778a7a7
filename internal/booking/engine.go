// Package booking implements the seat-exclusivity state machine on top of
// the store's transactions. Its invariant: a seat is 'booked' if and only
// if an active ticket exists for that (showtime, seat_code) pair, and only
// BookSeat and CancelTicket may change either fact, always together and
// atomically. Exclusivity comes from InnoDB row locks (SELECT ... FOR
// UPDATE on the seat row), not from any application-level mutex, so
// bookings on unrelated seats never serialize against each other.
package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-ticket-server/internal/repository"
)

// ErrSeatTaken is returned when the requested seat is already booked.
var ErrSeatTaken = errors.New("seat already booked")

// ErrTicketNotActive is returned when cancelling a ticket that is already
// cancelled.
var ErrTicketNotActive = errors.New("ticket already cancelled")

// Engine coordinates provisioning, booking and cancellation. Rows and Cols
// define the seat grid created on first touch of a showtime.
type Engine struct {
	db      *sql.DB
	seats   *repository.SeatRepo
	tickets *repository.TicketRepo
	rows    int
	cols    int
}

// New constructs an Engine. rows/cols <= 0 fall back to the 5x8 default.
func New(db *sql.DB, seats *repository.SeatRepo, tickets *repository.TicketRepo, rows, cols int) *Engine {
	if rows <= 0 {
		rows = 5
	}
	if cols <= 0 {
		cols = 8
	}
	return &Engine{db: db, seats: seats, tickets: tickets, rows: rows, cols: cols}
}

// ProvisionSeats creates the seat grid for a showtime if it does not exist
// yet, in its own transaction. It is idempotent and safe under concurrent
// first-touch callers: the (showtime_id, seat_code) uniqueness constraint
// makes the losing writer fail with a duplicate key, which is treated as
// "already provisioned".
func (e *Engine) ProvisionSeats(ctx context.Context, showtimeID uint64) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := e.ensureSeatsTx(ctx, tx, showtimeID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ensureSeatsTx provisions inside an existing transaction. The count check
// is only an optimization; correctness rests on the uniqueness constraint.
func (e *Engine) ensureSeatsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) error {
	n, err := e.seats.CountByShowtimeTx(ctx, tx, showtimeID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := e.seats.CreateGridTx(ctx, tx, showtimeID, e.rows, e.cols); err != nil {
		if repository.IsDuplicateKey(err) {
			// A concurrent first-touch caller won the insert race.
			return nil
		}
		return err
	}
	return nil
}

// BookSeat reserves one seat for one user. Inside a single transaction it
// provisions the grid if needed, locks the seat row, verifies it is
// available, flips it to booked and inserts the active ticket. Exactly one
// of two concurrent bookers of the same seat succeeds; the other observes
// the committed 'booked' status after the lock is released and fails with
// ErrSeatTaken. Returns the new ticket ID on success.
func (e *Engine) BookSeat(ctx context.Context, userID, showtimeID uint64, seatCode string) (uint64, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := e.ensureSeatsTx(ctx, tx, showtimeID); err != nil {
		return 0, err
	}
	status, err := e.seats.GetStatusForUpdateTx(ctx, tx, showtimeID, seatCode)
	if err != nil {
		return 0, err // ErrSeatNotFound or a driver failure
	}
	if status != repository.SeatAvailable {
		return 0, ErrSeatTaken
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := e.seats.MarkBookedTx(ctx, tx, showtimeID, seatCode, userID, now); err != nil {
		return 0, err
	}
	ticketID, err := e.tickets.CreateTx(ctx, tx, userID, showtimeID, seatCode, now)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return ticketID, nil
}

// CancelTicket cancels one of the caller's tickets and frees its seat, both
// in the same transaction. Tickets owned by other users are reported as
// not found; cancelling twice yields ErrTicketNotActive.
func (e *Engine) CancelTicket(ctx context.Context, userID, ticketID uint64) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	showtimeID, seatCode, status, err := e.tickets.GetForUpdateTx(ctx, tx, ticketID, userID)
	if err != nil {
		return err // ErrTicketNotFound or a driver failure
	}
	if status != repository.TicketActive {
		return ErrTicketNotActive
	}
	if err := e.tickets.MarkCancelledTx(ctx, tx, ticketID); err != nil {
		return err
	}
	if err := e.seats.MarkAvailableTx(ctx, tx, showtimeID, seatCode); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
