package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Ticket statuses.
const (
	TicketActive    = "active"
	TicketCancelled = "cancelled"
)

// ErrTicketNotFound is returned when a ticket does not exist or belongs to
// a different user. The two cases are deliberately indistinguishable so a
// caller cannot probe other users' ticket IDs.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketDetail is the projection returned by my_tickets: the ticket plus
// its showtime and movie context, matching what clients render.
type TicketDetail struct {
	ID         uint64 `json:"id"`
	SeatCode   string `json:"seat_code"`
	CreatedAt  string `json:"created_at"`
	Status     string `json:"status"`
	StartTime  string `json:"start_time"`
	Hall       string `json:"hall"`
	Price      int64  `json:"price"`
	MovieTitle string `json:"movie_title"`
}

// TicketRepo encapsulates database operations for tickets.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateTx inserts an active ticket inside the caller's transaction and
// returns the new ticket ID.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID, showtimeID uint64, seatCode, createdAt string) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO tickets (user_id, showtime_id, seat_code, created_at, status) VALUES (?,?,?,?,?)",
		userID, showtimeID, seatCode, createdAt, TicketActive)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetForUpdateTx loads a ticket owned by userID while taking an exclusive
// row lock, so concurrent cancels of the same ticket serialize. Returns
// ErrTicketNotFound when the ticket is absent or owned by someone else.
func (r *TicketRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, ticketID, userID uint64) (showtimeID uint64, seatCode, status string, err error) {
	err = tx.QueryRowContext(ctx,
		"SELECT showtime_id, seat_code, status FROM tickets WHERE id = ? AND user_id = ? FOR UPDATE",
		ticketID, userID).Scan(&showtimeID, &seatCode, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", "", ErrTicketNotFound
	}
	if err != nil {
		return 0, "", "", err
	}
	return showtimeID, seatCode, status, nil
}

// MarkCancelledTx flips a ticket to cancelled.
func (r *TicketRepo) MarkCancelledTx(ctx context.Context, tx *sql.Tx, ticketID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE tickets SET status = ? WHERE id = ?", TicketCancelled, ticketID)
	return err
}

// ListByUser returns the user's tickets, newest first, joined with
// showtime and movie details.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64) ([]TicketDetail, error) {
	const q = `SELECT t.id, t.seat_code, t.created_at, t.status,
	                  s.start_time, s.hall, s.price,
	                  m.title
	           FROM tickets t
	           JOIN showtimes s ON s.id = t.showtime_id
	           JOIN movies m ON m.id = s.movie_id
	           WHERE t.user_id = ?
	           ORDER BY t.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]TicketDetail, 0)
	for rows.Next() {
		var d TicketDetail
		if err := rows.Scan(&d.ID, &d.SeatCode, &d.CreatedAt, &d.Status,
			&d.StartTime, &d.Hall, &d.Price, &d.MovieTitle); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
