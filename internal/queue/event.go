// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// Event types carried on the ticket.events queue.
const (
	EventTicketBooked    = "ticket.booked"
	EventTicketCancelled = "ticket.cancelled"
)

// TicketEvent is published after a booking or cancellation commits. It
// carries enough information for downstream consumers to log or notify
// without querying the primary database.
type TicketEvent struct {
	Type       string `json:"type"` // ticket.booked | ticket.cancelled
	TicketID   uint64 `json:"ticket_id"`
	UserID     uint64 `json:"user_id"`
	Username   string `json:"username"`
	ShowtimeID uint64 `json:"showtime_id"`
	SeatCode   string `json:"seat_code"`
	OccurredAt string `json:"occurred_at"`
}
