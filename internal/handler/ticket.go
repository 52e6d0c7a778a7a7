package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinema-ticket-server/internal/booking"
	"github.com/iliyamo/cinema-ticket-server/internal/protocol"
	"github.com/iliyamo/cinema-ticket-server/internal/queue"
	"github.com/iliyamo/cinema-ticket-server/internal/repository"
	queue_publisher "github.com/iliyamo/cinema-ticket-server/internal/service"
	"github.com/iliyamo/cinema-ticket-server/internal/session"
)

// book reserves a single seat for the calling user. Seat codes are
// normalized to upper case so "a1" and "A1" address the same seat. The
// heavy lifting — locking, invariant maintenance, rollback — lives in the
// booking engine.
func (h *Handler) book(ctx context.Context, user session.User, data map[string]any) protocol.Response {
	showtimeID, ok := getUint(data, "showtime_id")
	if !ok {
		return protocol.Errorf("showtime_id required")
	}
	seatCode := strings.ToUpper(getString(data, "seat_code"))
	if seatCode == "" {
		return protocol.Errorf("seat_code required")
	}
	if _, err := h.Showtimes.GetByID(ctx, showtimeID); err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return protocol.Errorf("Showtime not found")
		}
		return serverError("book", err)
	}

	ticketID, err := h.Engine.BookSeat(ctx, user.ID, showtimeID, seatCode)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatNotFound):
			return protocol.Errorf("Seat not found")
		case errors.Is(err, booking.ErrSeatTaken):
			return protocol.Errorf("Seat already booked")
		}
		return serverError("book", err)
	}

	// Best effort: the booking is committed whether or not the event gets out.
	_ = queue_publisher.PublishTicketEvent(ctx, queue.TicketEvent{
		Type:       queue.EventTicketBooked,
		TicketID:   ticketID,
		UserID:     user.ID,
		Username:   user.Username,
		ShowtimeID: showtimeID,
		SeatCode:   seatCode,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return protocol.OK(map[string]any{"message": "Booked", "ticket_id": ticketID})
}

// myTickets lists the caller's tickets, newest first.
func (h *Handler) myTickets(ctx context.Context, user session.User) protocol.Response {
	tickets, err := h.Tickets.ListByUser(ctx, user.ID)
	if err != nil {
		return serverError("my_tickets", err)
	}
	return protocol.OK(map[string]any{"tickets": tickets})
}

// cancel voids one of the caller's tickets and frees its seat.
func (h *Handler) cancel(ctx context.Context, user session.User, data map[string]any) protocol.Response {
	ticketID, ok := getUint(data, "ticket_id")
	if !ok {
		return protocol.Errorf("ticket_id required")
	}
	if err := h.Engine.CancelTicket(ctx, user.ID, ticketID); err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketNotFound):
			return protocol.Errorf("Ticket not found")
		case errors.Is(err, booking.ErrTicketNotActive):
			return protocol.Errorf("Ticket already cancelled")
		}
		return serverError("cancel", err)
	}

	_ = queue_publisher.PublishTicketEvent(ctx, queue.TicketEvent{
		Type:       queue.EventTicketCancelled,
		TicketID:   ticketID,
		UserID:     user.ID,
		Username:   user.Username,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})

	return protocol.OK(map[string]any{"message": "Cancelled"})
}
