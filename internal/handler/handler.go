// Package handler routes decoded requests to their actions and enforces
// the three access tiers: public (ping, register, login), authenticated
// (token resolvable to a live session) and admin-only. Field validation
// happens here, before any store operation runs; store sentinel errors are
// translated into protocol error messages; panics are converted into a
// generic server error so no request can take down its connection.
package handler

import (
	"context"
	"log"
	"math"
	"strings"

	"github.com/iliyamo/cinema-ticket-server/internal/booking"
	"github.com/iliyamo/cinema-ticket-server/internal/cache"
	"github.com/iliyamo/cinema-ticket-server/internal/protocol"
	"github.com/iliyamo/cinema-ticket-server/internal/repository"
	"github.com/iliyamo/cinema-ticket-server/internal/session"
)

// Handler bundles every collaborator the action handlers need. All
// dependencies except Catalog must be non-nil; a nil Catalog disables
// listing caching.
type Handler struct {
	Sessions   *session.Store
	Users      *repository.UserRepo
	Movies     *repository.MovieRepo
	Showtimes  *repository.ShowtimeRepo
	Seats      *repository.SeatRepo
	Tickets    *repository.TicketRepo
	Engine     *booking.Engine
	Catalog    *cache.Catalog
	BcryptCost int
}

// New constructs a Handler with the provided collaborators.
func New(sessions *session.Store, users *repository.UserRepo, movies *repository.MovieRepo,
	showtimes *repository.ShowtimeRepo, seats *repository.SeatRepo, tickets *repository.TicketRepo,
	engine *booking.Engine, catalog *cache.Catalog, bcryptCost int) *Handler {
	if sessions == nil || users == nil || movies == nil || showtimes == nil ||
		seats == nil || tickets == nil || engine == nil {
		panic("nil dependency passed to handler.New")
	}
	return &Handler{
		Sessions:   sessions,
		Users:      users,
		Movies:     movies,
		Showtimes:  showtimes,
		Seats:      seats,
		Tickets:    tickets,
		Engine:     engine,
		Catalog:    catalog,
		BcryptCost: bcryptCost,
	}
}

// Handle dispatches one request and always produces a response: any panic
// below this point is caught and reported as a generic server error.
func (h *Handler) Handle(ctx context.Context, req protocol.Request) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("handler: panic in action %q: %v", req.Action, r)
			resp = protocol.Errorf("Server error")
		}
	}()

	// Public tier.
	switch req.Action {
	case "ping":
		return protocol.OK(map[string]any{"pong": true})
	case "register":
		return h.register(ctx, req.Data)
	case "login":
		return h.login(ctx, req.Data)
	}

	// Everything else requires a live session.
	token := getString(req.Data, "token")
	if token == "" {
		return protocol.Errorf("Missing token")
	}
	user, ok := h.Sessions.Lookup(token)
	if !ok {
		return protocol.Errorf("Invalid/expired token")
	}

	switch req.Action {
	case "logout":
		h.Sessions.Delete(token)
		return protocol.OK(map[string]any{"message": "Logged out"})
	case "list_movies":
		return h.listMovies(ctx)
	case "list_showtimes":
		return h.listShowtimes(ctx, req.Data)
	case "get_seats":
		return h.getSeats(ctx, req.Data)
	case "book":
		return h.book(ctx, user, req.Data)
	case "my_tickets":
		return h.myTickets(ctx, user)
	case "cancel":
		return h.cancel(ctx, user, req.Data)
	}

	// Admin tier.
	switch req.Action {
	case "admin_add_movie", "admin_add_showtime":
		if user.Role != "admin" {
			return protocol.Errorf("Admin only")
		}
		if req.Action == "admin_add_movie" {
			return h.addMovie(ctx, req.Data)
		}
		return h.addShowtime(ctx, req.Data)
	}

	return protocol.Errorf("Unknown action: %s", req.Action)
}

// serverError logs the underlying failure and hides it from the client.
func serverError(action string, err error) protocol.Response {
	log.Printf("handler: %s failed: %v", action, err)
	return protocol.Errorf("Server error")
}

// getString extracts a trimmed string field; absent or non-string values
// yield "".
func getString(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return strings.TrimSpace(s)
}

// getUint extracts a positive integer identifier. JSON numbers arrive as
// float64; only integral values >= 1 are accepted.
func getUint(data map[string]any, key string) (uint64, bool) {
	f, ok := data[key].(float64)
	if !ok || f < 1 || f != math.Trunc(f) {
		return 0, false
	}
	return uint64(f), true
}

// getInt extracts an integer that may legitimately be zero or negative;
// range checks stay with the caller.
func getInt(data map[string]any, key string) (int64, bool) {
	f, ok := data[key].(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
