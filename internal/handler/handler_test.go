package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-server/internal/booking"
	"github.com/iliyamo/cinema-ticket-server/internal/protocol"
	"github.com/iliyamo/cinema-ticket-server/internal/repository"
	"github.com/iliyamo/cinema-ticket-server/internal/session"
)

// newTestHandler builds a handler whose repositories sit on a nil DB
// handle. That is enough for everything the dispatcher decides before
// touching the store: tier gating, validation and routing.
func newTestHandler() *Handler {
	seats := repository.NewSeatRepo(nil)
	tickets := repository.NewTicketRepo(nil)
	return New(
		session.New(0),
		repository.NewUserRepo(nil),
		repository.NewMovieRepo(nil),
		repository.NewShowtimeRepo(nil),
		seats,
		tickets,
		booking.New(nil, seats, tickets, 5, 8),
		nil, // no cache
		4,
	)
}

func call(h *Handler, action string, data map[string]any) protocol.Response {
	if data == nil {
		data = map[string]any{}
	}
	return h.Handle(context.Background(), protocol.Request{Action: action, Data: data})
}

func errorOf(t *testing.T, resp protocol.Response) string {
	t.Helper()
	require.False(t, resp.Ok)
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestPing(t *testing.T) {
	resp := call(newTestHandler(), "ping", nil)
	require.True(t, resp.Ok)
	assert.Equal(t, true, resp.Data["pong"])
}

func TestAuthenticatedActionsRequireToken(t *testing.T) {
	h := newTestHandler()
	for _, action := range []string{
		"logout", "list_movies", "list_showtimes", "get_seats",
		"book", "my_tickets", "cancel", "admin_add_movie", "admin_add_showtime",
	} {
		resp := call(h, action, nil)
		assert.Equal(t, "Missing token", errorOf(t, resp), "action %s", action)

		resp = call(h, action, map[string]any{"token": "bogus"})
		assert.Equal(t, "Invalid/expired token", errorOf(t, resp), "action %s", action)
	}
}

func TestAdminActionsRejectRegularUsers(t *testing.T) {
	h := newTestHandler()
	token, err := h.Sessions.Create(session.User{ID: 1, Username: "alice", Role: "user"})
	require.NoError(t, err)

	for _, action := range []string{"admin_add_movie", "admin_add_showtime"} {
		resp := call(h, action, map[string]any{"token": token})
		assert.Equal(t, "Admin only", errorOf(t, resp), "action %s", action)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	h := newTestHandler()
	token, err := h.Sessions.Create(session.User{ID: 1, Username: "alice", Role: "user"})
	require.NoError(t, err)

	resp := call(h, "logout", map[string]any{"token": token})
	require.True(t, resp.Ok)
	assert.Equal(t, "Logged out", resp.Data["message"])

	resp = call(h, "logout", map[string]any{"token": token})
	assert.Equal(t, "Invalid/expired token", errorOf(t, resp))
}

func TestUnknownAction(t *testing.T) {
	h := newTestHandler()
	token, err := h.Sessions.Create(session.User{ID: 1, Username: "alice", Role: "user"})
	require.NoError(t, err)

	resp := call(h, "teleport", map[string]any{"token": token})
	assert.Equal(t, "Unknown action: teleport", errorOf(t, resp))
}

// Validation must reject bad fields before any store operation runs; with
// a nil DB underneath, reaching the store would panic and surface as
// "Server error" instead of the expected validation message.
func TestValidationBeforeStore(t *testing.T) {
	h := newTestHandler()
	token, err := h.Sessions.Create(session.User{ID: 1, Username: "alice", Role: "user"})
	require.NoError(t, err)
	admin, err := h.Sessions.Create(session.User{ID: 2, Username: "admin", Role: "admin"})
	require.NoError(t, err)

	cases := []struct {
		action string
		data   map[string]any
		want   string
	}{
		{"register", map[string]any{}, "username/password required"},
		{"register", map[string]any{"username": "  ", "password": "pw"}, "username/password required"},
		{"login", map[string]any{"username": "alice"}, "username/password required"},
		{"list_showtimes", map[string]any{"token": token}, "movie_id required"},
		{"list_showtimes", map[string]any{"token": token, "movie_id": "seven"}, "movie_id required"},
		{"list_showtimes", map[string]any{"token": token, "movie_id": 1.5}, "movie_id required"},
		{"get_seats", map[string]any{"token": token}, "showtime_id required"},
		{"book", map[string]any{"token": token}, "showtime_id required"},
		{"book", map[string]any{"token": token, "showtime_id": float64(3)}, "seat_code required"},
		{"cancel", map[string]any{"token": token}, "ticket_id required"},
		{"cancel", map[string]any{"token": token, "ticket_id": float64(0)}, "ticket_id required"},
		{"admin_add_movie", map[string]any{"token": admin}, "title required"},
		{"admin_add_movie", map[string]any{"token": admin, "title": "T"}, "duration_min must be positive"},
		{"admin_add_movie", map[string]any{"token": admin, "title": "T", "duration_min": float64(-5)}, "duration_min must be positive"},
		{"admin_add_showtime", map[string]any{"token": admin}, "movie_id required"},
		{"admin_add_showtime", map[string]any{"token": admin, "movie_id": float64(1)}, "start_time, hall, price required"},
		{"admin_add_showtime", map[string]any{"token": admin, "movie_id": float64(1), "start_time": "2026-01-01T10:00:00Z", "hall": "P1", "price": float64(0)}, "start_time, hall, price required"},
	}
	for _, tc := range cases {
		resp := call(h, tc.action, tc.data)
		assert.Equal(t, tc.want, errorOf(t, resp), "action %s with %v", tc.action, tc.data)
	}
}

// A panic inside a handler must surface as a generic error response, not
// crash the caller. The nil DB makes list_movies panic past validation.
func TestPanicBecomesServerError(t *testing.T) {
	h := newTestHandler()
	token, err := h.Sessions.Create(session.User{ID: 1, Username: "alice", Role: "user"})
	require.NoError(t, err)

	resp := call(h, "list_movies", map[string]any{"token": token})
	assert.Equal(t, "Server error", errorOf(t, resp))
}
