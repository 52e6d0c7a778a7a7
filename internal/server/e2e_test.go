package server_test

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-server/internal/booking"
	"github.com/iliyamo/cinema-ticket-server/internal/database"
	"github.com/iliyamo/cinema-ticket-server/internal/handler"
	"github.com/iliyamo/cinema-ticket-server/internal/protocol"
	"github.com/iliyamo/cinema-ticket-server/internal/repository"
	"github.com/iliyamo/cinema-ticket-server/internal/session"
)

// client is a minimal line-protocol client for tests. Token, once set, is
// attached to every request, mirroring how real clients behave.
type client struct {
	t     *testing.T
	conn  net.Conn
	r     *bufio.Reader
	token string
}

func newClient(t *testing.T, addr string) *client {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &client{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *client) request(action string, data map[string]any) protocol.Response {
	c.t.Helper()
	if data == nil {
		data = map[string]any{}
	}
	if c.token != "" {
		if _, ok := data["token"]; !ok {
			data["token"] = c.token
		}
	}
	line, err := json.Marshal(protocol.Request{Action: action, Data: data})
	require.NoError(c.t, err)
	_, err = c.conn.Write(append(line, '\n'))
	require.NoError(c.t, err)

	raw, err := c.r.ReadBytes('\n')
	require.NoError(c.t, err)
	var resp protocol.Response
	require.NoError(c.t, json.Unmarshal(raw, &resp))
	return resp
}

func (c *client) mustOK(action string, data map[string]any) map[string]any {
	c.t.Helper()
	resp := c.request(action, data)
	if !resp.Ok && resp.Error != nil {
		c.t.Fatalf("action %s failed: %s", action, *resp.Error)
	}
	require.True(c.t, resp.Ok, "action %s failed", action)
	return resp.Data
}

// startFullServer wires the complete stack against the integration
// database and serves it on an ephemeral port.
func startFullServer(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping end-to-end test")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.InitSchema(context.Background(), db, 4))

	seats := repository.NewSeatRepo(db)
	tickets := repository.NewTicketRepo(db)
	h := handler.New(
		session.New(0),
		repository.NewUserRepo(db),
		repository.NewMovieRepo(db),
		repository.NewShowtimeRepo(db),
		seats,
		tickets,
		booking.New(db, seats, tickets, 5, 8),
		nil, // no cache in tests
		4,
	)
	return startServer(t, h)
}

func seatStatus(t *testing.T, seats any, code string) string {
	t.Helper()
	list, ok := seats.([]any)
	require.True(t, ok, "seats payload must be a list")
	for _, item := range list {
		m, ok := item.(map[string]any)
		require.True(t, ok)
		if m["seat_code"] == code {
			s, _ := m["status"].(string)
			return s
		}
	}
	t.Fatalf("seat %s not present", code)
	return ""
}

// The full happy path from the outside: register, log in as user and
// admin, create a movie and a showtime, inspect the grid, book, cancel,
// book again.
func TestEndToEndScenario(t *testing.T) {
	addr := startFullServer(t)

	alice := newClient(t, addr)
	admin := newClient(t, addr)

	pong := alice.mustOK("ping", nil)
	assert.Equal(t, true, pong["pong"])

	username := fmt.Sprintf("alice_%d", time.Now().UnixNano())
	alice.mustOK("register", map[string]any{"username": username, "password": "pw1"})

	// Duplicate registration must conflict.
	dup := alice.request("register", map[string]any{"username": username, "password": "pw1"})
	require.False(t, dup.Ok)
	assert.Equal(t, "Username already exists", *dup.Error)

	loginData := alice.mustOK("login", map[string]any{"username": username, "password": "pw1"})
	alice.token = loginData["token"].(string)
	user := loginData["user"].(map[string]any)
	assert.Equal(t, "user", user["role"])

	badLogin := alice.request("login", map[string]any{"username": username, "password": "nope"})
	require.False(t, badLogin.Ok)
	assert.Equal(t, "Invalid credentials", *badLogin.Error)

	adminLogin := admin.mustOK("login", map[string]any{
		"username": database.AdminUsername, "password": database.DefaultAdminPassword,
	})
	admin.token = adminLogin["token"].(string)
	assert.Equal(t, "admin", adminLogin["user"].(map[string]any)["role"])

	// Alice is not allowed to administer the catalog.
	denied := alice.request("admin_add_movie", map[string]any{"title": "Nope", "duration_min": 100})
	require.False(t, denied.Ok)
	assert.Equal(t, "Admin only", *denied.Error)

	movieData := admin.mustOK("admin_add_movie", map[string]any{
		"title": "Test", "description": "e2e", "duration_min": 100,
	})
	movieID := movieData["movie_id"].(float64)

	showData := admin.mustOK("admin_add_showtime", map[string]any{
		"movie_id": movieID, "start_time": time.Now().UTC().Format(time.RFC3339),
		"hall": "P1", "price": 50000,
	})
	showtimeID := showData["showtime_id"].(float64)

	movies := alice.mustOK("list_movies", nil)["movies"].([]any)
	assert.NotEmpty(t, movies)
	showtimes := alice.mustOK("list_showtimes", map[string]any{"movie_id": movieID})["showtimes"].([]any)
	require.Len(t, showtimes, 1)
	assert.Equal(t, "Test", showtimes[0].(map[string]any)["movie_title"])

	grid := alice.mustOK("get_seats", map[string]any{"showtime_id": showtimeID})["seats"]
	require.Len(t, grid.([]any), 40)
	assert.Equal(t, "available", seatStatus(t, grid, "A1"))

	bookData := alice.mustOK("book", map[string]any{"showtime_id": showtimeID, "seat_code": "A1"})
	assert.Equal(t, "Booked", bookData["message"])
	ticketID := bookData["ticket_id"].(float64)

	// The same seat cannot be booked twice, not even by its owner.
	again := alice.request("book", map[string]any{"showtime_id": showtimeID, "seat_code": "A1"})
	require.False(t, again.Ok)
	assert.Equal(t, "Seat already booked", *again.Error)

	grid = alice.mustOK("get_seats", map[string]any{"showtime_id": showtimeID})["seats"]
	assert.Equal(t, "booked", seatStatus(t, grid, "A1"))

	ticketList := alice.mustOK("my_tickets", nil)["tickets"].([]any)
	require.NotEmpty(t, ticketList)
	assert.Equal(t, "active", ticketList[0].(map[string]any)["status"])

	alice.mustOK("cancel", map[string]any{"ticket_id": ticketID})
	grid = alice.mustOK("get_seats", map[string]any{"showtime_id": showtimeID})["seats"]
	assert.Equal(t, "available", seatStatus(t, grid, "A1"))

	// Cancel-then-rebook round trip completes.
	rebook := alice.mustOK("book", map[string]any{"showtime_id": showtimeID, "seat_code": "A1"})
	assert.NotEqual(t, ticketID, rebook["ticket_id"].(float64))

	// Logout invalidates the token immediately.
	alice.mustOK("logout", nil)
	after := alice.request("my_tickets", nil)
	require.False(t, after.Ok)
	assert.Equal(t, "Invalid/expired token", *after.Error)
}

// N distinct sessions race for one seat over real connections; exactly one
// wins and the rest get the conflict message.
func TestConcurrentBookingOverWire(t *testing.T) {
	addr := startFullServer(t)

	admin := newClient(t, addr)
	adminLogin := admin.mustOK("login", map[string]any{
		"username": database.AdminUsername, "password": database.DefaultAdminPassword,
	})
	admin.token = adminLogin["token"].(string)

	movieID := admin.mustOK("admin_add_movie", map[string]any{
		"title": "Race", "description": "", "duration_min": 90,
	})["movie_id"].(float64)
	showtimeID := admin.mustOK("admin_add_showtime", map[string]any{
		"movie_id": movieID, "start_time": time.Now().UTC().Format(time.RFC3339),
		"hall": "P2", "price": 40000,
	})["showtime_id"].(float64)

	const n = 6
	clients := make([]*client, n)
	for i := 0; i < n; i++ {
		c := newClient(t, addr)
		username := fmt.Sprintf("racer%d_%d", i, time.Now().UnixNano())
		c.mustOK("register", map[string]any{"username": username, "password": "pw"})
		c.token = c.mustOK("login", map[string]any{"username": username, "password": "pw"})["token"].(string)
		clients[i] = c
	}

	results := make(chan protocol.Response, n)
	for _, c := range clients {
		go func(c *client) {
			results <- c.request("book", map[string]any{"showtime_id": showtimeID, "seat_code": "D4"})
		}(c)
	}

	wins, conflicts := 0, 0
	for i := 0; i < n; i++ {
		resp := <-results
		if resp.Ok {
			wins++
		} else {
			require.NotNil(t, resp.Error)
			assert.Equal(t, "Seat already booked", *resp.Error)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins, "exactly one session may win the seat")
	assert.Equal(t, n-1, conflicts)
}
