package handler

import (
	"context"

	"github.com/iliyamo/cinema-ticket-server/internal/protocol"
)

// addMovie creates a catalog entry. Only the title is mandatory; a zero
// duration is rejected because every screening has one.
func (h *Handler) addMovie(ctx context.Context, data map[string]any) protocol.Response {
	title := getString(data, "title")
	if title == "" {
		return protocol.Errorf("title required")
	}
	description := getString(data, "description")
	duration, ok := getInt(data, "duration_min")
	if !ok || duration <= 0 {
		return protocol.Errorf("duration_min must be positive")
	}
	movieID, err := h.Movies.Create(ctx, title, description, int(duration))
	if err != nil {
		return serverError("admin_add_movie", err)
	}
	h.Catalog.InvalidateMovies(ctx)
	return protocol.OK(map[string]any{"movie_id": movieID})
}

// addShowtime schedules a screening and provisions its seat grid right
// away, so the first get_seats does not pay the provisioning cost.
func (h *Handler) addShowtime(ctx context.Context, data map[string]any) protocol.Response {
	movieID, ok := getUint(data, "movie_id")
	if !ok {
		return protocol.Errorf("movie_id required")
	}
	startTime := getString(data, "start_time")
	hall := getString(data, "hall")
	price, priceOK := getInt(data, "price")
	if startTime == "" || hall == "" || !priceOK || price <= 0 {
		return protocol.Errorf("start_time, hall, price required")
	}

	exists, err := h.Movies.Exists(ctx, movieID)
	if err != nil {
		return serverError("admin_add_showtime", err)
	}
	if !exists {
		return protocol.Errorf("Movie not found")
	}

	showtimeID, err := h.Showtimes.Create(ctx, movieID, startTime, hall, price)
	if err != nil {
		return serverError("admin_add_showtime", err)
	}
	if err := h.Engine.ProvisionSeats(ctx, showtimeID); err != nil {
		return serverError("admin_add_showtime", err)
	}
	h.Catalog.InvalidateShowtimes(ctx, movieID)
	return protocol.OK(map[string]any{"showtime_id": showtimeID})
}
