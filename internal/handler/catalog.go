package handler

import (
	"context"
	"errors"

	"github.com/iliyamo/cinema-ticket-server/internal/protocol"
	"github.com/iliyamo/cinema-ticket-server/internal/repository"
)

// listMovies returns the whole catalog, newest first. Listings go through
// the optional Redis cache; booking state never does.
func (h *Handler) listMovies(ctx context.Context) protocol.Response {
	if movies, ok := h.Catalog.GetMovies(ctx); ok {
		return protocol.OK(map[string]any{"movies": movies})
	}
	movies, err := h.Movies.List(ctx)
	if err != nil {
		return serverError("list_movies", err)
	}
	h.Catalog.SetMovies(ctx, movies)
	return protocol.OK(map[string]any{"movies": movies})
}

// listShowtimes returns a movie's showtimes ordered by start time. An
// unknown movie yields an empty list, not an error.
func (h *Handler) listShowtimes(ctx context.Context, data map[string]any) protocol.Response {
	movieID, ok := getUint(data, "movie_id")
	if !ok {
		return protocol.Errorf("movie_id required")
	}
	if showtimes, ok := h.Catalog.GetShowtimes(ctx, movieID); ok {
		return protocol.OK(map[string]any{"showtimes": showtimes})
	}
	showtimes, err := h.Showtimes.ListByMovie(ctx, movieID)
	if err != nil {
		return serverError("list_showtimes", err)
	}
	h.Catalog.SetShowtimes(ctx, movieID, showtimes)
	return protocol.OK(map[string]any{"showtimes": showtimes})
}

// getSeats returns the seat grid of a showtime, provisioning it first if
// this is the showtime's first touch.
func (h *Handler) getSeats(ctx context.Context, data map[string]any) protocol.Response {
	showtimeID, ok := getUint(data, "showtime_id")
	if !ok {
		return protocol.Errorf("showtime_id required")
	}
	if _, err := h.Showtimes.GetByID(ctx, showtimeID); err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return protocol.Errorf("Showtime not found")
		}
		return serverError("get_seats", err)
	}
	if err := h.Engine.ProvisionSeats(ctx, showtimeID); err != nil {
		return serverError("get_seats", err)
	}
	seats, err := h.Seats.ListByShowtime(ctx, showtimeID)
	if err != nil {
		return serverError("get_seats", err)
	}
	return protocol.OK(map[string]any{"seats": seats})
}
