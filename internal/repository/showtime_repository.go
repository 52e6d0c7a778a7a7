package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Showtime mirrors the 'showtimes' table. StartTime is the ISO-8601 string
// supplied at creation and is passed through unmodified; the server never
// interprets it. MovieTitle is populated by queries that join movies.
type Showtime struct {
	ID         uint64 `json:"id"`
	MovieID    uint64 `json:"movie_id"`
	StartTime  string `json:"start_time"`
	Hall       string `json:"hall"`
	Price      int64  `json:"price"`
	MovieTitle string `json:"movie_title,omitempty"`
}

// ErrShowtimeNotFound is returned when a showtime lookup yields no rows.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ShowtimeRepo encapsulates database operations for showtimes.
type ShowtimeRepo struct {
	db *sql.DB
}

func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// Create inserts a showtime and returns its ID. Seat provisioning is the
// booking engine's concern, not the repository's.
func (r *ShowtimeRepo) Create(ctx context.Context, movieID uint64, startTime, hall string, price int64) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO showtimes (movie_id, start_time, hall, price) VALUES (?,?,?,?)",
		movieID, startTime, hall, price)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByMovie returns all showtimes of a movie ordered by start time,
// with the movie title joined in.
func (r *ShowtimeRepo) ListByMovie(ctx context.Context, movieID uint64) ([]Showtime, error) {
	const q = `SELECT s.id, s.movie_id, s.start_time, s.hall, s.price, m.title
	           FROM showtimes s
	           JOIN movies m ON m.id = s.movie_id
	           WHERE s.movie_id = ?
	           ORDER BY s.start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Showtime, 0)
	for rows.Next() {
		var s Showtime
		if err := rows.Scan(&s.ID, &s.MovieID, &s.StartTime, &s.Hall, &s.Price, &s.MovieTitle); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID fetches one showtime with its movie title.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (Showtime, error) {
	const q = `SELECT s.id, s.movie_id, s.start_time, s.hall, s.price, m.title
	           FROM showtimes s
	           JOIN movies m ON m.id = s.movie_id
	           WHERE s.id = ?`
	var s Showtime
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.MovieID, &s.StartTime, &s.Hall, &s.Price, &s.MovieTitle)
	if errors.Is(err, sql.ErrNoRows) {
		return Showtime{}, ErrShowtimeNotFound
	}
	if err != nil {
		return Showtime{}, err
	}
	return s, nil
}
